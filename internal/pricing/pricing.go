package pricing

import (
	"math"

	"brightnest/internal/catalog"
	"brightnest/internal/models"
)

// Quote is an itemized price breakdown. Total is the authoritative amount in
// whole currency units; the same function runs behind the live preview and
// the server-side checkout so the two can never disagree.
type Quote struct {
	ServiceType     string  `json:"service_type"`
	BasePrice       float64 `json:"base_price"`
	RoomSurcharge   float64 `json:"room_surcharge"`
	AppliancesTotal float64 `json:"appliances_total"`
	WallsTotal      float64 `json:"walls_total"`
	WindowsTotal    float64 `json:"windows_total"`
	ExtrasTotal     float64 `json:"extras_total"`
	Subtotal        float64 `json:"subtotal"`
	DiscountPercent int     `json:"discount_percent"`
	DiscountAmount  float64 `json:"discount_amount"`
	Total           float64 `json:"total"`
}

// Calculate prices a selection against the catalog. No tier selected means a
// zero quote: the funnel treats zero as "incomplete".
func Calculate(cat *catalog.Catalog, sel models.Selection) Quote {
	sel.Normalize()

	tier := cat.Tier(sel.ServiceType)
	if tier == nil {
		return Quote{ServiceType: sel.ServiceType}
	}

	q := Quote{
		ServiceType: sel.ServiceType,
		BasePrice:   tier.BasePrice,
	}

	// First bedroom and bathroom are covered by the base price. Bathrooms
	// come in half steps, so the surcharge scales with the fractional part
	// above one.
	extraBedrooms := float64(sel.Bedrooms - 1)
	if extraBedrooms < 0 {
		extraBedrooms = 0
	}
	extraBathrooms := sel.Bathrooms - 1
	if extraBathrooms < 0 {
		extraBathrooms = 0
	}
	q.RoomSurcharge = extraBedrooms*cat.ExtraBedroomPrice + extraBathrooms*cat.ExtraBathroomPrice

	if sel.OvenCleaning {
		q.AppliancesTotal += cat.AddOnPrice(catalog.AddOnOven) * float64(sel.OvenCount)
	}
	if sel.MicrowaveDishwasherCleaning {
		q.AppliancesTotal += cat.AddOnPrice(catalog.AddOnMicrowaveDishwasher) * float64(sel.MicrowaveDishwasherCount)
	}
	if sel.RefrigeratorCleaning {
		q.AppliancesTotal += cat.AddOnPrice(catalog.AddOnRefrigerator) * float64(sel.RefrigeratorCount)
	}

	if sel.WallCleaning {
		q.WallsTotal += cat.AddOnPrice(catalog.AddOnWalls) * float64(sel.WallRoomsCount)
	}

	if sel.InteriorWindowCleaning {
		q.WindowsTotal += cat.AddOnPrice(catalog.AddOnInteriorWindows)
	}
	if sel.ExteriorWindowCleaning {
		q.WindowsTotal += cat.AddOnPrice(catalog.AddOnExteriorWindows) * float64(sel.ExteriorWindowsCount)
	}

	if sel.LaundryService {
		q.ExtrasTotal += cat.AddOnPrice(catalog.AddOnLaundry) * float64(sel.LaundryLoads)
	}
	if sel.MakeBeds {
		q.ExtrasTotal += cat.AddOnPrice(catalog.AddOnMakeBeds) * float64(sel.BedsCount)
	}
	if sel.TrashRemoval {
		q.ExtrasTotal += cat.AddOnPrice(catalog.AddOnTrashRemoval) * float64(sel.TrashBags)
	}

	q.Subtotal = q.BasePrice + q.RoomSurcharge + q.AppliancesTotal + q.WallsTotal + q.WindowsTotal + q.ExtrasTotal

	if plan := cat.Plan(sel.RecurringType); plan != nil && plan.DiscountPercent > 0 {
		q.DiscountPercent = plan.DiscountPercent
		q.DiscountAmount = q.Subtotal * float64(plan.DiscountPercent) / 100
	}

	q.Total = roundHalfUp(q.Subtotal - q.DiscountAmount)
	return q
}

// Total is the short form used where no breakdown is needed.
func Total(cat *catalog.Catalog, sel models.Selection) float64 {
	return Calculate(cat, sel).Total
}

// roundHalfUp rounds to the nearest whole currency unit, halves away from
// zero. Client preview and server checkout must round identically.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
