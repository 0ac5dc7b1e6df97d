package models

// Selection is the customer's service choice as captured by the booking
// funnel. Quantity fields only contribute to the price when the matching
// membership flag is set; a stale nonzero count on a deselected add-on is
// ignored.
type Selection struct {
	ServiceType string  `json:"service_type"`
	Bedrooms    int     `json:"bedrooms"`
	Bathrooms   float64 `json:"bathrooms"`

	OvenCleaning                bool `json:"oven_cleaning"`
	OvenCount                   int  `json:"oven_count"`
	MicrowaveDishwasherCleaning bool `json:"microwave_dishwasher_cleaning"`
	MicrowaveDishwasherCount    int  `json:"microwave_dishwasher_count"`
	RefrigeratorCleaning        bool `json:"refrigerator_cleaning"`
	RefrigeratorCount           int  `json:"refrigerator_count"`

	WallCleaning   bool `json:"wall_cleaning"`
	WallRoomsCount int  `json:"wall_rooms_count"`

	InteriorWindowCleaning bool `json:"interior_window_cleaning"`
	ExteriorWindowCleaning bool `json:"exterior_window_cleaning"`
	ExteriorWindowsCount   int  `json:"exterior_windows_count"`

	LaundryService bool `json:"laundry_service"`
	LaundryLoads   int  `json:"laundry_loads"`
	MakeBeds       bool `json:"make_beds"`
	BedsCount      int  `json:"beds_count"`
	TrashRemoval   bool `json:"trash_removal"`
	TrashBags      int  `json:"trash_bags"`

	RecurringType string `json:"recurring_type"`
}

// Normalize clamps negative quantities to zero and defaults empty recurrence
// to one-time. The UI never produces negative counts but webhook metadata is
// external input.
func (s *Selection) Normalize() {
	clamp := func(n *int) {
		if *n < 0 {
			*n = 0
		}
	}
	clamp(&s.OvenCount)
	clamp(&s.MicrowaveDishwasherCount)
	clamp(&s.RefrigeratorCount)
	clamp(&s.WallRoomsCount)
	clamp(&s.ExteriorWindowsCount)
	clamp(&s.LaundryLoads)
	clamp(&s.BedsCount)
	clamp(&s.TrashBags)

	if s.Bedrooms < 0 {
		s.Bedrooms = 0
	}
	if s.Bathrooms < 0 {
		s.Bathrooms = 0
	}
	if s.RecurringType == "" {
		s.RecurringType = RecurringOneTime
	}
}
