package catalog

import (
	"fmt"
	"os"

	"brightnest/internal/models"

	"gopkg.in/yaml.v2"
)

// ServiceTier is a base cleaning package with a fixed starting price that
// covers one bedroom and one bathroom.
type ServiceTier struct {
	ID            string  `yaml:"id" json:"id"`
	Name          string  `yaml:"name" json:"name"`
	BasePrice     float64 `yaml:"base_price" json:"base_price"`
	Description   string  `yaml:"description" json:"description"`
	DurationHours int     `yaml:"duration_hours" json:"duration_hours"`
}

// AddOn is a priced extra. PerUnit add-ons multiply by a quantity taken from
// the selection; flat add-ons contribute once when selected.
type AddOn struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Price       float64 `yaml:"price" json:"price"`
	Description string  `yaml:"description" json:"description"`
	PerUnit     bool    `yaml:"per_unit" json:"per_unit"`
	Unit        string  `yaml:"unit,omitempty" json:"unit,omitempty"`
}

// RecurrencePlan maps a recurrence choice to its discount and billing cycle.
type RecurrencePlan struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name" json:"name"`
	Frequency       string `yaml:"frequency" json:"frequency"`
	DiscountPercent int    `yaml:"discount_percent" json:"discount_percent"`
	IntervalDays    int    `yaml:"interval_days" json:"interval_days"`
}

// Catalog is the full static service offering. It is data, not behavior:
// the price engine interprets it.
type Catalog struct {
	Tiers      []ServiceTier    `yaml:"tiers" json:"tiers"`
	Appliances []AddOn          `yaml:"appliances" json:"appliances"`
	Walls      []AddOn          `yaml:"walls" json:"walls"`
	Windows    []AddOn          `yaml:"windows" json:"windows"`
	Extras     []AddOn          `yaml:"extras" json:"extras"`
	Recurrence []RecurrencePlan `yaml:"recurrence" json:"recurrence"`

	ExtraBedroomPrice  float64 `yaml:"extra_bedroom_price" json:"extra_bedroom_price"`
	ExtraBathroomPrice float64 `yaml:"extra_bathroom_price" json:"extra_bathroom_price"`
}

// Add-on identifiers referenced by the price engine and metadata codec.
const (
	AddOnOven                = "oven"
	AddOnMicrowaveDishwasher = "microwave-dishwasher"
	AddOnRefrigerator        = "refrigerator"
	AddOnWalls               = "walls"
	AddOnInteriorWindows     = "interior-windows"
	AddOnExteriorWindows     = "exterior-windows"
	AddOnLaundry             = "laundry"
	AddOnMakeBeds            = "make-beds"
	AddOnTrashRemoval        = "trash-removal"
)

// Default returns the built-in catalog used when no catalog file is
// configured.
func Default() *Catalog {
	return &Catalog{
		Tiers: []ServiceTier{
			{ID: "regular", Name: "Regular Cleaning", BasePrice: 90, Description: "Standard cleaning service for regular maintenance", DurationHours: 2},
			{ID: "deep", Name: "Deep Cleaning", BasePrice: 185, Description: "Thorough cleaning including hard-to-reach areas", DurationHours: 4},
			{ID: "move-in", Name: "Move-in/Move-out", BasePrice: 280, Description: "Comprehensive cleaning for moving situations", DurationHours: 6},
			{ID: "post-construction", Name: "Post-Construction", BasePrice: 400, Description: "Specialized cleaning after construction work", DurationHours: 8},
		},
		Appliances: []AddOn{
			{ID: AddOnOven, Name: "Oven Cleaning", Price: 30, PerUnit: true, Unit: "oven", Description: "Deep cleaning of oven interior and exterior"},
			{ID: AddOnMicrowaveDishwasher, Name: "Microwave & Dishwasher", Price: 20, PerUnit: true, Unit: "unit", Description: "Cleaning of microwave and dishwasher"},
			{ID: AddOnRefrigerator, Name: "Refrigerator Cleaning", Price: 35, PerUnit: true, Unit: "refrigerator", Description: "Interior and exterior refrigerator cleaning"},
		},
		Walls: []AddOn{
			{ID: AddOnWalls, Name: "Wall Cleaning", Price: 35, PerUnit: true, Unit: "room", Description: "Wall cleaning per room"},
		},
		Windows: []AddOn{
			{ID: AddOnInteriorWindows, Name: "Interior Window Cleaning", Price: 40, Description: "Interior window cleaning service"},
			{ID: AddOnExteriorWindows, Name: "Exterior Window Cleaning", Price: 10, PerUnit: true, Unit: "window", Description: "Exterior window cleaning per window"},
		},
		Extras: []AddOn{
			{ID: AddOnLaundry, Name: "Laundry Service", Price: 25, PerUnit: true, Unit: "load", Description: "Wash, dry, fold, and leave neatly per load"},
			{ID: AddOnMakeBeds, Name: "Make Beds", Price: 10, PerUnit: true, Unit: "bed", Description: "Strip down and make beds"},
			{ID: AddOnTrashRemoval, Name: "Trash Removal", Price: 10, PerUnit: true, Unit: "bag", Description: "Remove trash per bag"},
		},
		Recurrence: []RecurrencePlan{
			{ID: models.RecurringOneTime, Name: "One Time", Frequency: "none", DiscountPercent: 0, IntervalDays: 0},
			{ID: models.RecurringWeekly, Name: "Weekly Recurring", Frequency: "weekly", DiscountPercent: 10, IntervalDays: models.WeeklyIntervalDays},
			{ID: models.RecurringBiweekly, Name: "Bi-weekly Recurring", Frequency: "biweekly", DiscountPercent: 10, IntervalDays: models.BiweeklyIntervalDays},
		},
		ExtraBedroomPrice:  47.50,
		ExtraBathroomPrice: 57.50,
	}
}

// Load reads a catalog override file. A missing path falls back to the
// built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	if err := Validate(&c); err != nil {
		return nil, fmt.Errorf("catalog validation failed: %w", err)
	}

	return &c, nil
}

// Validate checks for duplicate or empty identifiers and negative prices.
func Validate(c *Catalog) error {
	seen := make(map[string]bool)

	check := func(id string, price float64) error {
		if id == "" {
			return fmt.Errorf("catalog entry with empty id")
		}
		if seen[id] {
			return fmt.Errorf("duplicate catalog id: %s", id)
		}
		if price < 0 {
			return fmt.Errorf("catalog entry %s has negative price", id)
		}
		seen[id] = true
		return nil
	}

	for _, t := range c.Tiers {
		if err := check(t.ID, t.BasePrice); err != nil {
			return err
		}
	}
	for _, group := range [][]AddOn{c.Appliances, c.Walls, c.Windows, c.Extras} {
		for _, a := range group {
			if err := check(a.ID, a.Price); err != nil {
				return err
			}
		}
	}
	for _, r := range c.Recurrence {
		if r.ID == "" {
			return fmt.Errorf("recurrence plan with empty id")
		}
		if r.DiscountPercent < 0 || r.DiscountPercent > 100 {
			return fmt.Errorf("recurrence plan %s has invalid discount %d", r.ID, r.DiscountPercent)
		}
	}
	return nil
}

// Tier returns the tier by id, or nil.
func (c *Catalog) Tier(id string) *ServiceTier {
	for i := range c.Tiers {
		if c.Tiers[i].ID == id {
			return &c.Tiers[i]
		}
	}
	return nil
}

// Plan returns the recurrence plan by id, or nil.
func (c *Catalog) Plan(id string) *RecurrencePlan {
	for i := range c.Recurrence {
		if c.Recurrence[i].ID == id {
			return &c.Recurrence[i]
		}
	}
	return nil
}

// AddOnPrice returns the unit price for an add-on id across all groups,
// or 0 when unknown.
func (c *Catalog) AddOnPrice(id string) float64 {
	for _, group := range [][]AddOn{c.Appliances, c.Walls, c.Windows, c.Extras} {
		for _, a := range group {
			if a.ID == id {
				return a.Price
			}
		}
	}
	return 0
}

// ServiceDuration returns the scheduled duration in hours for a tier id,
// defaulting to 2 for unknown tiers.
func (c *Catalog) ServiceDuration(tierID string) int {
	if t := c.Tier(tierID); t != nil && t.DurationHours > 0 {
		return t.DurationHours
	}
	return 2
}
