// Command check_catalog validates a catalog file and prints the effective
// price list, so catalog edits can be checked before the server picks them up.
package main

import (
	"flag"
	"fmt"
	"os"

	"brightnest/internal/catalog"
	"brightnest/internal/models"
	"brightnest/internal/pricing"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	catalogPath := flag.String("catalog", "configs/catalog.yaml", "path to catalog.yaml")
	flag.Parse()

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		return err
	}

	fmt.Printf("catalog ok: %d tiers, %d recurrence plans\n", len(cat.Tiers), len(cat.Recurrence))

	for _, tier := range cat.Tiers {
		quote := pricing.Calculate(cat, models.Selection{
			ServiceType:   tier.ID,
			Bedrooms:      1,
			Bathrooms:     1,
			RecurringType: models.RecurringOneTime,
		})
		fmt.Printf("  %-20s base %.2f  1bd/1ba total %.2f\n", tier.ID, tier.BasePrice, quote.Total)
	}

	return nil
}
