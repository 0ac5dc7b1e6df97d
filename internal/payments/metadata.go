package payments

import (
	"fmt"
	"strconv"

	"brightnest/internal/models"
)

// Checkout metadata keys. The session and subscription carry the full
// booking context so the webhook can rebuild the record without trusting
// anything else.
const (
	metaName          = "customer_name"
	metaEmail         = "customer_email"
	metaPhone         = "customer_phone"
	metaAddress       = "service_address"
	metaScheduledDate = "scheduled_date"
	metaScheduledTime = "scheduled_time"
	metaNotes         = "notes"
	metaAmount        = "amount"

	metaServiceType   = "service_type"
	metaRecurringType = "recurring_type"
	metaBedrooms      = "bedrooms"
	metaBathrooms     = "bathrooms"

	metaOven             = "oven_cleaning"
	metaOvenCount        = "oven_count"
	metaMicrowave        = "microwave_dishwasher_cleaning"
	metaMicrowaveCount   = "microwave_dishwasher_count"
	metaRefrigerator     = "refrigerator_cleaning"
	metaRefrigeratorNum  = "refrigerator_count"
	metaWalls            = "wall_cleaning"
	metaWallRooms        = "wall_rooms_count"
	metaInteriorWindows  = "interior_window_cleaning"
	metaExteriorWindows  = "exterior_window_cleaning"
	metaExteriorWinCount = "exterior_windows_count"
	metaLaundry          = "laundry_service"
	metaLaundryLoads     = "laundry_loads"
	metaMakeBeds         = "make_beds"
	metaBedsCount        = "beds_count"
	metaTrash            = "trash_removal"
	metaTrashBags        = "trash_bags"
)

// EncodeMetadata flattens the booking context into Stripe metadata strings.
func EncodeMetadata(info models.CustomerInfo, sel models.Selection, amount float64) map[string]string {
	return map[string]string{
		metaName:          info.Name,
		metaEmail:         info.Email,
		metaPhone:         info.Phone,
		metaAddress:       info.Address,
		metaScheduledDate: info.ScheduledDate,
		metaScheduledTime: info.ScheduledTime,
		metaNotes:         info.Notes,
		metaAmount:        strconv.FormatFloat(amount, 'f', 2, 64),

		metaServiceType:   sel.ServiceType,
		metaRecurringType: sel.RecurringType,
		metaBedrooms:      strconv.Itoa(sel.Bedrooms),
		metaBathrooms:     strconv.FormatFloat(sel.Bathrooms, 'f', -1, 64),

		metaOven:             strconv.FormatBool(sel.OvenCleaning),
		metaOvenCount:        strconv.Itoa(sel.OvenCount),
		metaMicrowave:        strconv.FormatBool(sel.MicrowaveDishwasherCleaning),
		metaMicrowaveCount:   strconv.Itoa(sel.MicrowaveDishwasherCount),
		metaRefrigerator:     strconv.FormatBool(sel.RefrigeratorCleaning),
		metaRefrigeratorNum:  strconv.Itoa(sel.RefrigeratorCount),
		metaWalls:            strconv.FormatBool(sel.WallCleaning),
		metaWallRooms:        strconv.Itoa(sel.WallRoomsCount),
		metaInteriorWindows:  strconv.FormatBool(sel.InteriorWindowCleaning),
		metaExteriorWindows:  strconv.FormatBool(sel.ExteriorWindowCleaning),
		metaExteriorWinCount: strconv.Itoa(sel.ExteriorWindowsCount),
		metaLaundry:          strconv.FormatBool(sel.LaundryService),
		metaLaundryLoads:     strconv.Itoa(sel.LaundryLoads),
		metaMakeBeds:         strconv.FormatBool(sel.MakeBeds),
		metaBedsCount:        strconv.Itoa(sel.BedsCount),
		metaTrash:            strconv.FormatBool(sel.TrashRemoval),
		metaTrashBags:        strconv.Itoa(sel.TrashBags),
	}
}

// BookingContext is the typed form of checkout metadata.
type BookingContext struct {
	Customer  models.CustomerInfo
	Selection models.Selection
	Amount    float64
}

// DecodeMetadata parses Stripe metadata back into the typed booking context.
// Metadata is external input: missing keys fall back to zero values and the
// selection is normalized, but a present-but-malformed number is an error.
func DecodeMetadata(md map[string]string) (BookingContext, error) {
	var bc BookingContext

	bc.Customer = models.CustomerInfo{
		Name:          md[metaName],
		Email:         md[metaEmail],
		Phone:         md[metaPhone],
		Address:       md[metaAddress],
		ScheduledDate: md[metaScheduledDate],
		ScheduledTime: md[metaScheduledTime],
		Notes:         md[metaNotes],
	}

	var err error
	if bc.Amount, err = parseFloat(md, metaAmount); err != nil {
		return bc, err
	}

	sel := &bc.Selection
	sel.ServiceType = md[metaServiceType]
	sel.RecurringType = md[metaRecurringType]
	if sel.Bedrooms, err = parseInt(md, metaBedrooms); err != nil {
		return bc, err
	}
	if sel.Bathrooms, err = parseFloat(md, metaBathrooms); err != nil {
		return bc, err
	}

	bools := map[string]*bool{
		metaOven:            &sel.OvenCleaning,
		metaMicrowave:       &sel.MicrowaveDishwasherCleaning,
		metaRefrigerator:    &sel.RefrigeratorCleaning,
		metaWalls:           &sel.WallCleaning,
		metaInteriorWindows: &sel.InteriorWindowCleaning,
		metaExteriorWindows: &sel.ExteriorWindowCleaning,
		metaLaundry:         &sel.LaundryService,
		metaMakeBeds:        &sel.MakeBeds,
		metaTrash:           &sel.TrashRemoval,
	}
	for key, dst := range bools {
		if *dst, err = parseBool(md, key); err != nil {
			return bc, err
		}
	}

	ints := map[string]*int{
		metaOvenCount:        &sel.OvenCount,
		metaMicrowaveCount:   &sel.MicrowaveDishwasherCount,
		metaRefrigeratorNum:  &sel.RefrigeratorCount,
		metaWallRooms:        &sel.WallRoomsCount,
		metaExteriorWinCount: &sel.ExteriorWindowsCount,
		metaLaundryLoads:     &sel.LaundryLoads,
		metaBedsCount:        &sel.BedsCount,
		metaTrashBags:        &sel.TrashBags,
	}
	for key, dst := range ints {
		if *dst, err = parseInt(md, key); err != nil {
			return bc, err
		}
	}

	sel.Normalize()
	return bc, nil
}

func parseInt(md map[string]string, key string) (int, error) {
	raw, ok := md[key]
	if !ok || raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("metadata %s: %w", key, err)
	}
	return n, nil
}

func parseFloat(md map[string]string, key string) (float64, error) {
	raw, ok := md[key]
	if !ok || raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("metadata %s: %w", key, err)
	}
	return f, nil
}

func parseBool(md map[string]string, key string) (bool, error) {
	raw, ok := md[key]
	if !ok || raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("metadata %s: %w", key, err)
	}
	return b, nil
}
