package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"brightnest/internal/database"
	"brightnest/internal/models"
)

// handleAdminExport streams the booking list as an Excel workbook.
func (s *Server) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	filter := database.BookingFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}
	bookings, err := s.store.ListBookings(r.Context(), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("export listing failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	f, err := buildBookingsWorkbook(bookings)
	if err != nil {
		s.logger.Error().Err(err).Msg("building export workbook failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName+`"`)

	if _, err := f.WriteTo(w); err != nil {
		s.logger.Error().Err(err).Msg("writing export failed")
	}
}

func buildBookingsWorkbook(bookings []models.Booking) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheetName = "Bookings"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Reference", "Customer", "Email", "Phone", "Address",
		"Service", "Date", "Time", "Plan", "Amount", "Status", "Created",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.Reference,
			b.CustomerName,
			b.CustomerEmail,
			b.CustomerPhone,
			b.ServiceAddress,
			b.ServiceType,
			b.ScheduledDate,
			b.ScheduledTime,
			b.RecurringType,
			b.Amount,
			b.Status,
			b.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "C", 24)
	_ = f.SetColWidth(sheetName, "D", "E", 20)
	_ = f.SetColWidth(sheetName, "F", "L", 14)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}
