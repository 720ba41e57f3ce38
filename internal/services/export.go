package services

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dayledger/backend/internal/middleware"
	"github.com/dayledger/backend/internal/models"
)

// DownloadExcel streams the (optionally filtered) day book as a workbook
// @Summary Download day book as spreadsheet
// @Description Export entries as an .xlsx attachment; same filters as the listing
// @Tags daybook
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param type query string false "Payment type filter"
// @Param start_date query string false "Window start (YYYY-MM-DD)"
// @Param end_date query string false "Window end (YYYY-MM-DD)"
// @Success 200 {file} binary "Workbook"
// @Router /daybook/download/excel [get]
func (s *DayBookService) DownloadExcel(w http.ResponseWriter, r *http.Request) {
	caller := middleware.IdentityFrom(r.Context())

	filter, err := listFilterFromQuery(r)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}

	entries, err := s.queryEntries(r.Context(), caller, filter)
	if err != nil {
		log.Printf("[DAYBOOK] Export query failed: %v", err)
		SendErrorResponse(w, "Failed to fetch day book entries", http.StatusInternalServerError, nil)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "DayBook"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"ID", "Date", "Amount", "Payment Type", "Pay Status", "Mode Of Pay",
		"Description", "Nurse ID", "Client ID", "Tenant", "Receipt"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	for i, e := range entries {
		mode := ""
		if e.ModeOfPay != nil {
			mode = string(*e.ModeOfPay)
		}
		values := []any{e.ID, e.CreatedAt.Format("2006-01-02 15:04"), e.Amount,
			string(e.PaymentType), string(e.PayStatus), mode, deref(e.Description),
			deref(e.NurseID), deref(e.ClientID), string(e.Tenant), deref(e.Receipt)}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// Totals row: paid and pending partitions, same arithmetic as the
	// payment summary endpoint.
	var paid, pending float64
	for _, e := range entries {
		if e.PayStatus == models.StatusPaid {
			paid += e.Amount
		} else {
			pending += e.Amount
		}
	}
	totalRow := len(entries) + 3
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	f.SetCellValue(sheet, cell, "Total Paid")
	cell, _ = excelize.CoordinatesToCellName(2, totalRow)
	f.SetCellValue(sheet, cell, paid)
	cell, _ = excelize.CoordinatesToCellName(3, totalRow)
	f.SetCellValue(sheet, cell, "Total Pending")
	cell, _ = excelize.CoordinatesToCellName(4, totalRow)
	f.SetCellValue(sheet, cell, pending)

	filename := fmt.Sprintf("daybook_%s.xlsx", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(w); err != nil {
		log.Printf("[DAYBOOK] Workbook write failed: %v", err)
	}
}
