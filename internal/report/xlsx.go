// Package report renders appointments into downloadable documents.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"consultas/internal/core"
)

const (
	SheetName        = "Consultas"
	ExportFilename   = "consultas.xlsx"
	XLSXContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	amountColumn     = "D"
	firstDataRow     = 2
	brlAccountingFmt = `"R$" #,##0.00`
)

// ExportHeader is the first row of the export. The id column is omitted.
var ExportHeader = []string{"Paciente", "CPF", "Descrição", "Valor pago", "Data/hora"}

// WriteXLSX writes one row per appointment, in the order given, to w.
func WriteXLSX(w io.Writer, appointments []core.Appointment) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, a := range appointments {
		cell, err := excelize.CoordinatesToCellName(1, firstDataRow+i)
		if err != nil {
			return err
		}
		row := []interface{}{a.PatientName, a.NationalID, a.Description, a.AmountPaid.Reais(), a.RecordedAt}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+firstDataRow, err)
		}
	}

	if len(appointments) > 0 {
		money, err := f.NewStyle(&excelize.Style{CustomNumFmt: strPtr(brlAccountingFmt)})
		if err != nil {
			return fmt.Errorf("amount style: %w", err)
		}
		last := firstDataRow + len(appointments) - 1
		if err := f.SetCellStyle(SheetName,
			fmt.Sprintf("%s%d", amountColumn, firstDataRow),
			fmt.Sprintf("%s%d", amountColumn, last), money); err != nil {
			return fmt.Errorf("apply amount style: %w", err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 32); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "C", "C", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 20); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
