package report

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"consultas/internal/core"
)

// ReceiptFilename is the download name for the receipt of appointment id.
func ReceiptFilename(id int64) string {
	return fmt.Sprintf("recibo-%d.pdf", id)
}

// WriteReceipt renders a one-page A4 payment receipt for a.
func WriteReceipt(w io.Writer, clinic string, a core.Appointment) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(fmt.Sprintf("Recibo %d", a.ID)), false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(clinic))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 10, tr("Recibo de pagamento"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 8, tr(label))
		pdf.SetFont("Arial", "", 12)
		pdf.MultiCell(0, 8, tr(value), "", "L", false)
	}
	line("Recibo nº:", fmt.Sprintf("%d", a.ID))
	line("Data/hora:", a.RecordedAt)
	line("Paciente:", a.PatientName)
	line("CPF:", a.NationalID)
	if a.Description != "" {
		line("Descrição:", a.Description)
	}
	line("Valor pago:", a.AmountPaid.BRL())

	pdf.Ln(20)
	pdf.Cell(0, 8, "______________________________________")
	pdf.Ln(8)
	pdf.Cell(0, 8, tr("Assinatura"))

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return nil
}
