package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"consultas/internal/core"
)

func sample() []core.Appointment {
	return []core.Appointment{
		{ID: 7, PatientName: "Bruno Lima", NationalID: "987.654.321-00", Description: "retorno", AmountPaid: core.Money{Cents: 12345}, RecordedAt: "02/03/2025 10:00:00"},
		{ID: 3, PatientName: "Ana Souza", NationalID: "123.456.789-01", AmountPaid: core.Money{Cents: 15000}, RecordedAt: "01/03/2025 09:30:00"},
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per appointment")
	assert.Equal(t, ExportHeader, rows[0])
	assert.Equal(t, []string{"Bruno Lima", "987.654.321-00", "retorno", "123.45", "02/03/2025 10:00:00"}, rows[1])
	assert.Equal(t, "Ana Souza", rows[2][0])
	assert.Equal(t, "150", rows[2][3])

	for _, row := range rows[1:] {
		for _, v := range row {
			assert.NotEqual(t, "7", v, "id must not be exported")
		}
	}
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteReceipt(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReceipt(&buf, "Clínica", sample()[0]))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")), "not a PDF")
	assert.Equal(t, "recibo-7.pdf", ReceiptFilename(7))
}
