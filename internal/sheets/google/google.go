package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"consultas/internal/core"
	ports "consultas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const lastColumn = "F"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var _ ports.AppointmentMirror = (*Client)(nil)

// New creates a Sheets mirror for sheetName in spreadsheetID. Extra options
// are passed to the Sheets service; without them credentials come from the
// environment, see ClientOptions.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Consultas"
	}

	if len(opts) == 0 {
		var err error
		if opts, err = ClientOptions(ctx); err != nil {
			return nil, err
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName)

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// Upsert writes a into the row already holding its id, or appends a new row.
func (c *Client) Upsert(ctx context.Context, a core.Appointment) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows, used, err := c.idRows(ctx)
	if err != nil {
		return err
	}
	if used == 0 {
		if err := c.writeRow(ctx, 1, ports.MirrorHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	values := appointmentRow(a)
	if row, ok := rows[a.ID]; ok {
		if err := c.writeRow(ctx, row, values); err != nil {
			return fmt.Errorf("update appointment %d: %w", a.ID, err)
		}
		slog.InfoContext(ctx, "Updated appointment in sheet", "id", a.ID, "row", row)
		return nil
	}

	rng := fmt.Sprintf("%s!A:%s", c.sheetName, lastColumn)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append appointment %d to %s: %w", a.ID, c.sheetName, err)
	}
	slog.InfoContext(ctx, "Appended appointment to sheet", "id", a.ID)
	return nil
}

// Remove clears the row of every id present in the sheet.
func (c *Client) Remove(ctx context.Context, ids []int64) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows, _, err := c.idRows(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		row, ok := rows[id]
		if !ok {
			slog.DebugContext(ctx, "Appointment not in sheet, nothing to clear", "id", id)
			continue
		}
		rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("clear %s: %w", rng, err)
		}
		slog.InfoContext(ctx, "Cleared appointment from sheet", "id", id, "row", row)
	}
	return nil
}

// idRows maps appointment id to its 1-based row number using column A, and
// reports how many rows the column spans.
func (c *Client) idRows(ctx context.Context) (map[int64]int, int, error) {
	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseIDColumn(resp.Values), len(resp.Values), nil
}

func (c *Client) writeRow(ctx context.Context, row int, values []any) error {
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, row, lastColumn, row)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: [][]any{values}}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// parseIDColumn skips the header and any blank or non-numeric cells. Row
// numbers count every entry, so cleared rows keep their position.
func parseIDColumn(values [][]any) map[int64]int {
	out := make(map[int64]int, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(fmt.Sprint(row[0])), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		out[id] = i + 1
	}
	return out
}

func appointmentRow(a core.Appointment) []any {
	return []any{a.ID, a.PatientName, a.NationalID, a.Description, a.AmountPaid.Reais(), a.RecordedAt}
}
