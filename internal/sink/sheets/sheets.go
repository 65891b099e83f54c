// Package sheets publishes summary tables to a Google spreadsheet, one tab
// per table. Each write clears the tab before filling it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"grantstats/internal/core"
	applog "grantstats/internal/log"
	"grantstats/internal/sink"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ sink.TableWriter = (*Client)(nil)

// New creates a client for spreadsheetID authenticated with the service
// account found in the environment.
func New(ctx context.Context, spreadsheetID string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON, err := serviceAccountCredentials()
	if err != nil {
		return nil, err
	}

	applog.Default(applog.ComponentSheets).DebugContext(ctx, "Creating Google Sheets service with Service Account",
		applog.NewFields().
			WithOperation(applog.OpStartup).
			With("credentials_size", len(credentialsJSON)).
			With("scope", gsheet.SpreadsheetsScope).
			ToSlice()...)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func serviceAccountCredentials() ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case serviceAccountJSON != "":
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) Name() string { return "sheets" }

func (c *Client) Close() error { return nil }

// WriteTables overwrites one tab per table, creating missing tabs first.
func (c *Client) WriteTables(ctx context.Context, tables []core.Table) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	existing := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing = append(existing, s.Properties.Title)
		}
	}

	if missing := missingTabs(existing, tables); len(missing) > 0 {
		reqs := make([]*gsheet.Request, 0, len(missing))
		for _, title := range missing {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
			})
		}
		if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID,
			&gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do(); err != nil {
			return fmt.Errorf("add tabs %v: %w", missing, err)
		}
	}

	ranges := make([]string, 0, len(tables))
	data := make([]*gsheet.ValueRange, 0, len(tables))
	for _, t := range tables {
		rng := tabRange(t.Kind)
		ranges = append(ranges, rng)
		data = append(data, &gsheet.ValueRange{Range: rng, Values: buildValues(t)})
	}

	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID,
		&gsheet.BatchClearValuesRequest{Ranges: ranges}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tabs: %w", err)
	}

	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID,
		&gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW", Data: data}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update tabs: %w", err)
	}

	applog.Default(applog.ComponentSheets).InfoContext(ctx, "Summary tables published to Google Sheets",
		applog.NewFields().
			WithOperation(applog.OpWrite).
			With("spreadsheet", c.spreadsheetID).
			With("tables", len(tables)).
			With("cells", resp.TotalUpdatedCells).
			ToSlice()...)
	return nil
}

func tabRange(kind core.TableKind) string {
	return fmt.Sprintf("'%s'!A1", kind)
}

// missingTabs returns the table tabs not yet present, in table order.
func missingTabs(existing []string, tables []core.Table) []string {
	have := make(map[string]bool, len(existing))
	for _, title := range existing {
		have[title] = true
	}
	var out []string
	for _, t := range tables {
		if !have[string(t.Kind)] {
			out = append(out, string(t.Kind))
			have[string(t.Kind)] = true
		}
	}
	return out
}

// buildValues lays out a table as a header row followed by its records.
// Amounts and percentages are sent as numbers so the sheet can chart them.
func buildValues(t core.Table) [][]interface{} {
	values := make([][]interface{}, 0, len(t.Rows)+1)
	header := t.Kind.Header()
	hr := make([]interface{}, len(header))
	for i, h := range header {
		hr[i] = h
	}
	values = append(values, hr)

	for _, r := range t.Rows {
		row := []interface{}{r.Sector}
		if t.Kind.HasYear() {
			if r.Year.Known() {
				row = append(row, r.Year.Value())
			} else {
				row = append(row, "")
			}
		}
		if t.Kind.HasGrantee() {
			row = append(row, r.Grantee)
		}
		row = append(row, r.Amount.InexactFloat64())
		if r.Percentage.Valid {
			row = append(row, r.Percentage.Decimal.InexactFloat64())
		} else {
			row = append(row, "")
		}
		values = append(values, row)
	}
	return values
}
