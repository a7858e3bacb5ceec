// Package google implements the EntryStore against the Google Sheets API v4
// using service-account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"fumo/internal/core"
	"fumo/internal/sheets"

	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string

	// sheetId is required by row-dimension requests and never changes for a
	// given sheet, so it is resolved once and cached.
	mu      sync.Mutex
	sheetID int64
	haveID  bool
}

var _ sheets.EntryStore = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service-account credentials in
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional: GOOGLE_SHEET_NAME (default "Entries").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Entries"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ListAll reads every data row below the header. Parsing is best-effort: a
// malformed cell becomes its zero sentinel and the row is still returned.
func (c *Client) ListAll(ctx context.Context) ([]core.Entry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A2:K", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("read %s", rng), err)
	}
	return entriesFromValues(resp.Values), nil
}

// Append writes one new physical row at the end of the sheet.
func (c *Client) Append(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:K", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(e)}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", classify(fmt.Errorf("append to %s", c.sheetName), err)
	}
	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended entry row", "ref", ref, "brand", e.Brand, "total_cents", e.TotalCost.Cents)
	return ref, nil
}

// Replace overwrites one data row. The Sheets API has no atomic full-row
// replace here, so this is delete-then-insert followed by a value write and a
// read-back check; a failure after the delete surfaces as *PartialReplaceError
// because the original row is already gone.
func (c *Client) Replace(ctx context.Context, physicalRow int, e core.Entry) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	// Delete the target row and insert a blank one at the same position in a
	// single batch so the sheet never changes length.
	batch := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{
			{DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: rowRange(sheetID, physicalRow),
			}},
			{InsertDimension: &gsheet.InsertDimensionRequest{
				Range:             rowRange(sheetID, physicalRow),
				InheritFromBefore: false,
			}},
		},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, batch).Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("replace row %d", physicalRow), err)
	}

	rng := fmt.Sprintf("%s!A%d:K%d", c.sheetName, physicalRow, physicalRow)
	vr := &gsheet.ValueRange{Values: [][]any{rowValues(e)}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		// The old row is deleted and the new values never landed.
		return &sheets.PartialReplaceError{Row: physicalRow, Err: classify(fmt.Errorf("write %s", rng), err)}
	}

	// Read-back reconciliation: confirm the row now carries the new entry.
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		slog.WarnContext(ctx, "Replace read-back failed", "row", physicalRow, "error", err)
		return nil
	}
	if len(resp.Values) == 0 || parseEntry(toStrings(resp.Values[0])).Date.String() != e.Date.String() {
		return &sheets.PartialReplaceError{Row: physicalRow, Err: errors.New("read-back mismatch after replace")}
	}
	slog.InfoContext(ctx, "Replaced entry row", "row", physicalRow, "brand", e.Brand)
	return nil
}

// Remove deletes one data row; the API shifts all following rows up by one.
func (c *Client) Remove(ctx context.Context, physicalRow int) error {
	if err := sheets.CheckDataRow(physicalRow); err != nil {
		return err
	}
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}
	batch := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{
			{DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: rowRange(sheetID, physicalRow),
			}},
		},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, batch).Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("remove row %d", physicalRow), err)
	}
	slog.InfoContext(ctx, "Removed entry row", "row", physicalRow)
	return nil
}

// EnsureHeader verifies row 1 carries the canonical schema, writing it when
// the sheet is empty. A conflicting existing header is an error, not something
// to silently overwrite.
func (c *Client) EnsureHeader(ctx context.Context) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A1:K1", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return classify(fmt.Errorf("read header %s", rng), err)
	}
	if len(resp.Values) > 0 {
		got := toStrings(resp.Values[0])
		for i, want := range sheets.Header {
			if i >= len(got) || !strings.EqualFold(strings.TrimSpace(got[i]), want) {
				return fmt.Errorf("header mismatch at column %d: got %v, want %v", i+1, got, sheets.Header)
			}
		}
		return nil
	}
	header := make([]any, len(sheets.Header))
	for i, h := range sheets.Header {
		header[i] = h
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return classify(fmt.Errorf("write header %s", rng), err)
	}
	slog.InfoContext(ctx, "Wrote header row", "sheet", c.sheetName)
	return nil
}

func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.haveID {
		return c.sheetID, nil
	}
	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, classify(errors.New("get spreadsheet metadata"), err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			c.sheetID = sh.Properties.SheetId
			c.haveID = true
			return c.sheetID, nil
		}
	}
	return 0, fmt.Errorf("%w: sheet %q", sheets.ErrStoreNotFound, c.sheetName)
}

// rowRange is the zero-based, end-exclusive dimension range for one physical row.
func rowRange(sheetID int64, physicalRow int) *gsheet.DimensionRange {
	return &gsheet.DimensionRange{
		SheetId:    sheetID,
		Dimension:  "ROWS",
		StartIndex: int64(physicalRow - 1),
		EndIndex:   int64(physicalRow),
	}
}

// classify maps a Sheets API error onto the typed store failures. Nothing is
// retried; the caller reports the failure to the user.
func classify(op error, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401:
			return fmt.Errorf("%s: %w: %s", op, sheets.ErrAuth, apiErr.Message)
		case apiErr.Code == 403:
			return fmt.Errorf("%s: %w: %s", op, sheets.ErrPermissionDenied, apiErr.Message)
		case apiErr.Code == 404:
			return fmt.Errorf("%s: %w: %s", op, sheets.ErrStoreNotFound, apiErr.Message)
		case apiErr.Code == 429:
			return fmt.Errorf("%s: %w: %s", op, sheets.ErrRateLimited, apiErr.Message)
		case apiErr.Code >= 500:
			return fmt.Errorf("%s: %w: %s", op, sheets.ErrStoreUnavailable, apiErr.Message)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, sheets.ErrStoreUnavailable, err)
}
