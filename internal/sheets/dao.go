package sheets

import (
	"context"
	"fmt"
	"strings"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/logger"
)

var (
	usersHeader      = []interface{}{"user_id", "telegram_name", "full_name", "message", "registration_date", "is_admin"}
	attendanceHeader = []interface{}{"Name", "Total"}
)

// EnsureSheets creates the Users and Attendance sheets with their header
// rows when the spreadsheet does not have them yet.
func (c *Client) EnsureSheets(ctx context.Context) error {
	titles, err := c.sheetIDs(ctx)
	if err != nil {
		return apperr.Persistence("list sheets", err)
	}
	for _, s := range []struct {
		title  string
		header []interface{}
	}{
		{c.usersSheet, usersHeader},
		{c.attendanceSheet, attendanceHeader},
	} {
		if _, ok := titles[s.title]; ok {
			continue
		}
		req := &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: []*sheetsv4.Request{{
			AddSheet: &sheetsv4.AddSheetRequest{Properties: &sheetsv4.SheetProperties{Title: s.title}},
		}}}
		if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return apperr.Persistence("add sheet "+s.title, err)
		}
		if err := c.writeRow(ctx, s.title, 1, s.header); err != nil {
			return apperr.Persistence("write header of "+s.title, err)
		}
		logger.Info("sheets: created sheet %q", s.title)
	}
	return nil
}

// sheetIDs maps sheet titles to their numeric ids.
func (c *Client) sheetIDs(ctx context.Context) (map[string]int64, error) {
	ss, err := c.srv.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := map[string]int64{}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			out[sh.Properties.Title] = sh.Properties.SheetId
		}
	}
	return out, nil
}

func (c *Client) readAll(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, quote(sheet)).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, quote(sheet)+"!A:A", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

// writeRow overwrites row rowNum (1-based) starting at column A.
func (c *Client) writeRow(ctx context.Context, sheet string, rowNum int, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A%d", quote(sheet), rowNum), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (c *Client) updateCell(ctx context.Context, sheet, a1 string, value interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{{value}}}
	_, err := c.srv.Spreadsheets.Values.Update(c.spreadsheetID, quote(sheet)+"!"+a1, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// ---------- helpers ----------

func get(row []interface{}, idx int) string {
	if idx < 0 || idx >= len(row) || row[idx] == nil {
		return ""
	}
	return fmt.Sprint(row[idx])
}

// quote makes a sheet title safe to use in A1 notation.
func quote(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// columnLetter turns a 0-based column index into its A1 letters.
func columnLetter(idx int) string {
	s := ""
	for idx >= 0 {
		s = string(rune('A'+idx%26)) + s
		idx = idx/26 - 1
	}
	return s
}
