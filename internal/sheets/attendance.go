package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	sheetsv4 "google.golang.org/api/sheets/v4"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/models"
	"training-roster-bot/internal/roster"
)

// ---------- Attendance ----------
// Name | Total | DD.MM.YYYY | DD.MM.YYYY | ...

const (
	totalCol     = 1
	firstDateCol = 2

	markPlayer = "1"
	markGoalie = "G"
)

// RecordAttendance marks (or clears) the cell of personID for date and
// refreshes the person's total.
func (c *Client) RecordAttendance(ctx context.Context, personID int64, date time.Time, present bool, role models.Role) error {
	p, err := c.GetUserRecord(ctx, personID)
	if err != nil {
		return err
	}
	if p == nil {
		return apperr.NotFound("user %d is not registered", personID)
	}
	name := strings.TrimSpace(p.Message)
	sheet := c.attendanceSheet

	values, err := c.readAll(ctx, sheet)
	if err != nil {
		return apperr.Persistence("read attendance", err)
	}
	if len(values) == 0 {
		if err := c.writeRow(ctx, sheet, 1, attendanceHeader); err != nil {
			return apperr.Persistence("write attendance header", err)
		}
		values = [][]interface{}{attendanceHeader}
	}

	key := roster.DateKey(date)
	col := findColumn(values[0], key)
	if col < 0 {
		col = len(values[0])
		if col < firstDateCol {
			col = firstDateCol
		}
		if err := c.updateCell(ctx, sheet, columnLetter(col)+"1", key); err != nil {
			return apperr.Persistence("add date column", err)
		}
	}

	rowNum := findRow(values, name)
	var row []interface{}
	if rowNum == 0 {
		rowNum = len(values) + 1
		row = []interface{}{name}
		if err := c.writeRow(ctx, sheet, rowNum, row); err != nil {
			return apperr.Persistence("add attendance row", err)
		}
	} else {
		row = append([]interface{}(nil), values[rowNum-1]...)
	}

	mark := attendanceMark(present, role)
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = mark
	if err := c.updateCell(ctx, sheet, fmt.Sprintf("%s%d", columnLetter(col), rowNum), mark); err != nil {
		return apperr.Persistence("mark attendance", err)
	}
	if err := c.updateCell(ctx, sheet, fmt.Sprintf("%s%d", columnLetter(totalCol), rowNum), countMarks(row)); err != nil {
		return apperr.Persistence("update total", err)
	}
	logger.Debug("sheets: %s on %s = %q", name, key, mark)
	return nil
}

// CancelTrainingDate removes the column of date and recounts every total.
// It reports false when the sheet has no such column.
func (c *Client) CancelTrainingDate(ctx context.Context, date time.Time) (bool, error) {
	sheet := c.attendanceSheet
	values, err := c.readAll(ctx, sheet)
	if err != nil {
		return false, apperr.Persistence("read attendance", err)
	}
	if len(values) == 0 {
		return false, nil
	}
	col := findColumn(values[0], roster.DateKey(date))
	if col < firstDateCol {
		return false, nil
	}

	ids, err := c.sheetIDs(ctx)
	if err != nil {
		return false, apperr.Persistence("list sheets", err)
	}
	sheetID, ok := ids[sheet]
	if !ok {
		return false, apperr.Persistence("find attendance sheet", fmt.Errorf("sheet %q is missing", sheet))
	}
	req := &sheetsv4.BatchUpdateSpreadsheetRequest{Requests: []*sheetsv4.Request{{
		DeleteDimension: &sheetsv4.DeleteDimensionRequest{Range: &sheetsv4.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "COLUMNS",
			StartIndex: int64(col),
			EndIndex:   int64(col + 1),
		}},
	}}}
	if _, err := c.srv.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, apperr.Persistence("delete date column", err)
	}

	values, err = c.readAll(ctx, sheet)
	if err != nil {
		return true, apperr.Persistence("re-read attendance", err)
	}
	totals := recountTotals(values)
	if len(totals) == 0 {
		return true, nil
	}
	col1 := columnLetter(totalCol)
	vr := &sheetsv4.ValueRange{Values: totals}
	_, err = c.srv.Spreadsheets.Values.Update(c.spreadsheetID,
		fmt.Sprintf("%s!%s2:%s%d", quote(sheet), col1, col1, len(totals)+1), vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return true, apperr.Persistence("recount totals", err)
	}
	return true, nil
}

func attendanceMark(present bool, role models.Role) string {
	switch {
	case !present:
		return ""
	case role == models.RoleGoalie:
		return markGoalie
	default:
		return markPlayer
	}
}

func findColumn(header []interface{}, key string) int {
	for i := range header {
		if strings.TrimSpace(get(header, i)) == key {
			return i
		}
	}
	return -1
}

// findRow returns the 1-based sheet row of name, or 0.
func findRow(values [][]interface{}, name string) int {
	for i := 1; i < len(values); i++ {
		if strings.TrimSpace(get(values[i], 0)) == name {
			return i + 1
		}
	}
	return 0
}

// countMarks counts the non-empty date cells of a row.
func countMarks(row []interface{}) int {
	n := 0
	for i := firstDateCol; i < len(row); i++ {
		if strings.TrimSpace(get(row, i)) != "" {
			n++
		}
	}
	return n
}

// recountTotals returns the Total column for every data row.
func recountTotals(values [][]interface{}) [][]interface{} {
	out := make([][]interface{}, 0, len(values))
	for i := 1; i < len(values); i++ {
		out = append(out, []interface{}{countMarks(values[i])})
	}
	return out
}
