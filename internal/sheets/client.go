package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Client talks to the spreadsheet holding the Users and Attendance sheets.
type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string

	usersSheet      string
	attendanceSheet string
}

func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID, usersSheet, attendanceSheet string) (*Client, error) {
	if _, err := os.Stat(serviceAccountJSONPath); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(serviceAccountJSONPath),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{
		srv:             srv,
		spreadsheetID:   spreadsheetID,
		usersSheet:      usersSheet,
		attendanceSheet: attendanceSheet,
	}, nil
}
