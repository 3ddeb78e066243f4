// Package google mirrors bookings and reviews into a Google spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"naalli/internal/export"
	"naalli/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsService rewrites whole tabs; the database stays the source of truth.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewSheetsService authenticates with a service-account JSON key.
func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string) (*SheetsService, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsService{service: srv, spreadsheetID: spreadsheetID}, nil
}

// TestConnection reads the first cell of the bookings tab.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, export.BookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// ServiceAccountEmail returns the address the spreadsheet must be shared with.
func ServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}
	return creds.ClientEmail, nil
}

func (s *SheetsService) ReplaceBookingsSheet(ctx context.Context, bookings []*models.Booking) error {
	return s.replaceSheet(ctx, export.BookingsSheet, export.BookingHeaders, export.BookingRows(bookings))
}

func (s *SheetsService) ReplaceReviewsSheet(ctx context.Context, reviews []*models.Review) error {
	return s.replaceSheet(ctx, export.ReviewsSheet, export.ReviewHeaders, export.ReviewRows(reviews))
}

// replaceSheet clears the tab and writes the header followed by rows.
func (s *SheetsService) replaceSheet(ctx context.Context, sheet string, headers []interface{}, rows [][]interface{}) error {
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, sheet+"!A1:Z", &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s sheet: %w", sheet, err)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	values = append(values, headers)
	values = append(values, rows...)

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, sheet+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s sheet: %w", sheet, err)
	}
	return nil
}
