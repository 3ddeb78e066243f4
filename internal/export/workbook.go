// Package export renders bookings and reviews as spreadsheet rows and XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"naalli/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	BookingsSheet = "Agendamentos"
	ReviewsSheet  = "Avaliacoes"
)

var (
	BookingHeaders = []interface{}{"ID", "Data", "Horario", "Numero", "Tipo", "Nome", "Criado em"}
	ReviewHeaders  = []interface{}{"ID", "Agendamento", "Aluno", "Data Aula", "Modalidade", "Nota", "Comentario", "Avaliado em"}
)

func BookingRow(b *models.Booking) []interface{} {
	return []interface{}{b.ID, b.Date, b.Time, b.Number, b.Kind, b.Name, formatTimestamp(b.CreatedAt)}
}

func ReviewRow(r *models.Review) []interface{} {
	return []interface{}{r.ID, r.BookingID, r.StudentName, r.ClassDate, r.Kind, r.Rating, r.Comment, formatTimestamp(r.SubmittedAt)}
}

// BookingRows returns data rows without the header.
func BookingRows(bookings []*models.Booking) [][]interface{} {
	rows := make([][]interface{}, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, BookingRow(b))
	}
	return rows
}

func ReviewRows(reviews []*models.Review) [][]interface{} {
	rows := make([][]interface{}, 0, len(reviews))
	for _, r := range reviews {
		rows = append(rows, ReviewRow(r))
	}
	return rows
}

// WriteWorkbook writes an XLSX file with one sheet for bookings and one for reviews.
func WriteWorkbook(w io.Writer, title string, bookings []*models.Booking, reviews []*models.Review) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(BookingsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	if _, err := f.NewSheet(ReviewsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}
	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return fmt.Errorf("error creating style: %w", err)
	}

	if err := writeSheet(f, BookingsSheet, title, BookingHeaders, BookingRows(bookings), titleStyle, headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, ReviewsSheet, title, ReviewHeaders, ReviewRows(reviews), titleStyle, headerStyle); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// writeSheet puts the title in row 1, headers in row 2 and data from row 3.
func writeSheet(f *excelize.File, sheet, title string, headers []interface{}, rows [][]interface{}, titleStyle, headerStyle int) error {
	if err := f.SetCellValue(sheet, "A1", title); err != nil {
		return fmt.Errorf("error writing title: %w", err)
	}
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)

	if err := f.SetSheetRow(sheet, "A2", &headers); err != nil {
		return fmt.Errorf("error writing headers: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 2)
	_ = f.SetCellStyle(sheet, "A2", lastHeader, headerStyle)

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+3)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("error writing row %d: %w", i+3, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", lastCol, 16)
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.TimestampLayout)
}
