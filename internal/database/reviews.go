package database

import (
	"context"
	"fmt"

	"naalli/internal/models"

	"github.com/doug-martin/goqu/v9"
)

var reviewColumns = []interface{}{"id", "booking_id", "student_name", "class_date", "kind", "rating", "comment", "submitted_at"}

// CreateReview stores a review; ErrAlreadyReviewed when the booking already has one.
func (db *DB) CreateReview(ctx context.Context, r *models.Review) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	exists, err := db.hasReview(ctx, tx, r.BookingID)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyReviewed
	}

	ds := db.insert("reviews").Rows(goqu.Record{
		"booking_id":   r.BookingID,
		"student_name": r.StudentName,
		"class_date":   r.ClassDate,
		"kind":         r.Kind,
		"rating":       r.Rating,
		"comment":      r.Comment,
		"submitted_at": db.formatTimestamp(r.SubmittedAt),
	})
	id, err := db.insertID(ctx, tx, ds)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	r.ID = id
	return nil
}

func (db *DB) HasReview(ctx context.Context, bookingID int64) (bool, error) {
	return db.hasReview(ctx, db, bookingID)
}

func (db *DB) hasReview(ctx context.Context, q querier, bookingID int64) (bool, error) {
	query, args, err := db.from("reviews").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"booking_id": bookingID}).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("failed to build query: %w", err)
	}
	var count int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check review: %w", err)
	}
	return count > 0, nil
}

// GetReviewedBookingIDs returns the set of booking ids the student already reviewed.
func (db *DB) GetReviewedBookingIDs(ctx context.Context, studentName string) (map[int64]bool, error) {
	query, args, err := db.from("reviews").
		Select("booking_id").
		Where(goqu.Ex{"student_name": studentName}).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan review id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// GetAllReviews bulk-loads reviews for the quality report.
func (db *DB) GetAllReviews(ctx context.Context) ([]*models.Review, error) {
	query, args, err := db.from("reviews").
		Select(reviewColumns...).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		var (
			r           models.Review
			submittedAt string
		)
		if err := rows.Scan(&r.ID, &r.BookingID, &r.StudentName, &r.ClassDate, &r.Kind, &r.Rating, &r.Comment, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		r.SubmittedAt = db.parseTimestamp(submittedAt)
		reviews = append(reviews, &r)
	}
	return reviews, rows.Err()
}
