package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"naalli/internal/models"

	"github.com/doug-martin/goqu/v9"
)

var bookingColumns = []interface{}{"id", "date", "time", "number", "kind", "name", "owner_email", "pin", "created_at"}

func (db *DB) scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	var (
		b         models.Booking
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.Date, &b.Time, &b.Number, &b.Kind, &b.Name, &b.OwnerEmail, &b.Pin, &createdAt); err != nil {
		return nil, err
	}
	b.CreatedAt = db.parseTimestamp(createdAt)
	return &b, nil
}

func slotWhere(key models.SlotKey) goqu.Ex {
	return goqu.Ex{"date": key.Date, "time": key.Time, "number": key.Number, "kind": key.Kind}
}

func (db *DB) queryBookings(ctx context.Context, q querier, ds *goqu.SelectDataset) ([]*models.Booking, error) {
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := db.scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (db *DB) bookingsQuery() *goqu.SelectDataset {
	return db.from("bookings").Select(bookingColumns...)
}

// GetBookingsByDate lists the bookings of a "DD/MM/YYYY" day ordered by time and station.
func (db *DB) GetBookingsByDate(ctx context.Context, date string) ([]*models.Booking, error) {
	return db.queryBookings(ctx, db, db.bookingsQuery().
		Where(goqu.Ex{"date": date}).
		Order(goqu.C("time").Asc(), goqu.C("number").Asc()))
}

// GetBookingsByName lists the bookings of one occupant.
func (db *DB) GetBookingsByName(ctx context.Context, name string) ([]*models.Booking, error) {
	return db.queryBookings(ctx, db, db.bookingsQuery().
		Where(goqu.Ex{"name": name}).
		Order(goqu.C("id").Asc()))
}

// GetAllBookings bulk-loads every booking for analytics. Ordering by calendar date
// is left to callers since dates are stored day-first.
func (db *DB) GetAllBookings(ctx context.Context) ([]*models.Booking, error) {
	return db.queryBookings(ctx, db, db.bookingsQuery().Order(goqu.C("id").Asc()))
}

func (db *DB) GetBookingByID(ctx context.Context, id int64) (*models.Booking, error) {
	query, args, err := db.bookingsQuery().Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	b, err := db.scanBooking(db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetBookingBySlot returns the booking occupying key, or ErrNotFound.
func (db *DB) GetBookingBySlot(ctx context.Context, key models.SlotKey) (*models.Booking, error) {
	return db.getBookingBySlot(ctx, db, key)
}

func (db *DB) getBookingBySlot(ctx context.Context, q querier, key models.SlotKey) (*models.Booking, error) {
	query, args, err := db.bookingsQuery().Where(slotWhere(key)).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	b, err := db.scanBooking(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// CreateBooking inserts b unless its slot is already taken (ErrSlotTaken). The check and
// the insert share a transaction and the slot columns carry a unique index, so concurrent
// callers cannot both succeed.
func (db *DB) CreateBooking(ctx context.Context, b *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	if _, err := db.getBookingBySlot(ctx, tx, b.Key()); err == nil {
		return ErrSlotTaken
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	ds := db.insert("bookings").Rows(goqu.Record{
		"date":        b.Date,
		"time":        b.Time,
		"number":      b.Number,
		"kind":        b.Kind,
		"name":        b.Name,
		"owner_email": models.NormalizeEmail(b.OwnerEmail),
		"pin":         b.Pin,
		"created_at":  db.formatTimestamp(b.CreatedAt),
	})
	id, err := db.insertID(ctx, tx, ds)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	b.ID = id
	b.OwnerEmail = models.NormalizeEmail(b.OwnerEmail)
	return nil
}

// DeleteBooking frees a slot. ErrNotFound when nothing occupies it; ErrPermissionDenied
// when pin does not match the stored one and bypass (run on the row read inside the
// transaction) does not grant the release. A nil bypass means PIN only.
func (db *DB) DeleteBooking(ctx context.Context, key models.SlotKey, pin string, bypass func(*models.Booking) bool) (*models.Booking, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	b, err := db.getBookingBySlot(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	if (bypass == nil || !bypass(b)) && (b.Pin == "" || b.Pin != pin) {
		return nil, ErrPermissionDenied
	}

	query, args, err := db.deleteFrom("bookings").Where(goqu.Ex{"id": b.ID}).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("failed to delete booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit delete: %w", err)
	}
	return b, nil
}

// InsertBookings bulk-inserts rows as-is, skipping occupied slots. Used by the seeder.
func (db *DB) InsertBookings(ctx context.Context, bookings []*models.Booking) (int, error) {
	inserted := 0
	for _, b := range bookings {
		err := db.CreateBooking(ctx, b)
		if errors.Is(err, ErrSlotTaken) {
			continue
		}
		if err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
