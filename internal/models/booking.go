package models

import (
	"fmt"
	"time"
)

type Booking struct {
	ID         int64     `json:"id"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Number     int       `json:"number"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	OwnerEmail string    `json:"owner_email,omitempty"`
	Pin        string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

// SlotKey identifies one bookable station at one date and hour.
type SlotKey struct {
	Date   string `json:"date"`
	Time   string `json:"time"`
	Number int    `json:"number"`
	Kind   string `json:"kind"`
}

func (k SlotKey) String() string {
	return fmt.Sprintf("%s %s %s#%d", k.Date, k.Time, k.Kind, k.Number)
}

func (b *Booking) Key() SlotKey {
	return SlotKey{Date: b.Date, Time: b.Time, Number: b.Number, Kind: b.Kind}
}

// Moment parses the booking's date and time in loc.
func (b *Booking) Moment(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" "+TimeLayout, b.Date+" "+b.Time, loc)
}

// OwnedBy reports whether the booking belongs to the given user. Rows without an
// owner e-mail (seeded or legacy) fall back to the occupant name.
func (b *Booking) OwnedBy(email, name string) bool {
	if b.OwnerEmail != "" {
		return b.OwnerEmail == NormalizeEmail(email)
	}
	return name != "" && b.Name == name
}

// Slot is one entry of the per-hour station catalog.
type Slot struct {
	Number int    `json:"number"`
	Kind   string `json:"kind"`
}
