package models

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Station kinds. The values are persisted as-is and shown to users.
const (
	KindStrength   = "Treino"
	KindTreadmill  = "Esteira"
	KindElliptical = "Elíptico"
)

// Kinds lists station kinds in display order.
var Kinds = []string{KindStrength, KindTreadmill, KindElliptical}

const (
	// DateLayout is the day-first layout bookings are stored with.
	DateLayout = "02/01/2006"
	// TimeLayout is the hour slot layout.
	TimeLayout = "15:04"
	// TimestampLayout is used for created_at / submitted_at columns.
	TimestampLayout = "2006-01-02 15:04:05"
)

const (
	MinRating = 1
	MaxRating = 5
	// RatingTarget is the quality goal drawn on the mean-rating series.
	RatingTarget = 4.5
)

// SeedPin marks bookings inserted by the demo seeder.
const SeedPin = "SEED"

// IsValidKind reports whether kind is one of the known station kinds.
func IsValidKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is admin or student.
func IsValidRole(role string) bool {
	return role == RoleAdmin || role == RoleStudent
}
