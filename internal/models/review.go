package models

import "time"

type Review struct {
	ID          int64     `json:"id"`
	BookingID   int64     `json:"booking_id"`
	StudentName string    `json:"student_name"`
	ClassDate   string    `json:"class_date"`
	Kind        string    `json:"kind"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submitted_at"`
}
