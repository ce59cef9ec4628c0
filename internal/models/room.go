package models

import "time"

// Room is read-only reference data describing a teaching venue.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Building  string    `db:"building" json:"building"`
	Capacity  int       `db:"capacity" json:"capacity"`
	RoomType  string    `db:"room_type" json:"room_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
