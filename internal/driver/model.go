package driver

import (
	"time"

	"github.com/google/uuid"

	"pos-dispatch/internal/geo"
)

// Driver holds a driver's presence row: most-recent-wins position plus
// liveness. Position history is not kept; every accepted report supersedes
// the previous one.
type Driver struct {
	ID             string     `db:"id" json:"id"`
	Latitude       float64    `db:"latitude" json:"latitude"`
	Longitude      float64    `db:"longitude" json:"longitude"`
	Accuracy       *float64   `db:"accuracy" json:"accuracy,omitempty"`
	CurrentOrderID *uuid.UUID `db:"current_order_id" json:"current_order_id,omitempty"`
	Tracking       bool       `db:"tracking" json:"tracking"`
	LastSeen       *time.Time `db:"last_seen" json:"last_seen,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

func New(id string) *Driver {
	now := time.Now()
	return &Driver{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Driver) Position() geo.Point {
	return geo.NewPoint(d.Latitude, d.Longitude)
}

func (d *Driver) UpdatePosition(lat, lng float64, accuracy *float64, orderID *uuid.UUID) {
	d.Latitude = lat
	d.Longitude = lng
	d.Accuracy = accuracy
	d.CurrentOrderID = orderID
	d.Tracking = true
	now := time.Now()
	d.LastSeen = &now
	d.UpdatedAt = now
}

func (d *Driver) StopTracking() {
	d.Tracking = false
	d.CurrentOrderID = nil
	d.UpdatedAt = time.Now()
}
