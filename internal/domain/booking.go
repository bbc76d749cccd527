package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Blocks reports whether a booking in this status blocks new slots.
func (s BookingStatus) Blocks() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID        uuid.UUID     `bun:"id,pk,type:uuid"`
	StylistID string        `bun:"stylist_id,notnull"`
	StartTime time.Time     `bun:"start_time,notnull"`
	EndTime   time.Time     `bun:"end_time,notnull"`
	Status    BookingStatus `bun:"status,notnull"`
	CreatedAt time.Time     `bun:"created_at,notnull"`
	UpdatedAt time.Time     `bun:"updated_at,notnull"`
}

func (b *Booking) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if b.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			b.ID = id
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = now
		}
		if b.UpdatedAt.IsZero() {
			b.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		b.UpdatedAt = now
	}
	return nil
}

func (b Booking) Blocked() BlockedInterval {
	return BlockedInterval{
		Start:  b.StartTime,
		End:    b.EndTime,
		Source: BlockedSourceBooking,
	}
}
