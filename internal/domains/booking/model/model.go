package model

import (
	"time"

	"lendit/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID        = "id"
	FieldItemID    = "item_id"
	FieldBookerID  = "booker_id"
	FieldStartDate = "start_date"
	FieldEndDate   = "end_date"
	FieldStatus    = "status"

	FieldItemOwnerID = "owner_id"
)

// Booking status values. A booking starts out WAITING and is moved exactly
// once to APPROVED or REJECTED by the item owner.
const (
	StatusWaiting  = "WAITING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
	StatusCanceled = "CANCELED"
)

type Booking struct {
	ID          string    `db:"id"`
	ItemID      string    `db:"item_id"`
	BookerID    string    `db:"booker_id"`
	StartDate   time.Time `db:"start_date"`
	EndDate     time.Time `db:"end_date"`
	Status      string    `db:"status"`
	ItemOwnerID string    `column:"owner_id" db:"item_owner_id" table:"items"`
	ItemName    string    `column:"name" db:"item_name" table:"items"`
	model.Metadata
}

// GetJoinQuery pulls the item owner and name alongside each booking so
// ownership checks and listings never need a second round trip.
func (Booking) GetJoinQuery() string {
	return "JOIN items ON items.id = bookings.item_id"
}
