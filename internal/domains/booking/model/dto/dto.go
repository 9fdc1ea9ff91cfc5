package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"lendit/internal/domains/booking/model"
	"lendit/shared"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
	gModel "lendit/shared/model"
	"lendit/shared/timezone"
)

// BookingState is the state bucket a listing request filters on. ALL,
// CURRENT, PAST and FUTURE classify bookings against the current time;
// WAITING and REJECTED match the stored status.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState resolves the state query parameter, defaulting to ALL
// when absent. Unknown values are a bad request, never silently ALL.
func ParseBookingState(raw string) (BookingState, error) {
	if raw == "" {
		return StateAll, nil
	}

	state := BookingState(strings.ToUpper(raw))

	switch state {
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return state, nil
	default:
		return "", failure.BadRequestFromString("unknown state: " + raw) // nolint:wrapcheck
	}
}

type CreateBookingRequest struct {
	ItemID    string    `json:"item_id"    validate:"required,uuid"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date"   validate:"required"`
}

// Validate enforces the time-window rules beyond struct validation: the
// window must be non-empty and must not start in the past.
func (c *CreateBookingRequest) Validate(now time.Time) error {
	if !c.EndDate.After(c.StartDate) {
		return failure.BadRequestFromString("end date must be after start date") // nolint:wrapcheck
	}

	if c.StartDate.Before(now) {
		return failure.BadRequestFromString("start date must not be in the past") // nolint:wrapcheck
	}

	return nil
}

func (c *CreateBookingRequest) ToModel(bookerID string) model.Booking {
	return model.Booking{
		ID:        uuid.NewString(),
		ItemID:    c.ItemID,
		BookerID:  bookerID,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Status:    model.StatusWaiting,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  bookerID,
			ModifiedBy: bookerID,
		},
	}
}

type BookingResponse struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"item_id"`
	ItemName  string    `json:"item_name,omitempty"`
	BookerID  string    `json:"booker_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	gDto.Metadata
}

func (r *BookingResponse) FromModel(model model.Booking) {
	r.ID = model.ID
	r.ItemID = model.ItemID
	r.ItemName = model.ItemName
	r.BookerID = model.BookerID
	r.StartDate = model.StartDate
	r.EndDate = model.EndDate
	r.Status = model.Status
	r.Metadata.FromModel(model.Metadata)
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}

// Booking event types published to the booking events topic.
const (
	EventBookingCreated = "booking.created"
	EventBookingDecided = "booking.decided"
)

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	ItemID     string    `json:"item_id"`
	BookerID   string    `json:"booker_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, booking model.Booking) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID,
		ItemID:     booking.ItemID,
		BookerID:   booking.BookerID,
		Status:     booking.Status,
		OccurredAt: timezone.Now(),
	}
}
