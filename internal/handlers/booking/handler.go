package booking

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lendit/infras/otel"
	"lendit/internal/domains/booking/model/dto"
	"lendit/internal/domains/booking/service"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
	"lendit/shared/validator"
	"lendit/transport/http/response"
)

type Handler struct {
	service service.Booking
	otel    otel.Otel
}

func New(service service.Booking, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/bookings", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateBooking)
		routerGroup.Get("/", handler.GetBookingsForBooker)
		routerGroup.Get("/owner", handler.GetBookingsForOwner)
		routerGroup.Get("/{id}", handler.GetBookingByID)
		routerGroup.Patch("/{id}", handler.DecideBooking)
	})
}

// CreateBooking places a booking request for an item.
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := handler.service.Create(ctx, req, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create booking")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Booking created successfully by user " + callerID)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// DecideBooking lets the item owner approve or reject a waiting booking.
func (handler *Handler) DecideBooking(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DecideBooking")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	approved, err := strconv.ParseBool(r.URL.Query().Get(constant.RequestParamApproved))
	if err != nil {
		err = failure.BadRequestFromString("approved must be true or false")

		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := handler.service.Decide(ctx, id, approved, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decide booking")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking decided successfully by user " + callerID)

	response.WithJSON(w, http.StatusOK, booking)
}

// GetBookingByID retrieves a booking visible to the booker or item owner.
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	booking, err := handler.service.Get(ctx, id, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get booking by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// GetBookingsForBooker lists the caller's own bookings by state bucket.
func (handler *Handler) GetBookingsForBooker(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingsForBooker")
	defer scope.End()

	state, err := dto.ParseBookingState(r.URL.Query().Get(constant.RequestParamState))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	window := gDto.PageWindow{}
	window.FromRequest(r)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	bookings, err := handler.service.GetForBooker(ctx, callerID, state, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings for booker")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Booker bookings retrieved successfully for user " + callerID)

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingsForOwner lists bookings of the caller's items by state bucket.
func (handler *Handler) GetBookingsForOwner(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingsForOwner")
	defer scope.End()

	state, err := dto.ParseBookingState(r.URL.Query().Get(constant.RequestParamState))
	if err != nil {
		scope.TraceError(err)
		response.WithError(w, err)

		return
	}

	window := gDto.PageWindow{}
	window.FromRequest(r)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	bookings, err := handler.service.GetForOwner(ctx, callerID, state, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get bookings for owner")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Owner bookings retrieved successfully for user " + callerID)

	response.WithJSON(w, http.StatusOK, bookings)
}
