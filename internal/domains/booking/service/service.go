package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"lendit/config"
	"lendit/infras/kafka"
	"lendit/infras/otel"
	"lendit/internal/domains/booking/model"
	"lendit/internal/domains/booking/model/dto"
	"lendit/internal/domains/booking/repository"
	itemModel "lendit/internal/domains/item/model"
	itemRepo "lendit/internal/domains/item/repository"
	userModel "lendit/internal/domains/user/model"
	userRepo "lendit/internal/domains/user/repository"
	"lendit/shared"
	"lendit/shared/cache"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
	"lendit/shared/timezone"
)

const cacheGetBooking = "booking:get"

type Booking interface {
	Create(ctx context.Context, req dto.CreateBookingRequest, callerID string) (dto.BookingResponse, error)
	Decide(ctx context.Context, bookingID string, approved bool, callerID string) (dto.BookingResponse, error)
	Get(ctx context.Context, bookingID, callerID string) (dto.BookingResponse, error)
	GetForBooker(ctx context.Context, callerID string, state dto.BookingState, window gDto.PageWindow) (dto.GetBookingsResponse, error)
	GetForOwner(ctx context.Context, callerID string, state dto.BookingState, window gDto.PageWindow) (dto.GetBookingsResponse, error)
}

type serviceImpl struct {
	repo     repository.Booking
	itemRepo itemRepo.Item
	userRepo userRepo.User
	kafka    kafka.Client
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.Booking,
	items itemRepo.Item,
	users userRepo.User,
	kafkaClient kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Booking {
	return &serviceImpl{
		repo:     repo,
		itemRepo: items,
		userRepo: users,
		kafka:    kafkaClient,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateBookingRequest, callerID string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = req.Validate(timezone.Now()); err != nil {
		return res, err // nolint:wrapcheck
	}

	bookerExist, err := s.userRepo.Exist(ctx, shared.FilterByID(callerID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if booker exists")

		return res, fmt.Errorf("failed to check if booker exists: %w", err)
	}

	if !bookerExist {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	item, err := s.itemRepo.Get(ctx, shared.FilterByID(req.ItemID, itemModel.FieldID, itemModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get item")

		return res, fmt.Errorf("failed to get item: %w", err)
	}

	if item.ID == constant.Empty {
		return res, failure.NotFound("item not found") // nolint:wrapcheck
	}

	// Owners never see their own items as bookable.
	if item.OwnerID == callerID {
		return res, failure.NotFound("item not found") // nolint:wrapcheck
	}

	if !item.Available {
		return res, failure.BadRequestFromString("item is not available for booking") // nolint:wrapcheck
	}

	booking := req.ToModel(callerID)

	if err = s.repo.Insert(ctx, booking); err != nil {
		log.Error().Err(err).Msg("failed to create booking")

		return res, fmt.Errorf("failed to create booking: %w", err)
	}

	booking.ItemName = item.Name
	booking.ItemOwnerID = item.OwnerID
	res.FromModel(booking)

	s.publish(ctx, dto.EventBookingCreated, booking)

	return res, nil
}

func (s *serviceImpl) Decide(ctx context.Context, bookingID string, approved bool, callerID string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Decide")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	booking, err := s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get booking")

		return res, fmt.Errorf("failed to get booking: %w", err)
	}

	if booking.ID == constant.Empty {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	if booking.ItemOwnerID != callerID {
		return res, failure.Forbidden("only the item owner can decide a booking") // nolint:wrapcheck
	}

	status := model.StatusRejected
	if approved {
		status = model.StatusApproved
	}

	affected, err := s.repo.UpdateChecked(ctx, map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: callerID,
	}, pendingBookingFilter(bookingID))
	if err != nil {
		log.Error().Err(err).Msg("failed to decide booking")

		return res, fmt.Errorf("failed to decide booking: %w", err)
	}

	if affected == 0 {
		return res, failure.Conflict("booking has already been decided") // nolint:wrapcheck
	}

	booking.Status = status
	res.FromModel(booking)

	s.publish(ctx, dto.EventBookingDecided, booking)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetBooking, bookingID)); err != nil {
			log.Error().Err(err).Msg("failed to delete booking from cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, bookingID, callerID string) (res dto.BookingResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetBooking, bookingID)

	var booking model.Booking

	if cacheErr := s.cache.Get(ctx, cacheKey, &booking); cacheErr != nil {
		booking, err = s.repo.Get(ctx, shared.FilterByID(bookingID, model.FieldID, model.TableName))
		if err != nil {
			log.Error().Err(err).Msg("failed to get booking")

			return res, fmt.Errorf("failed to get booking: %w", err)
		}

		if booking.ID != constant.Empty {
			go func() {
				c := context.WithoutCancel(ctx)

				if err := s.cache.Save(c, cacheKey, booking, s.cfg.Cache.TTL); err != nil {
					log.Error().Err(err).Msg("failed to save booking to cache")
				}
			}()
		}
	}

	// The visibility check runs after loading so a caller who is neither the
	// booker nor the item owner cannot tell whether the booking exists.
	if booking.ID == constant.Empty || (booking.BookerID != callerID && booking.ItemOwnerID != callerID) {
		return res, failure.NotFound("booking not found") // nolint:wrapcheck
	}

	res.FromModel(booking)

	return res, nil
}

func (s *serviceImpl) GetForBooker(ctx context.Context, callerID string, state dto.BookingState, window gDto.PageWindow) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetForBooker")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	bookerFilter := gDto.Filter{
		Field:    model.FieldBookerID,
		Value:    callerID,
		Operator: gDto.FilterOperatorEq,
		Table:    model.TableName,
	}

	return s.getAll(ctx, callerID, state, window, bookerFilter)
}

func (s *serviceImpl) GetForOwner(ctx context.Context, callerID string, state dto.BookingState, window gDto.PageWindow) (res dto.GetBookingsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".booking.GetForOwner")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ownerFilter := gDto.Filter{
		Field:    itemModel.FieldOwnerID,
		Value:    callerID,
		Operator: gDto.FilterOperatorEq,
		Table:    itemModel.TableName,
	}

	return s.getAll(ctx, callerID, state, window, ownerFilter)
}

func (s *serviceImpl) getAll(ctx context.Context, callerID string, state dto.BookingState, window gDto.PageWindow, callerFilter gDto.Filter) (res dto.GetBookingsResponse, err error) {
	params, err := window.ToQueryParams(model.TableName+"."+model.FieldStartDate, gDto.SortDirDesc)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	callerExist, err := s.userRepo.Exist(ctx, shared.FilterByID(callerID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if caller exists")

		return res, fmt.Errorf("failed to check if caller exists: %w", err)
	}

	if !callerExist {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	filter := stateFilter(state, timezone.Now())
	filter.Filters = append(filter.Filters, callerFilter)

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings")

		return res, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings")

		return res, fmt.Errorf("failed to get bookings: %w", err)
	}

	res.FromModels(bookings, total, params.Limit)

	return res, nil
}

// publish sends a booking event without blocking or failing the request.
func (s *serviceImpl) publish(ctx context.Context, eventType string, booking model.Booking) {
	if s.kafka == nil {
		return
	}

	event := dto.NewBookingEvent(eventType, booking)
	topic := s.cfg.Kafka.Topics.BookingEvents

	go func() {
		c := context.WithoutCancel(ctx)

		err := s.kafka.SendMessages(c, topic, kafka.Message{Key: booking.ID, Value: event})
		if err != nil {
			log.Error().Err(err).Str("type", eventType).Str("bookingID", booking.ID).Msg("failed to publish booking event")
		}
	}()
}

// pendingBookingFilter matches the booking only while it is still WAITING, so
// the status update doubles as a compare-and-set and concurrent decisions
// cannot both win.
func pendingBookingFilter(bookingID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldID,
				Value:    bookingID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "current_status",
				Field:    model.FieldStatus,
				Value:    model.StatusWaiting,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}

// stateFilter turns a state bucket into predicates evaluated by the store, so
// classification and pagination happen in one query.
func stateFilter(state dto.BookingState, now time.Time) gDto.FilterGroup {
	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	switch state {
	case dto.StateCurrent:
		filter.Filters = append(filter.Filters,
			gDto.Filter{
				ArgName:  "now_start",
				Field:    model.FieldStartDate,
				Value:    now,
				Operator: gDto.FilterOperatorLessEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				ArgName:  "now_end",
				Field:    model.FieldEndDate,
				Value:    now,
				Operator: gDto.FilterOperatorGreaterEq,
				Table:    model.TableName,
			},
		)
	case dto.StatePast:
		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "now_end",
			Field:    model.FieldEndDate,
			Value:    now,
			Operator: gDto.FilterOperatorLess,
			Table:    model.TableName,
		})
	case dto.StateFuture:
		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "now_start",
			Field:    model.FieldStartDate,
			Value:    now,
			Operator: gDto.FilterOperatorGreater,
			Table:    model.TableName,
		})
	case dto.StateWaiting:
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Value:    model.StatusWaiting,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	case dto.StateRejected:
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Value:    model.StatusRejected,
			Operator: gDto.FilterOperatorEq,
			Table:    model.TableName,
		})
	case dto.StateAll:
	}

	return filter
}
