package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lendit/config"
	"lendit/infras/kafka"
	kafkaMocks "lendit/infras/kafka/mocks"
	"lendit/infras/otel"
	otelMocks "lendit/infras/otel/mocks"
	"lendit/internal/domains/booking/mocks"
	"lendit/internal/domains/booking/model"
	"lendit/internal/domains/booking/model/dto"
	"lendit/internal/domains/booking/service"
	itemMocks "lendit/internal/domains/item/mocks"
	itemModel "lendit/internal/domains/item/model"
	userMocks "lendit/internal/domains/user/mocks"
	cacheMocks "lendit/shared/cache/mocks"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
)

var errDB = errors.New("db error")

type fixture struct {
	svc      service.Booking
	bookings *mocks.MockBooking
	items    *itemMocks.MockItem
	users    *userMocks.MockUser
	kafka    *kafkaMocks.MockClient
	redis    *cacheMocks.MockRedisCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		bookings: mocks.NewMockBooking(ctrl),
		items:    itemMocks.NewMockItem(ctrl),
		users:    userMocks.NewMockUser(ctrl),
		kafka:    kafkaMocks.NewMockClient(ctrl),
		redis:    cacheMocks.NewMockRedisCache(ctrl),
	}

	f.redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB).AnyTimes()
	f.redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.redis.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	f.svc = service.New(f.bookings, f.items, f.users, f.kafka, &config.Config{}, f.redis, otelMocks.NewOtel())

	return f
}

func validRequest() dto.CreateBookingRequest {
	return dto.CreateBookingRequest{
		ItemID:    "item-1",
		StartDate: time.Now().Add(time.Hour),
		EndDate:   time.Now().Add(2 * time.Hour),
	}
}

func availableItem() itemModel.Item {
	return itemModel.Item{ID: "item-1", Name: "drill", OwnerID: "owner-1", Available: true}
}

func TestBookingService_Create(t *testing.T) {
	t.Parallel()

	t.Run("persists a waiting booking for an available item", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableItem(), nil)
		f.bookings.EXPECT().Insert(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, booking model.Booking) error {
				assert.Equal(t, model.StatusWaiting, booking.Status)
				assert.Equal(t, "booker-1", booking.BookerID)

				return nil
			})

		res, err := f.svc.Create(context.Background(), validRequest(), "booker-1")

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, model.StatusWaiting, res.Status)
		assert.Equal(t, "drill", res.ItemName)
	})

	t.Run("returns not found when the booker does not exist", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.Create(context.Background(), validRequest(), "ghost")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("returns not found when the item does not exist", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(itemModel.Item{}, nil)

		_, err := f.svc.Create(context.Background(), validRequest(), "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("hides the item from its own owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableItem(), nil)

		_, err := f.svc.Create(context.Background(), validRequest(), "owner-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("rejects an unavailable item", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		item := availableItem()
		item.Available = false

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(item, nil)

		_, err := f.svc.Create(context.Background(), validRequest(), "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects an end date not after the start date", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		req := validRequest()
		req.EndDate = req.StartDate

		_, err := f.svc.Create(context.Background(), req, "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects a start date in the past", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		req := validRequest()
		req.StartDate = time.Now().Add(-time.Hour)

		_, err := f.svc.Create(context.Background(), req, "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("publishes a created event", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		bookings := mocks.NewMockBooking(ctrl)
		items := itemMocks.NewMockItem(ctrl)
		users := userMocks.NewMockUser(ctrl)
		kafkaClient := kafkaMocks.NewMockClient(ctrl)
		redis := cacheMocks.NewMockRedisCache(ctrl)

		users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(availableItem(), nil)
		bookings.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		published := make(chan kafka.Message, 1)
		kafkaClient.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
				published <- messages[0]

				return nil
			})

		svc := service.New(bookings, items, users, kafkaClient, &config.Config{}, redis, otelMocks.NewOtel())

		res, err := svc.Create(context.Background(), validRequest(), "booker-1")
		require.NoError(t, err)

		select {
		case msg := <-published:
			assert.Equal(t, res.ID, msg.Key)

			event, ok := msg.Value.(dto.BookingEvent)
			require.True(t, ok)
			assert.Equal(t, dto.EventBookingCreated, event.Type)
			assert.Equal(t, model.StatusWaiting, event.Status)
		case <-time.After(time.Second):
			t.Fatal("expected a booking event to be published")
		}
	})
}

func TestBookingService_Decide(t *testing.T) {
	t.Parallel()

	stored := model.Booking{
		ID:          "b-1",
		ItemID:      "item-1",
		BookerID:    "booker-1",
		Status:      model.StatusWaiting,
		ItemOwnerID: "owner-1",
	}

	t.Run("approves a waiting booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
		f.bookings.EXPECT().UpdateChecked(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
				assert.Equal(t, model.StatusApproved, fields[model.FieldStatus])

				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.status = :current_status")
				assert.Equal(t, model.StatusWaiting, args["current_status"])

				return 1, nil
			})

		res, err := f.svc.Decide(context.Background(), "b-1", true, "owner-1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, res.Status)
	})

	t.Run("rejects a waiting booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
		f.bookings.EXPECT().UpdateChecked(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) (int64, error) {
				assert.Equal(t, model.StatusRejected, fields[model.FieldStatus])

				return 1, nil
			})

		res, err := f.svc.Decide(context.Background(), "b-1", false, "owner-1")

		require.NoError(t, err)
		assert.Equal(t, model.StatusRejected, res.Status)
	})

	t.Run("forbids anyone but the item owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		_, err := f.svc.Decide(context.Background(), "b-1", true, "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})

	t.Run("conflicts when the booking is no longer waiting", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
		f.bookings.EXPECT().UpdateChecked(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(0), nil)

		_, err := f.svc.Decide(context.Background(), "b-1", true, "owner-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.svc.Decide(context.Background(), "missing", true, "owner-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_Get(t *testing.T) {
	t.Parallel()

	stored := model.Booking{
		ID:          "b-1",
		ItemID:      "item-1",
		BookerID:    "booker-1",
		Status:      model.StatusWaiting,
		ItemOwnerID: "owner-1",
	}

	t.Run("is visible to the booker", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		res, err := f.svc.Get(context.Background(), "b-1", "booker-1")

		require.NoError(t, err)
		assert.Equal(t, "b-1", res.ID)
	})

	t.Run("is visible to the item owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		res, err := f.svc.Get(context.Background(), "b-1", "owner-1")

		require.NoError(t, err)
		assert.Equal(t, "b-1", res.ID)
	})

	t.Run("looks nonexistent to anyone else", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		_, err := f.svc.Get(context.Background(), "b-1", "stranger")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, nil)

		_, err := f.svc.Get(context.Background(), "missing", "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_GetForBooker(t *testing.T) {
	t.Parallel()

	window := gDto.PageWindow{From: 0, Size: 10}

	t.Run("filters by booker and orders by start date descending", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				assert.Equal(t, "bookings.start_date", params.SortBy)
				assert.Equal(t, gDto.SortDirDesc, params.SortDir)

				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.booker_id = :booker_id")
				assert.Equal(t, "booker-1", args["booker_id"])

				return []model.Booking{{ID: "b-1"}}, nil
			})

		res, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateAll, window)

		require.NoError(t, err)
		assert.Len(t, res.Bookings, 1)
	})

	t.Run("pushes the current classification into the query", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				where, _ := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.start_date <= :now_start")
				assert.Contains(t, where, "bookings.end_date >= :now_end")

				return nil, nil
			})

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateCurrent, window)

		require.NoError(t, err)
	})

	t.Run("pushes the past classification into the query", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				where, _ := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.end_date < :now_end")

				return nil, nil
			})

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StatePast, window)

		require.NoError(t, err)
	})

	t.Run("pushes the future classification into the query", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				where, _ := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.start_date > :now_start")
				assert.NotContains(t, where, "end_date")

				return nil, nil
			})

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateFuture, window)

		require.NoError(t, err)
	})

	t.Run("translates the offset window into page pagination", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(25, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				assert.Equal(t, 3, params.Page)
				assert.Equal(t, 10, params.Limit)

				return nil, nil
			})

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateAll, gDto.PageWindow{From: 20, Size: 10})

		require.NoError(t, err)
	})

	t.Run("rejects a non-positive size", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateAll, gDto.PageWindow{From: 0, Size: 0})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects a negative offset", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.svc.GetForBooker(context.Background(), "booker-1", dto.StateAll, gDto.PageWindow{From: -1, Size: 10})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown caller", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.GetForBooker(context.Background(), "ghost", dto.StateAll, window)

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestBookingService_GetForOwner(t *testing.T) {
	t.Parallel()

	t.Run("filters by the joined item owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
		f.bookings.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Booking, error) {
				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "items.owner_id = :owner_id")
				assert.Equal(t, "owner-1", args["owner_id"])

				return []model.Booking{{ID: "b-1"}, {ID: "b-2"}}, nil
			})

		res, err := f.svc.GetForOwner(context.Background(), "owner-1", dto.StateAll, gDto.PageWindow{From: 0, Size: 10})

		require.NoError(t, err)
		assert.Len(t, res.Bookings, 2)
		assert.Equal(t, 2, res.TotalData)
	})
}

type recordingScope struct {
	errs []error
}

func (s *recordingScope) End()                         {}
func (s *recordingScope) AddEvent(_ string)            {}
func (s *recordingScope) SetAttribute(_ string, _ any) {}
func (s *recordingScope) SetAttributes(_ map[string]any) {}

func (s *recordingScope) TraceError(err error) {
	s.errs = append(s.errs, err)
}

func (s *recordingScope) TraceIfError(err error) {
	if err != nil {
		s.TraceError(err)
	}
}

type recordingOtel struct {
	scope *recordingScope
}

func (o *recordingOtel) NewScope(ctx context.Context, _, _ string) (context.Context, otel.Scope) {
	return ctx, o.scope
}

func TestBookingService_ErrorTracing(t *testing.T) {
	t.Parallel()

	t.Run("attaches a repository error to the span", func(t *testing.T) {
		t.Parallel()

		ctrl := gomock.NewController(t)
		bookings := mocks.NewMockBooking(ctrl)
		items := itemMocks.NewMockItem(ctrl)
		users := userMocks.NewMockUser(ctrl)
		redis := cacheMocks.NewMockRedisCache(ctrl)

		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB).AnyTimes()
		bookings.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Booking{}, errDB)

		recorder := &recordingOtel{scope: &recordingScope{}}
		svc := service.New(bookings, items, users, nil, &config.Config{}, redis, recorder)

		_, err := svc.Get(context.Background(), "b-1", "booker-1")

		require.Error(t, err)
		require.Len(t, recorder.scope.errs, 1)
		assert.ErrorIs(t, recorder.scope.errs[0], errDB)
	})
}

func TestParseBookingState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		want    dto.BookingState
		wantErr bool
	}{
		{name: "empty defaults to all", raw: "", want: dto.StateAll},
		{name: "all", raw: "ALL", want: dto.StateAll},
		{name: "lowercase current", raw: "current", want: dto.StateCurrent},
		{name: "past", raw: "PAST", want: dto.StatePast},
		{name: "future", raw: "FUTURE", want: dto.StateFuture},
		{name: "waiting", raw: "WAITING", want: dto.StateWaiting},
		{name: "rejected", raw: "REJECTED", want: dto.StateRejected},
		{name: "unknown value", raw: "SOMETIME", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := dto.ParseBookingState(tt.raw)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
