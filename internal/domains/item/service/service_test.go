package service_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lendit/config"
	otelMocks "lendit/infras/otel/mocks"
	bookingMocks "lendit/internal/domains/booking/mocks"
	"lendit/internal/domains/item/mocks"
	"lendit/internal/domains/item/model"
	"lendit/internal/domains/item/model/dto"
	"lendit/internal/domains/item/service"
	userMocks "lendit/internal/domains/user/mocks"
	userModel "lendit/internal/domains/user/model"
	cacheMocks "lendit/shared/cache/mocks"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
)

var errDB = errors.New("db error")

type fixture struct {
	svc      service.Item
	items    *mocks.MockItem
	comments *mocks.MockComment
	users    *userMocks.MockUser
	bookings *bookingMocks.MockBooking
	redis    *cacheMocks.MockRedisCache
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	ctrl := gomock.NewController(t)

	f := fixture{
		items:    mocks.NewMockItem(ctrl),
		comments: mocks.NewMockComment(ctrl),
		users:    userMocks.NewMockUser(ctrl),
		bookings: bookingMocks.NewMockBooking(ctrl),
		redis:    cacheMocks.NewMockRedisCache(ctrl),
	}

	f.redis.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.redis.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	f.redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB).AnyTimes()

	f.svc = service.New(f.items, f.comments, f.users, f.bookings, &config.Config{}, f.redis, otelMocks.NewOtel())

	return f
}

func boolPtr(b bool) *bool { return &b }

func TestItemService_Create(t *testing.T) {
	t.Parallel()

	req := dto.CreateItemRequest{Name: "drill", Description: "cordless drill", Available: boolPtr(true)}

	t.Run("creates the item for an existing owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.items.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		res, err := f.svc.Create(context.Background(), req, "owner-1")

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, "owner-1", res.OwnerID)
		assert.True(t, res.Available)
	})

	t.Run("returns not found when the owner does not exist", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.Create(context.Background(), req, "ghost")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestItemService_Update(t *testing.T) {
	t.Parallel()

	stored := model.Item{ID: "i-1", Name: "drill", OwnerID: "owner-1", Available: true}

	t.Run("lets the owner change availability", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)
		f.items.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, false, fields["available"])
				assert.NotContains(t, fields, "name")

				return nil
			})

		err := f.svc.Update(context.Background(), dto.UpdateItemRequest{Available: boolPtr(false)}, "i-1", "owner-1")

		require.NoError(t, err)
	})

	t.Run("forbids anyone but the owner", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(stored, nil)

		err := f.svc.Update(context.Background(), dto.UpdateItemRequest{Name: "hammer"}, "i-1", "stranger")

		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown item", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{}, nil)

		err := f.svc.Update(context.Background(), dto.UpdateItemRequest{Name: "hammer"}, "missing", "owner-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		err := f.svc.Update(context.Background(), dto.UpdateItemRequest{}, "i-1", "owner-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestItemService_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns the item with its comments", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.Item{ID: "i-1", Name: "drill", OwnerID: "owner-1"}, nil)
		f.comments.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return([]model.Comment{{ID: "c-1", Text: "works great", AuthorName: "bob"}}, nil)

		res, err := f.svc.Get(context.Background(), "i-1")

		require.NoError(t, err)
		assert.Equal(t, "i-1", res.ID)
		require.Len(t, res.Comments, 1)
		assert.Equal(t, "bob", res.Comments[0].AuthorName)
	})

	t.Run("returns not found for an unknown item", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.Item{}, nil)

		_, err := f.svc.Get(context.Background(), "missing")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestItemService_GetForOwner(t *testing.T) {
	t.Parallel()

	t.Run("translates the offset window into page pagination", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Count(gomock.Any(), gomock.Any()).Return(12, nil)
		f.items.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params gDto.QueryParams, _ gDto.FilterGroup, _ ...string) ([]model.Item, error) {
				assert.Equal(t, 3, params.Page)
				assert.Equal(t, 5, params.Limit)

				return []model.Item{{ID: "i-11"}}, nil
			})

		res, err := f.svc.GetForOwner(context.Background(), "owner-1", gDto.PageWindow{From: 10, Size: 5})

		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
		assert.Equal(t, 12, res.TotalData)
	})

	t.Run("rejects a non-positive size", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		_, err := f.svc.GetForOwner(context.Background(), "owner-1", gDto.PageWindow{From: 0, Size: 0})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})
}

func TestItemService_Search(t *testing.T) {
	t.Parallel()

	t.Run("returns an empty result for empty text without querying", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		res, err := f.svc.Search(context.Background(), "", gDto.PageWindow{From: 0, Size: 10})

		require.NoError(t, err)
		assert.Empty(t, res.Items)
	})

	t.Run("filters to available items matching the text", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.items.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil)
		f.items.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]model.Item, error) {
				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "items.available = :available")
				assert.Contains(t, where, "LOWER(items.name) LIKE LOWER(:search_name)")
				assert.Contains(t, where, "LOWER(items.description) LIKE LOWER(:search_description)")
				assert.Equal(t, "%drill%", args["search_name"])

				return []model.Item{{ID: "i-1", Available: true}}, nil
			})

		res, err := f.svc.Search(context.Background(), "drill", gDto.PageWindow{From: 0, Size: 10})

		require.NoError(t, err)
		assert.Len(t, res.Items, 1)
	})
}

func TestItemService_AddComment(t *testing.T) {
	t.Parallel()

	req := dto.CreateCommentRequest{Text: "works great"}
	author := userModel.User{ID: "booker-1", Name: "bob"}

	t.Run("stores the comment for a finished booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(author, nil)
		f.items.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Exist(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, filter gDto.FilterGroup) (bool, error) {
				where, args := filter.GetWhereClause()
				assert.Contains(t, where, "bookings.status = :status")
				assert.Contains(t, where, "bookings.end_date < :end_date")
				assert.Equal(t, "APPROVED", args["status"])

				return true, nil
			})
		f.comments.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		res, err := f.svc.AddComment(context.Background(), req, "i-1", "booker-1")

		require.NoError(t, err)
		assert.Equal(t, "works great", res.Text)
		assert.Equal(t, "bob", res.AuthorName)
	})

	t.Run("rejects a caller without a finished booking", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(author, nil)
		f.items.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		f.bookings.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.AddComment(context.Background(), req, "i-1", "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown item", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)

		f.users.EXPECT().Get(gomock.Any(), gomock.Any()).Return(author, nil)
		f.items.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		_, err := f.svc.AddComment(context.Background(), req, "missing", "booker-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
