package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"lendit/config"
	otelMocks "lendit/infras/otel/mocks"
	"lendit/internal/domains/user/mocks"
	"lendit/internal/domains/user/model"
	"lendit/internal/domains/user/model/dto"
	"lendit/internal/domains/user/service"
	cacheMocks "lendit/shared/cache/mocks"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
)

var errDB = errors.New("db error")

func newService(t *testing.T) (service.User, *mocks.MockUser, *cacheMocks.MockRedisCache) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := mocks.NewMockUser(ctrl)
	redis := cacheMocks.NewMockRedisCache(ctrl)

	redis.EXPECT().Clear(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redis.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	redis.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	svc := service.New(repo, &config.Config{}, redis, otelMocks.NewOtel())

	return svc, repo, redis
}

func TestUserService_Create(t *testing.T) {
	t.Parallel()

	req := dto.CreateUserRequest{Name: "alice", Email: "alice@mail.test"}

	t.Run("creates the user and returns its generated id", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)

		res, err := svc.Create(context.Background(), req)

		require.NoError(t, err)
		assert.NotEmpty(t, res.ID)
		assert.Equal(t, req.Name, res.Name)
		assert.Equal(t, req.Email, res.Email)
	})

	t.Run("rejects a duplicate email with a conflict", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		_, err := svc.Create(context.Background(), req)

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("maps a unique violation on insert to a conflict", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		// A concurrent create can slip past the Exist check and lose to the
		// users_email_unique constraint instead.
		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("failed to insert user: %w", &pq.Error{Code: "23505", Constraint: "users_email_unique"}))

		_, err := svc.Create(context.Background(), req)

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("propagates repository errors", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errDB)

		_, err := svc.Create(context.Background(), req)

		require.ErrorIs(t, err, errDB)
	})
}

func TestUserService_Get(t *testing.T) {
	t.Parallel()

	t.Run("returns the user when it exists", func(t *testing.T) {
		t.Parallel()

		svc, repo, redis := newService(t)

		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.User{ID: "u-1", Name: "alice", Email: "alice@mail.test"}, nil)

		res, err := svc.Get(context.Background(), "u-1")

		require.NoError(t, err)
		assert.Equal(t, "u-1", res.ID)
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		t.Parallel()

		svc, repo, redis := newService(t)

		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB)
		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)

		_, err := svc.Get(context.Background(), "missing")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestUserService_GetAll(t *testing.T) {
	t.Parallel()

	params := gDto.QueryParams{Page: 1, Limit: 10, SortBy: "created_at", SortDir: "DESC"}

	t.Run("returns the users with the total count", func(t *testing.T) {
		t.Parallel()

		svc, repo, redis := newService(t)

		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB)
		repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(2, nil)
		repo.EXPECT().GetAll(gomock.Any(), params, gomock.Any()).
			Return([]model.User{{ID: "u-1"}, {ID: "u-2"}}, nil)

		res, err := svc.GetAll(context.Background(), params)

		require.NoError(t, err)
		assert.Len(t, res.Users, 2)
		assert.Equal(t, 2, res.TotalData)
		assert.Equal(t, 1, res.TotalPage)
	})

	t.Run("propagates count errors", func(t *testing.T) {
		t.Parallel()

		svc, repo, redis := newService(t)

		redis.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(errDB)
		repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(0, errDB)

		_, err := svc.GetAll(context.Background(), params)

		require.ErrorIs(t, err, errDB)
	})
}

func TestUserService_Update(t *testing.T) {
	t.Parallel()

	t.Run("updates only the provided fields", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.User{ID: "u-1", Email: "old@mail.test"}, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ gDto.FilterGroup) error {
				assert.Equal(t, "bob", fields["name"])
				assert.NotContains(t, fields, "email")

				return nil
			})

		err := svc.Update(context.Background(), dto.UpdateUserRequest{Name: "bob"}, "u-1")

		require.NoError(t, err)
	})

	t.Run("rejects an empty update", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newService(t)

		err := svc.Update(context.Background(), dto.UpdateUserRequest{}, "u-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
	})

	t.Run("rejects switching to an email that is taken", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.User{ID: "u-1", Email: "old@mail.test"}, nil)
		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)

		err := svc.Update(context.Background(), dto.UpdateUserRequest{Email: "taken@mail.test"}, "u-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("maps a unique violation on update to a conflict", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).
			Return(model.User{ID: "u-1", Email: "old@mail.test"}, nil)
		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)
		repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(fmt.Errorf("failed to update user: %w", &pq.Error{Code: "23505", Constraint: "users_email_unique"}))

		err := svc.Update(context.Background(), dto.UpdateUserRequest{Email: "raced@mail.test"}, "u-1")

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(model.User{}, nil)

		err := svc.Update(context.Background(), dto.UpdateUserRequest{Name: "bob"}, "missing")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}

func TestUserService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("deletes an existing user", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(true, nil)
		repo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil)

		err := svc.Delete(context.Background(), "u-1")

		require.NoError(t, err)
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		t.Parallel()

		svc, repo, _ := newService(t)

		repo.EXPECT().Exist(gomock.Any(), gomock.Any()).Return(false, nil)

		err := svc.Delete(context.Background(), "missing")

		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	})
}
