package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"lendit/config"
	"lendit/infras/otel"
	"lendit/internal/domains/user/model"
	"lendit/internal/domains/user/model/dto"
	"lendit/internal/domains/user/repository"
	"lendit/shared"
	"lendit/shared/cache"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
)

const (
	cacheGetUser    = "user:get"
	cacheGetAllUser = "user:gets"
	cacheCountUser  = "user:count"
)

type User interface {
	Create(ctx context.Context, req dto.CreateUserRequest) (dto.UserResponse, error)
	GetAll(ctx context.Context, req gDto.QueryParams) (dto.GetUsersResponse, error)
	Get(ctx context.Context, id string) (dto.UserResponse, error)
	Update(ctx context.Context, req dto.UpdateUserRequest, id string) error
	Delete(ctx context.Context, id string) error
}

type serviceImpl struct {
	repo  repository.User
	cfg   *config.Config
	cache cache.RedisCache
	otel  otel.Otel
}

func New(repo repository.User, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) User {
	return &serviceImpl{
		repo:  repo,
		cfg:   cfg,
		cache: cache,
		otel:  otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateUserRequest) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	taken, err := s.repo.Exist(ctx, emailFilter(req.Email))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if email is taken")

		return res, fmt.Errorf("failed to check if email is taken: %w", err)
	}

	if taken {
		return res, failure.Conflict("email is already in use") // nolint:wrapcheck
	}

	user := req.ToModel()

	if err = s.repo.Insert(ctx, user); err != nil {
		// The Exist pre-check races with concurrent creates; users_email_unique
		// settles the loser here.
		if isUniqueViolation(err) {
			return res, failure.Conflict("email is already in use") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to create user")

		return res, fmt.Errorf("failed to create user: %w", err)
	}

	res.FromModel(user)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, req gDto.QueryParams) (res dto.GetUsersResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.GetAll")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	filter := gDto.FilterGroup{}
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllUser, req, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for users")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count users")

		return res, fmt.Errorf("failed to count users: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get users")

		return res, fmt.Errorf("failed to get users: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save users to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.UserResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetUser, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for user")

		return res, nil
	}

	user, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return res, fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	res.FromModel(user)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save user to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateUserRequest, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Update")
	defer scope.End()

	if req == (dto.UpdateUserRequest{}) {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	user, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get user")

		return fmt.Errorf("failed to get user: %w", err)
	}

	if user.ID == constant.Empty {
		return failure.NotFound("user not found") // nolint:wrapcheck
	}

	if req.Email != constant.Empty && req.Email != user.Email {
		taken, err := s.repo.Exist(ctx, emailFilter(req.Email))
		if err != nil {
			log.Error().Err(err).Msg("failed to check if email is taken")

			return fmt.Errorf("failed to check if email is taken: %w", err)
		}

		if taken {
			return failure.Conflict("email is already in use") // nolint:wrapcheck
		}
	}

	updatedFields := shared.TransformFields(req, id)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		if isUniqueViolation(err) {
			return failure.Conflict("email is already in use") // nolint:wrapcheck
		}

		log.Error().Err(err).Msg("failed to update user")

		return fmt.Errorf("failed to update user: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete user from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()

	return nil
}

func (s *serviceImpl) Delete(ctx context.Context, id string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".user.Delete")
	defer scope.End()

	exist, err := s.repo.Exist(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if user exists")

		return fmt.Errorf("failed to check if user exists: %w", err)
	}

	if !exist {
		return failure.NotFound("user not found") // nolint:wrapcheck
	}

	if err := s.repo.Delete(ctx, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Msg("failed to delete user")

		return fmt.Errorf("failed to delete user: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetUser, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete user from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllUser)
		shared.InvalidateCaches(c, s.cache, cacheCountUser)
	}()

	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
}

func emailFilter(email string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldEmail,
				Value:    email,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}
