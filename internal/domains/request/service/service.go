package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"lendit/config"
	"lendit/infras/otel"
	itemModel "lendit/internal/domains/item/model"
	itemDto "lendit/internal/domains/item/model/dto"
	itemRepo "lendit/internal/domains/item/repository"
	"lendit/internal/domains/request/model"
	"lendit/internal/domains/request/model/dto"
	"lendit/internal/domains/request/repository"
	userModel "lendit/internal/domains/user/model"
	userRepo "lendit/internal/domains/user/repository"
	"lendit/shared"
	"lendit/shared/cache"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
)

const cacheGetRequest = "request:get"

type ItemRequest interface {
	Create(ctx context.Context, req dto.CreateRequestRequest, callerID string) (dto.RequestResponse, error)
	GetOwn(ctx context.Context, callerID string) ([]dto.RequestResponse, error)
	GetOthers(ctx context.Context, callerID string, window gDto.PageWindow) (dto.GetRequestsResponse, error)
	Get(ctx context.Context, id, callerID string) (dto.RequestResponse, error)
}

type serviceImpl struct {
	repo     repository.ItemRequest
	itemRepo itemRepo.Item
	userRepo userRepo.User
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(
	repo repository.ItemRequest,
	items itemRepo.Item,
	users userRepo.User,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) ItemRequest {
	return &serviceImpl{
		repo:     repo,
		itemRepo: items,
		userRepo: users,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateRequestRequest, callerID string) (res dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.requireUser(ctx, callerID); err != nil {
		return res, err
	}

	request := req.ToModel(callerID)

	if err = s.repo.Insert(ctx, request); err != nil {
		log.Error().Err(err).Msg("failed to create item request")

		return res, fmt.Errorf("failed to create item request: %w", err)
	}

	res.FromModel(request)

	return res, nil
}

func (s *serviceImpl) GetOwn(ctx context.Context, callerID string) (res []dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.GetOwn")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.requireUser(ctx, callerID); err != nil {
		return nil, err
	}

	requests, err := s.repo.GetAll(
		ctx,
		gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirDesc},
		shared.FilterByID(callerID, model.FieldRequesterID, model.TableName),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to get own item requests")

		return nil, fmt.Errorf("failed to get own item requests: %w", err)
	}

	res = make([]dto.RequestResponse, len(requests))
	for i, request := range requests {
		res[i].FromModel(request)
	}

	if err = s.attachItems(ctx, res); err != nil {
		return nil, err
	}

	return res, nil
}

func (s *serviceImpl) GetOthers(ctx context.Context, callerID string, window gDto.PageWindow) (res dto.GetRequestsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.GetOthers")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	params, err := window.ToQueryParams(constant.FieldCreatedAt, gDto.SortDirDesc)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	if err = s.requireUser(ctx, callerID); err != nil {
		return res, err
	}

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldRequesterID,
				Value:    callerID,
				Operator: gDto.FilterOperatorNotEq,
				Table:    model.TableName,
			},
		},
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count item requests")

		return res, fmt.Errorf("failed to count item requests: %w", err)
	}

	requests, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get item requests")

		return res, fmt.Errorf("failed to get item requests: %w", err)
	}

	res.FromModels(requests, total, params.Limit)

	if err = s.attachItems(ctx, res.Requests); err != nil {
		return res, err
	}

	return res, nil
}

func (s *serviceImpl) Get(ctx context.Context, id, callerID string) (res dto.RequestResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".request.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if err = s.requireUser(ctx, callerID); err != nil {
		return res, err
	}

	cacheKey := shared.BuildCacheKey(cacheGetRequest, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for item request")

		return res, nil
	}

	request, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get item request")

		return res, fmt.Errorf("failed to get item request: %w", err)
	}

	if request.ID == constant.Empty {
		return res, failure.NotFound("item request not found") // nolint:wrapcheck
	}

	res.FromModel(request)

	views := []dto.RequestResponse{res}
	if err = s.attachItems(ctx, views); err != nil {
		return res, err
	}

	res = views[0]

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save item request to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) requireUser(ctx context.Context, callerID string) error {
	exist, err := s.userRepo.Exist(ctx, shared.FilterByID(callerID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if caller exists")

		return fmt.Errorf("failed to check if caller exists: %w", err)
	}

	if !exist {
		return failure.NotFound("user not found") // nolint:wrapcheck
	}

	return nil
}

// attachItems resolves the items offered against the given requests with a
// single IN query and distributes them onto the responses.
func (s *serviceImpl) attachItems(ctx context.Context, requests []dto.RequestResponse) error {
	if len(requests) == 0 {
		return nil
	}

	ids := make([]string, len(requests))
	for i, request := range requests {
		ids[i] = request.ID
	}

	items, err := s.itemRepo.GetAll(ctx, gDto.QueryParams{}, gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{
				Field:    itemModel.FieldRequestID,
				Value:    ids,
				Operator: gDto.FilterOperatorIn,
				Table:    itemModel.TableName,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to get offered items")

		return fmt.Errorf("failed to get offered items: %w", err)
	}

	byRequest := make(map[string][]itemModel.Item)

	for _, item := range items {
		if item.RequestID == nil {
			continue
		}

		byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
	}

	for i := range requests {
		for _, item := range byRequest[requests[i].ID] {
			view := itemDtoFromModel(item)
			requests[i].Items = append(requests[i].Items, view)
		}
	}

	return nil
}

func itemDtoFromModel(item itemModel.Item) (res itemDto.ItemResponse) {
	res.FromModel(item)

	return res
}
