package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"lendit/config"
	"lendit/infras/otel"
	bookingModel "lendit/internal/domains/booking/model"
	bookingRepo "lendit/internal/domains/booking/repository"
	"lendit/internal/domains/item/model"
	"lendit/internal/domains/item/model/dto"
	"lendit/internal/domains/item/repository"
	userModel "lendit/internal/domains/user/model"
	userRepo "lendit/internal/domains/user/repository"
	"lendit/shared"
	"lendit/shared/cache"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/failure"
	"lendit/shared/timezone"
)

const (
	cacheGetItem    = "item:get"
	cacheGetAllItem = "item:gets"
	cacheSearchItem = "item:search"
)

type Item interface {
	Create(ctx context.Context, req dto.CreateItemRequest, callerID string) (dto.ItemResponse, error)
	Update(ctx context.Context, req dto.UpdateItemRequest, id, callerID string) error
	Get(ctx context.Context, id string) (dto.ItemDetailResponse, error)
	GetForOwner(ctx context.Context, callerID string, window gDto.PageWindow) (dto.GetItemsResponse, error)
	Search(ctx context.Context, text string, window gDto.PageWindow) (dto.GetItemsResponse, error)
	AddComment(ctx context.Context, req dto.CreateCommentRequest, itemID, callerID string) (dto.CommentResponse, error)
}

type serviceImpl struct {
	repo        repository.Item
	commentRepo repository.Comment
	userRepo    userRepo.User
	bookingRepo bookingRepo.Booking
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Item,
	commentRepo repository.Comment,
	users userRepo.User,
	bookings bookingRepo.Booking,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Item {
	return &serviceImpl{
		repo:        repo,
		commentRepo: commentRepo,
		userRepo:    users,
		bookingRepo: bookings,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

func (s *serviceImpl) Create(ctx context.Context, req dto.CreateItemRequest, callerID string) (res dto.ItemResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.Create")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	ownerExist, err := s.userRepo.Exist(ctx, shared.FilterByID(callerID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if owner exists")

		return res, fmt.Errorf("failed to check if owner exists: %w", err)
	}

	if !ownerExist {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	item := req.ToModel(callerID)

	if err = s.repo.Insert(ctx, item); err != nil {
		log.Error().Err(err).Msg("failed to create item")

		return res, fmt.Errorf("failed to create item: %w", err)
	}

	res.FromModel(item)

	go func() {
		c := context.WithoutCancel(ctx)

		shared.InvalidateCaches(c, s.cache, cacheGetAllItem)
		shared.InvalidateCaches(c, s.cache, cacheSearchItem)
	}()

	return res, nil
}

func (s *serviceImpl) Update(ctx context.Context, req dto.UpdateItemRequest, id, callerID string) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.Update")
	defer scope.End()

	if req.IsEmpty() {
		return failure.BadRequestFromString("update request cannot be empty") // nolint:wrapcheck
	}

	filter := shared.FilterByID(id, model.FieldID, model.TableName)

	item, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get item")

		return fmt.Errorf("failed to get item: %w", err)
	}

	if item.ID == constant.Empty {
		return failure.NotFound("item not found") // nolint:wrapcheck
	}

	if item.OwnerID != callerID {
		return failure.Forbidden("only the owner can update an item") // nolint:wrapcheck
	}

	updatedFields := shared.TransformFields(req, callerID)
	if err := s.repo.Update(ctx, updatedFields, filter); err != nil {
		log.Error().Err(err).Msg("failed to update item")

		return fmt.Errorf("failed to update item: %w", err)
	}

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetItem, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete item from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllItem)
		shared.InvalidateCaches(c, s.cache, cacheSearchItem)
	}()

	return nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ItemDetailResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	cacheKey := shared.BuildCacheKey(cacheGetItem, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for item")

		return res, nil
	}

	item, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get item")

		return res, fmt.Errorf("failed to get item: %w", err)
	}

	if item.ID == constant.Empty {
		return res, failure.NotFound("item not found") // nolint:wrapcheck
	}

	comments, err := s.commentRepo.GetAll(
		ctx,
		gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: gDto.SortDirDesc},
		shared.FilterByID(id, model.CommentFieldItemID, model.CommentTableName),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to get item comments")

		return res, fmt.Errorf("failed to get item comments: %w", err)
	}

	res.FromModels(item, comments)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save item to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetForOwner(ctx context.Context, callerID string, window gDto.PageWindow) (res dto.GetItemsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.GetForOwner")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	params, err := window.ToQueryParams(constant.FieldCreatedAt, gDto.SortDirAsc)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	filter := shared.FilterByID(callerID, model.FieldOwnerID, model.TableName)
	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllItem, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for owner items")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count owner items")

		return res, fmt.Errorf("failed to count owner items: %w", err)
	}

	items, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get owner items")

		return res, fmt.Errorf("failed to get owner items: %w", err)
	}

	res.FromModels(items, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save owner items to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) Search(ctx context.Context, text string, window gDto.PageWindow) (res dto.GetItemsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.Search")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if text == constant.Empty {
		res.Items = []dto.ItemResponse{}
		res.TotalPage = 1

		return res, nil
	}

	params, err := window.ToQueryParams(constant.FieldCreatedAt, gDto.SortDirAsc)
	if err != nil {
		return res, err // nolint:wrapcheck
	}

	filter := searchFilter(text)
	cacheKey := shared.BuildCacheKeyWithQuery(cacheSearchItem, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for item search")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count matching items")

		return res, fmt.Errorf("failed to count matching items: %w", err)
	}

	items, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to search items")

		return res, fmt.Errorf("failed to search items: %w", err)
	}

	res.FromModels(items, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save item search to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) AddComment(ctx context.Context, req dto.CreateCommentRequest, itemID, callerID string) (res dto.CommentResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".item.AddComment")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	author, err := s.userRepo.Get(ctx, shared.FilterByID(callerID, userModel.FieldID, userModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get comment author")

		return res, fmt.Errorf("failed to get comment author: %w", err)
	}

	if author.ID == constant.Empty {
		return res, failure.NotFound("user not found") // nolint:wrapcheck
	}

	itemExist, err := s.repo.Exist(ctx, shared.FilterByID(itemID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if item exists")

		return res, fmt.Errorf("failed to check if item exists: %w", err)
	}

	if !itemExist {
		return res, failure.NotFound("item not found") // nolint:wrapcheck
	}

	eligible, err := s.bookingRepo.Exist(ctx, finishedBookingFilter(itemID, callerID))
	if err != nil {
		log.Error().Err(err).Msg("failed to check comment eligibility")

		return res, fmt.Errorf("failed to check comment eligibility: %w", err)
	}

	if !eligible {
		return res, failure.BadRequestFromString("commenting requires a finished booking of the item") // nolint:wrapcheck
	}

	comment := req.ToModel(itemID, callerID)
	comment.AuthorName = author.Name

	if err = s.commentRepo.Insert(ctx, comment); err != nil {
		log.Error().Err(err).Msg("failed to create comment")

		return res, fmt.Errorf("failed to create comment: %w", err)
	}

	res.FromModel(comment)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetItem, itemID)); err != nil {
			log.Error().Err(err).Msg("failed to delete item from cache")
		}
	}()

	return res, nil
}

// searchFilter matches available items whose name or description contains the
// text, case-insensitively.
func searchFilter(text string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldAvailable,
				Value:    true,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.FilterGroup{
				Operator: gDto.FilterGroupOperatorOr,
				Filters: []any{
					gDto.Filter{
						ArgName:  "search_name",
						Field:    model.FieldName,
						Value:    text,
						Operator: gDto.FilterOperatorLike,
						Table:    model.TableName,
					},
					gDto.Filter{
						ArgName:  "search_description",
						Field:    model.FieldDescription,
						Value:    text,
						Operator: gDto.FilterOperatorLike,
						Table:    model.TableName,
					},
				},
			},
		},
	}
}

// finishedBookingFilter matches an approved booking of the item by the caller
// that already ended. Holding one is what entitles a user to comment.
func finishedBookingFilter(itemID, callerID string) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    bookingModel.FieldItemID,
				Value:    itemID,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldBookerID,
				Value:    callerID,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldStatus,
				Value:    bookingModel.StatusApproved,
				Operator: gDto.FilterOperatorEq,
				Table:    bookingModel.TableName,
			},
			gDto.Filter{
				Field:    bookingModel.FieldEndDate,
				Value:    timezone.Now(),
				Operator: gDto.FilterOperatorLess,
				Table:    bookingModel.TableName,
			},
		},
	}
}
