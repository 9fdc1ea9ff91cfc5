package item

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lendit/infras/otel"
	"lendit/internal/domains/item/model/dto"
	"lendit/internal/domains/item/service"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/validator"
	"lendit/transport/http/response"
)

type Handler struct {
	service service.Item
	otel    otel.Otel
}

func New(service service.Item, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/items", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateItem)
		routerGroup.Get("/", handler.GetOwnItems)
		routerGroup.Get("/search", handler.SearchItems)
		routerGroup.Get("/{id}", handler.GetItemByID)
		routerGroup.Patch("/{id}", handler.UpdateItem)
		routerGroup.Post("/{id}/comment", handler.AddComment)
	})
}

// CreateItem lists a new item owned by the caller.
func (handler *Handler) CreateItem(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateItem")
	defer scope.End()

	req := dto.CreateItemRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	item, err := handler.service.Create(ctx, req, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create item")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Item created successfully by user " + callerID)

	response.WithJSON(writer, http.StatusCreated, item)
}

// GetOwnItems lists the caller's items.
func (handler *Handler) GetOwnItems(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOwnItems")
	defer scope.End()

	window := gDto.PageWindow{}
	window.FromRequest(r)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	items, err := handler.service.GetForOwner(ctx, callerID, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get own items")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Own items retrieved successfully")

	response.WithJSON(w, http.StatusOK, items)
}

// SearchItems finds available items matching the text query.
func (handler *Handler) SearchItems(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchItems")
	defer scope.End()

	window := gDto.PageWindow{}
	window.FromRequest(r)

	text := r.URL.Query().Get(constant.RequestParamText)

	items, err := handler.service.Search(ctx, text, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to search items")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Items searched successfully")

	response.WithJSON(w, http.StatusOK, items)
}

// GetItemByID retrieves an item with its comments.
func (handler *Handler) GetItemByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetItemByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	item, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get item by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Item retrieved successfully")

	response.WithJSON(w, http.StatusOK, item)
}

// UpdateItem applies a partial update to an item owned by the caller.
func (handler *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateItem")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateItemRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err := handler.service.Update(ctx, req, id, callerID); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update item")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Item updated successfully by user " + callerID)

	response.WithMessage(w, http.StatusOK, "Item updated successfully")
}

// AddComment stores a review from a past booker of the item.
func (handler *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".AddComment")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.CreateCommentRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	comment, err := handler.service.AddComment(ctx, req, id, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to add comment")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Comment added successfully by user " + callerID)

	response.WithJSON(w, http.StatusCreated, comment)
}
