package request

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lendit/infras/otel"
	"lendit/internal/domains/request/model/dto"
	"lendit/internal/domains/request/service"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/validator"
	"lendit/transport/http/response"
)

type Handler struct {
	service service.ItemRequest
	otel    otel.Otel
}

func New(service service.ItemRequest, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/requests", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateRequest)
		routerGroup.Get("/", handler.GetOwnRequests)
		routerGroup.Get("/all", handler.GetOtherRequests)
		routerGroup.Get("/{id}", handler.GetRequestByID)
	})
}

// CreateRequest posts a new request to the board.
func (handler *Handler) CreateRequest(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRequest")
	defer scope.End()

	req := dto.CreateRequestRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	itemRequest, err := handler.service.Create(ctx, req, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create item request")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("Item request created successfully by user " + callerID)

	response.WithJSON(writer, http.StatusCreated, itemRequest)
}

// GetOwnRequests lists the caller's requests with the items offered so far.
func (handler *Handler) GetOwnRequests(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOwnRequests")
	defer scope.End()

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	requests, err := handler.service.GetOwn(ctx, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get own item requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Own item requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, requests)
}

// GetOtherRequests pages through requests posted by other users.
func (handler *Handler) GetOtherRequests(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOtherRequests")
	defer scope.End()

	window := gDto.PageWindow{}
	window.FromRequest(r)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	requests, err := handler.service.GetOthers(ctx, callerID, window)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get item requests")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Item requests retrieved successfully")

	response.WithJSON(w, http.StatusOK, requests)
}

// GetRequestByID retrieves a single request with its offered items.
func (handler *Handler) GetRequestByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRequestByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	callerID, _ := ctx.Value(constant.ContextKeyUserID).(string)

	itemRequest, err := handler.service.Get(ctx, id, callerID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get item request by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Item request retrieved successfully")

	response.WithJSON(w, http.StatusOK, itemRequest)
}
