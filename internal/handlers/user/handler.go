package user

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"lendit/infras/otel"
	"lendit/internal/domains/user/model/dto"
	"lendit/internal/domains/user/service"
	"lendit/shared/constant"
	gDto "lendit/shared/dto"
	"lendit/shared/validator"
	"lendit/transport/http/response"
)

type Handler struct {
	service service.User
	otel    otel.Otel
}

func New(service service.User, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/users", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.CreateUser)
		routerGroup.Get("/", handler.GetUsers)
		routerGroup.Get("/{id}", handler.GetUserByID)
		routerGroup.Patch("/{id}", handler.UpdateUser)
		routerGroup.Delete("/{id}", handler.DeleteUser)
	})
}

// CreateUser registers a new user.
func (handler *Handler) CreateUser(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateUser")
	defer scope.End()

	req := dto.CreateUserRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(writer, err)

		return
	}

	user, err := handler.service.Create(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to create user")

		response.WithError(writer, err)

		return
	}

	scope.AddEvent("User created successfully")

	response.WithJSON(writer, http.StatusCreated, user)
}

// GetUsers lists users with pagination.
func (handler *Handler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUsers")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	users, err := handler.service.GetAll(ctx, queryParams)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get users")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Users retrieved successfully")

	response.WithJSON(w, http.StatusOK, users)
}

// GetUserByID retrieves a user by its ID.
func (handler *Handler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetUserByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	user, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user by ID")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User retrieved successfully")

	response.WithJSON(w, http.StatusOK, user)
}

// UpdateUser applies a partial update to a user.
func (handler *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateUser")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.UpdateUserRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Update(ctx, req, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to update user")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User updated successfully")

	response.WithMessage(w, http.StatusOK, "User updated successfully")
}

// DeleteUser removes a user by its ID.
func (handler *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteUser")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Delete(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to delete user")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("User deleted successfully")

	response.WithMessage(w, http.StatusOK, "User deleted successfully")
}
