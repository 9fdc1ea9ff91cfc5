package router

import (
	"github.com/go-chi/chi/v5"

	"lendit/internal/handlers/booking"
	"lendit/internal/handlers/item"
	"lendit/internal/handlers/request"
	"lendit/internal/handlers/user"
	"lendit/transport/http/middleware"
)

type DomainHandlers struct {
	User    user.Handler
	Item    item.Handler
	Booking booking.Handler
	Request request.Handler
}

type Router struct {
	DomainHandlers DomainHandlers
	Identity       middleware.Identity
}

func (r *Router) SetupRoutes(router chi.Router) {
	router.Route("/v1", func(routerGroup chi.Router) {
		r.DomainHandlers.User.Router(routerGroup)

		// Every other surface acts on behalf of a user forwarded by the
		// gateway, so the caller id header is mandatory there.
		routerGroup.Group(func(identified chi.Router) {
			identified.Use(r.Identity.Require)

			r.DomainHandlers.Item.Router(identified)
			r.DomainHandlers.Booking.Router(identified)
			r.DomainHandlers.Request.Router(identified)
		})
	})
}

func New(domainHandlers DomainHandlers, identity middleware.Identity) Router {
	return Router{
		DomainHandlers: domainHandlers,
		Identity:       identity,
	}
}
