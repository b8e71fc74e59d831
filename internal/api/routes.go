package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(h *Handler, corsOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	if len(corsOrigins) > 0 {
		r.Use(CORS(corsOrigins))
	}

	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the session and workflow routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.DeleteSession)
			r.Post("/document", h.UploadDocument)
			r.Post("/parse", h.Parse)
			r.Post("/extract/{kind}", h.Extract)
			r.Post("/coach/{kind}", h.Coach)
			r.Post("/review", h.Review)
		})
	})
}

func requestID(r *http.Request) string {
	return chiMiddleware.GetReqID(r.Context())
}
