package api

import (
	"net/http"
	"time"

	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/errs"
	"github.com/rpupo63/collage-backend/services"
	"github.com/rpupo63/collage-backend/storage"
	"github.com/rs/zerolog/log"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	responder   Responder
	startupTime time.Time
	postHandler postHandler
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(store storage.Storage, c map[string]string, startupTime time.Time) *routeHandlers {
	postService := services.NewPostService(
		store.PostRepo(),
		services.WithListingTTL(config.GetSeconds(c, "LIST_CACHE_TTL_SECONDS", 0)),
		services.WithFetchConcurrency(config.GetInt(c, "LIST_FETCH_CONCURRENCY", 8)),
	)

	return &routeHandlers{
		responder:   NewResponder(log.With().Str("handlerName", "routeHandlers").Logger()),
		startupTime: startupTime,
		postHandler: newPostHandler(postService),
	}
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error" example:"Unauthorized"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"slug"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

func (h *routeHandlers) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, map[string]interface{}{
			"status": "ok",
			"uptime": time.Since(h.startupTime).Round(time.Second).String(),
		})
	}
}

func (h *routeHandlers) preflight() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *routeHandlers) methodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewMethodNotAllowedError())
	}
}

func (h *routeHandlers) notFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteError(w, errs.NewNotFoundError("route "+r.URL.Path))
	}
}
