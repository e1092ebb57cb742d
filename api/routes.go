package api

import (
	"github.com/go-chi/chi/v5"
)

var endpointPaths = []string{"/health", "/list-posts", "/get-post", "/create-post", "/update-visible", "/delete-post"}

// setupRoutes registers every endpoint on r. Paths mirror the function names
// the frontend calls.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.NotFound(handlers.notFound())
	r.MethodNotAllowed(handlers.methodNotAllowed())

	r.Group(func(r chi.Router) {
		r.Use(ColoredHTTPLoggingMiddleware)

		for _, path := range endpointPaths {
			r.Options(path, handlers.preflight())
		}

		r.Get("/health", handlers.health())

		// Public endpoints
		r.Get("/list-posts", handlers.postHandler.listPosts(authMiddleware))
		r.Get("/get-post", handlers.postHandler.getPost())

		// Admin endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireAdmin)

			r.Post("/create-post", handlers.postHandler.createPost())
			r.Post("/update-visible", handlers.postHandler.updateVisible())
			r.Post("/delete-post", handlers.postHandler.deletePost())
			r.Delete("/delete-post", handlers.postHandler.deletePost())
		})
	})
}
