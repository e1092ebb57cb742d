package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rpupo63/collage-backend/errs"
	"github.com/rpupo63/collage-backend/models"
	"github.com/rpupo63/collage-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// maxBodySize bounds request bodies; records only carry URLs and captions
const maxBodySize = 1 << 20

type postHandler struct {
	responder   Responder
	logger      zerolog.Logger
	postService *services.PostService
}

func newPostHandler(postService *services.PostService) postHandler {
	logger := log.With().Str("handlerName", "postHandler").Logger()

	return postHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		postService: postService,
	}
}

// PostListResponse is the body of the listing endpoint
type PostListResponse struct {
	Items []models.PostSummary `json:"items"`
}

// PostMutationResponse acknowledges a write
type PostMutationResponse struct {
	OK      bool   `json:"ok"`
	Slug    string `json:"slug"`
	Visible *bool  `json:"visible,omitempty"`
}

type updateVisibleRequest struct {
	Slug    string          `json:"slug"`
	Visible json.RawMessage `json:"visible"`
}

type deletePostRequest struct {
	Slug string `json:"slug"`
}

// listPosts returns the reconciled post listing
// @Summary List posts
// @Description Lists visible posts newest first; showHidden=1 includes hidden posts and requires an admin token
// @Tags Posts
// @Produce json
// @Param showHidden query string false "1 to include hidden posts"
// @Success 200 {object} PostListResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse
// @Router /list-posts [get]
func (h postHandler) listPosts(authMiddleware authMiddleware) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		showHidden := r.URL.Query().Get("showHidden") == "1"
		if showHidden {
			if _, err := authMiddleware.checkAdmin(r); err != nil {
				h.responder.WriteError(w, err)
				return
			}
		}

		posts, err := h.postService.List(r.Context(), showHidden)
		if err != nil {
			h.responder.WriteError(w, wrapStorageError("list", "posts", err))
			return
		}

		h.responder.WriteJSON(w, PostListResponse{Items: posts})
	}
}

// getPost returns one stored record as is
// @Summary Get post
// @Tags Posts
// @Produce json
// @Param slug query string true "Post slug"
// @Success 200 {object} models.Post
// @Failure 400 {object} ErrorResponse "slug required"
// @Failure 404 {object} ErrorResponse "post not found"
// @Router /get-post [get]
func (h postHandler) getPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := h.postService.Get(r.Context(), r.URL.Query().Get("slug"))
		if err != nil {
			h.responder.WriteError(w, wrapStorageError("find", "post", err))
			return
		}

		if !json.Valid(raw) {
			h.responder.WriteError(w, wrapStorageError("decode", "post", errs.ErrCorruptRecord))
			return
		}
		h.responder.WriteJSON(w, json.RawMessage(raw))
	}
}

// createPost stores a post record, replacing any record with the same slug
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param post body services.CreatePostInput true "Post data"
// @Success 200 {object} PostMutationResponse
// @Failure 400 {object} ErrorResponse "Invalid body, slug required or items required"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /create-post [post]
func (h postHandler) createPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input services.CreatePostInput
		if err := h.decodeBody(w, r, &input); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		post, err := h.postService.Create(r.Context(), input)
		if err != nil {
			if services.IsValidationError(err) {
				h.logger.Debug().Err(err).Str("slug", input.Slug).Msg("Rejected post")
			}
			h.responder.WriteError(w, wrapStorageError("save", "post", err))
			return
		}

		h.logger.Info().Str("slug", post.Slug).Str("admin", adminSubject(r)).Msg("Post created")
		h.responder.WriteJSON(w, PostMutationResponse{OK: true, Slug: post.Slug})
	}
}

// updateVisible shows or hides a post. Only a JSON false hides; any other
// value, including a missing field, makes the post visible.
// @Summary Update post visibility
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PostMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /update-visible [post]
func (h postHandler) updateVisible() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateVisibleRequest
		if err := h.decodeBody(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		visible := !bytes.Equal(bytes.TrimSpace(req.Visible), []byte("false"))
		slug, err := services.NormalizeSlug(req.Slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.postService.SetVisible(r.Context(), slug, visible); err != nil {
			h.responder.WriteError(w, wrapStorageError("update", "post", err))
			return
		}

		h.responder.WriteJSON(w, PostMutationResponse{OK: true, Slug: slug, Visible: &visible})
	}
}

// deletePost removes a post. The slug is read from the query string or
// from a JSON body.
// @Summary Delete post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param slug query string false "Post slug"
// @Success 200 {object} PostMutationResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /delete-post [post]
// @Router /delete-post [delete]
func (h postHandler) deletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.URL.Query().Get("slug")
		if slug == "" && r.ContentLength != 0 {
			var req deletePostRequest
			if err := h.decodeBody(w, r, &req); err != nil {
				h.responder.WriteError(w, err)
				return
			}
			slug = req.Slug
		}

		slug, err := services.NormalizeSlug(slug)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.postService.Delete(r.Context(), slug); err != nil {
			h.responder.WriteError(w, wrapStorageError("delete", "post", err))
			return
		}

		h.logger.Info().Str("slug", slug).Str("admin", adminSubject(r)).Msg("Post deleted")
		h.responder.WriteJSON(w, PostMutationResponse{OK: true, Slug: slug})
	}
}

func adminSubject(r *http.Request) string {
	if claims := ctxGetAdmin(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}

// decodeBody reads a JSON body into dst. A body of null leaves dst untouched.
func (h postHandler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return errs.NewMaxBodySizeExceededError(maxBodySize)
		}
		h.logger.Error().Err(err).Msg("Failed to read request body")
		return errs.NewBadRequestError("failed to read request body")
	}

	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		h.logger.Debug().Err(err).Int("bodySize", len(bodyBytes)).Msg("Failed to decode request body")
		return errs.NewInvalidJSONError(err)
	}
	return nil
}
