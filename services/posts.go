package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rpupo63/collage-backend/errs"
	"github.com/rpupo63/collage-backend/models"
	"github.com/rpupo63/collage-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// createdAtLayout matches JavaScript's Date.toISOString
const createdAtLayout = "2006-01-02T15:04:05.000Z"

const defaultFetchConcurrency = 8

// PostRepository is the storage contract PostService depends on
type PostRepository interface {
	Discover(ctx context.Context) ([]storage.PostRef, error)
	Load(ctx context.Context, ref storage.PostRef) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string) ([]byte, error)
	Save(ctx context.Context, post *models.Post) error
	SetVisible(ctx context.Context, slug string, visible bool) error
	Delete(ctx context.Context, slug string) error
}

// CreatePostInput is the body accepted when creating a post
type CreatePostInput struct {
	Slug  string            `json:"slug"`
	Title string            `json:"title"`
	Date  string            `json:"date"`
	Tags  models.TagList    `json:"tags"`
	Items []models.PostItem `json:"items"`
}

type PostServiceOption func(*PostService)

// WithListingTTL caches the reconciled listing for ttl.
func WithListingTTL(ttl time.Duration) PostServiceOption {
	return func(s *PostService) {
		s.cacheTTL = ttl
	}
}

// WithFetchConcurrency bounds the number of records fetched in parallel.
func WithFetchConcurrency(n int) PostServiceOption {
	return func(s *PostService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock sets the clock used to stamp created_at.
func WithClock(now func() time.Time) PostServiceOption {
	return func(s *PostService) {
		s.now = now
	}
}

// PostService implements the post use cases on top of a PostRepository
type PostService struct {
	repo        PostRepository
	cache       *ListingCache
	cacheTTL    time.Duration
	concurrency int
	now         func() time.Time
	logger      zerolog.Logger
}

func NewPostService(repo PostRepository, opts ...PostServiceOption) *PostService {
	s := &PostService{
		repo:        repo,
		concurrency: defaultFetchConcurrency,
		now:         time.Now,
		logger:      log.With().Str("service", "posts").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cache = NewListingCache(s.cacheTTL, s.reconcile)
	return s
}

// List returns the normalized listing, newest first.
//
// Parameters:
//   - showHidden: include posts whose visible flag is false
//
// Records that cannot be fetched or decoded are skipped and logged; only a
// failure to list the store (or a cancelled context) fails the call.
func (s *PostService) List(ctx context.Context, showHidden bool) ([]models.PostSummary, error) {
	all, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}
	if showHidden {
		out := make([]models.PostSummary, len(all))
		copy(out, all)
		return out, nil
	}
	return FilterVisible(all), nil
}

func (s *PostService) reconcile(ctx context.Context) ([]models.PostSummary, error) {
	refs, err := s.repo.Discover(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.PostSummary, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			post, err := s.repo.Load(gctx, ref)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn().Err(err).Str("slug", ref.Slug).Str("key", ref.Key).Msg("Skipping unreadable post record")
				return nil
			}
			summary := post.Summarize(ref.Slug)
			loaded[i] = &summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries := make([]models.PostSummary, 0, len(loaded))
	for _, summary := range loaded {
		if summary != nil {
			summaries = append(summaries, *summary)
		}
	}
	SortNewestFirst(summaries)

	s.logger.Debug().Int("discovered", len(refs)).Int("loaded", len(summaries)).Msg("Reconciled post listing")
	return summaries, nil
}

// Get returns the stored record for slug as raw JSON
func (s *PostService) Get(ctx context.Context, slug string) ([]byte, error) {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	return s.repo.FindBySlug(ctx, slug)
}

// Create stores a new record, overwriting any record with the same slug.
func (s *PostService) Create(ctx context.Context, input CreatePostInput) (*models.Post, error) {
	slug, err := NormalizeSlug(input.Slug)
	if err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, errs.NewMissingRequiredFieldError("items")
	}

	var preview *string
	if url := input.Items[0].URL; url != "" {
		preview = &url
	}
	visible := true

	post := &models.Post{
		Slug:      slug,
		Title:     input.Title,
		Date:      input.Date,
		Tags:      input.Tags,
		Items:     input.Items,
		CreatedAt: s.now().UTC().Format(createdAtLayout),
		Preview:   preview,
		Visible:   &visible,
	}
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, err
	}
	s.cache.Invalidate()

	s.logger.Info().Str("slug", slug).Int("items", len(post.Items)).Msg("Post saved")
	return post, nil
}

// SetVisible changes the visibility of an existing post
func (s *PostService) SetVisible(ctx context.Context, slug string, visible bool) error {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if err := s.repo.SetVisible(ctx, slug, visible); err != nil {
		return err
	}
	s.cache.Invalidate()

	s.logger.Info().Str("slug", slug).Bool("visible", visible).Msg("Post visibility updated")
	return nil
}

// Delete removes a post
func (s *PostService) Delete(ctx context.Context, slug string) error {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, slug); err != nil {
		return err
	}
	s.cache.Invalidate()

	s.logger.Info().Str("slug", slug).Msg("Post deleted")
	return nil
}

// NormalizeSlug trims slug and rejects values that cannot be used as a
// single storage path segment.
func NormalizeSlug(slug string) (string, error) {
	slug = strings.TrimSpace(slug)
	switch {
	case slug == "":
		return "", errs.NewMissingRequiredFieldError("slug")
	case slug == "." || slug == "..":
		return "", errs.NewInvalidFieldError("slug", "reserved name")
	case strings.ContainsAny(slug, `/\?#`):
		return "", errs.NewInvalidFieldError("slug", `must not contain / \ ? or #`)
	}
	return slug, nil
}

// IsValidationError reports whether err was caused by bad input
func IsValidationError(err error) bool {
	var apiErr *errs.ApiErr
	return errors.As(err, &apiErr) && apiErr.StatusCode < 500
}
