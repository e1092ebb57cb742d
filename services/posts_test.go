package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rpupo63/collage-backend/errs"
	"github.com/rpupo63/collage-backend/models"
	"github.com/rpupo63/collage-backend/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 7, 8, 9, 10, 11, 12_000_000, time.FixedZone("CST", 8*3600))

func setupService(t *testing.T, opts ...PostServiceOption) (*PostService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	repo := storage.New(store, storage.DefaultPrefix).PostRepo()
	opts = append([]PostServiceOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewPostService(repo, opts...), store
}

func seed(store *storage.MemoryStore, key, body string) {
	store.Seed(key, []byte(body), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestCreateStampsRecord(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, CreatePostInput{
		Slug:  "  summer  ",
		Title: "Summer",
		Date:  "2024-07-01",
		Tags:  models.TagList{"beach"},
		Items: []models.PostItem{{URL: "https://img/1.jpg", Caption: "first"}, {URL: "https://img/2.jpg"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "summer", post.Slug)
	assert.Equal(t, "2024-07-08T01:10:11.012Z", post.CreatedAt)

	raw, err := svc.Get(ctx, "summer")
	require.NoError(t, err)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Equal(t, "https://img/1.jpg", stored["preview"])
	assert.Equal(t, true, stored["visible"])
	assert.Equal(t, "Summer", stored["title"])
}

func TestCreateValidation(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	items := []models.PostItem{{URL: "https://img/1.jpg"}}

	_, err := svc.Create(ctx, CreatePostInput{Slug: "   ", Items: items})
	assert.True(t, errs.IsMissingRequiredFieldError(err))
	assert.EqualError(t, err, "slug required")

	_, err = svc.Create(ctx, CreatePostInput{Slug: "ok"})
	assert.EqualError(t, err, "items required")

	_, err = svc.Create(ctx, CreatePostInput{Slug: "a/b", Items: items})
	assert.True(t, errs.IsInvalidFieldError(err))

	_, err = svc.Create(ctx, CreatePostInput{Slug: "..", Items: items})
	assert.True(t, errs.IsInvalidFieldError(err))
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(errors.New("boom")))
}

func TestCreateWithoutPreviewURL(t *testing.T) {
	svc, _ := setupService(t)

	post, err := svc.Create(context.Background(), CreatePostInput{Slug: "blank", Items: []models.PostItem{{Caption: "no url"}}})
	require.NoError(t, err)
	assert.Nil(t, post.Preview)
}

func TestListNormalizesAndFilters(t *testing.T) {
	svc, store := setupService(t)
	seed(store, "collages/legacy/data", `{"title":"Legacy","created_at":"2023-02-01T00:00:00.000Z","items":[{"url":"https://img/l.jpg","caption":""}]}`)
	seed(store, "collages/hidden/data", `{"title":"Hidden","date":"2025-01-01","visible":false}`)
	seed(store, "collages/fresh/data.json", `{"slug":"ignored","title":"Fresh","date":"2024-09-09","tags":"a, b","preview":"https://img/p.jpg","visible":true}`)
	seed(store, "collages/broken/data", `{oops`)

	visible, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, visible, 2)

	fresh := visible[0]
	assert.Equal(t, "fresh", fresh.Slug)
	assert.Equal(t, []string{"a", "b"}, fresh.Tags)
	assert.Equal(t, []models.PostItem{}, fresh.Items)
	require.NotNil(t, fresh.Preview)
	assert.Equal(t, "https://img/p.jpg", *fresh.Preview)

	legacy := visible[1]
	assert.Equal(t, "legacy", legacy.Slug)
	assert.Equal(t, "2023-02-01T00:00:00.000Z", legacy.Date)
	assert.True(t, legacy.Visible)
	assert.Equal(t, []string{}, legacy.Tags)
	require.NotNil(t, legacy.Preview)
	assert.Equal(t, "https://img/l.jpg", *legacy.Preview)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hidden", all[0].Slug)
	assert.False(t, all[0].Visible)
	assert.Nil(t, all[0].Preview)
}

func TestListKeepsLooselyTypedRecords(t *testing.T) {
	svc, store := setupService(t)
	seed(store, "collages/a/data", `{"title":"A","date":"2024-05-01","visible":"yes"}`)
	seed(store, "collages/b/data", `{"title":"B","date":"2024-03-01","visible":true}`)
	seed(store, "collages/c/data", `{"title":"C","date":2024}`)
	seed(store, "collages/d/data", `{"title":"D","date":"2024-06-01","visible":false}`)

	visible, err := svc.List(context.Background(), false)
	require.NoError(t, err)

	var slugs []string
	for _, p := range visible {
		slugs = append(slugs, p.Slug)
	}
	assert.Equal(t, []string{"a", "b", "c"}, slugs)
	assert.Equal(t, "2024", visible[2].Date)
}

func TestListCacheInvalidatedOnWrites(t *testing.T) {
	svc, store := setupService(t, WithListingTTL(time.Hour))
	ctx := context.Background()
	seed(store, "collages/one/data", `{"title":"One","date":"2024-01-01"}`)

	posts, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	// Written behind the service's back: served from cache
	seed(store, "collages/two/data", `{"title":"Two","date":"2024-01-02"}`)
	posts, err = svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	require.NoError(t, svc.SetVisible(ctx, "one", false))
	posts, err = svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "two", posts[0].Slug)

	require.NoError(t, svc.Delete(ctx, "two"))
	posts, err = svc.List(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestSetVisibleMissing(t *testing.T) {
	svc, _ := setupService(t)

	err := svc.SetVisible(context.Background(), "ghost", false)
	assert.True(t, errs.IsNotFound(err))

	err = svc.SetVisible(context.Background(), "", false)
	assert.True(t, errs.IsMissingRequiredFieldError(err))
}

type failingRepo struct {
	PostRepository
	discoverErr error
	loads       atomic.Int32
}

func (f *failingRepo) Discover(context.Context) ([]storage.PostRef, error) {
	if f.discoverErr != nil {
		return nil, f.discoverErr
	}
	return []storage.PostRef{{Slug: "a", Key: "collages/a/data"}, {Slug: "b", Key: "collages/b/data"}}, nil
}

func (f *failingRepo) Load(ctx context.Context, ref storage.PostRef) (*models.Post, error) {
	f.loads.Add(1)
	if ref.Slug == "a" {
		return nil, errors.New("connection reset")
	}
	return &models.Post{Title: "B"}, nil
}

func TestListSkipsFailedFetches(t *testing.T) {
	repo := &failingRepo{}
	svc := NewPostService(repo, WithFetchConcurrency(1))

	posts, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "b", posts[0].Slug)
	assert.Equal(t, int32(2), repo.loads.Load())
}

func TestListPropagatesDiscoveryFailure(t *testing.T) {
	svc := NewPostService(&failingRepo{discoverErr: errors.New("search unavailable")})

	_, err := svc.List(context.Background(), true)
	assert.EqualError(t, err, "search unavailable")
}

func TestListHonorsCancelledContext(t *testing.T) {
	svc, store := setupService(t)
	seed(store, "collages/one/data", `{}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.List(ctx, false)
	assert.ErrorIs(t, err, context.Canceled)
}
