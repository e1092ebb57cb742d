package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rpupo63/collage-backend/errs"
	"github.com/rpupo63/collage-backend/models"
)

// DefaultPrefix is the folder every post record lives under
const DefaultPrefix = "collages"

// PostRef points at the stored object chosen for a slug
type PostRef struct {
	Slug      string
	Key       string
	UpdatedAt time.Time
}

type PostRepo struct {
	store   BlobStore
	prefix  string
	keyExpr *regexp.Regexp
}

func NewPostRepo(store BlobStore, prefix string) *PostRepo {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &PostRepo{
		store:   store,
		prefix:  prefix,
		keyExpr: regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `/([^/]+)/data(\.json)?$`),
	}
}

// Key returns the storage key of the record for slug
func (r *PostRepo) Key(slug string) string {
	return r.prefix + "/" + slug + "/data"
}

// Discover lists every record under the prefix. A slug stored both as
// data and data.json resolves to the most recently updated object; on a
// tie the key without suffix wins. Results are ordered by slug.
func (r *PostRepo) Discover(ctx context.Context) ([]PostRef, error) {
	objects, err := r.store.List(ctx, r.prefix+"/")
	if err != nil {
		return nil, err
	}
	return r.reconcile(objects), nil
}

func (r *PostRepo) reconcile(objects []Object) []PostRef {
	bySlug := make(map[string]PostRef)
	for _, obj := range objects {
		m := r.keyExpr.FindStringSubmatch(obj.Key)
		if m == nil {
			continue
		}
		ref := PostRef{Slug: m[1], Key: obj.Key, UpdatedAt: obj.UpdatedAt}

		current, seen := bySlug[ref.Slug]
		if !seen || preferRef(ref, current) {
			bySlug[ref.Slug] = ref
		}
	}

	refs := make([]PostRef, 0, len(bySlug))
	for _, ref := range bySlug {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Slug < refs[j].Slug })
	return refs
}

func preferRef(candidate, current PostRef) bool {
	if !candidate.UpdatedAt.Equal(current.UpdatedAt) {
		return candidate.UpdatedAt.After(current.UpdatedAt)
	}
	return !strings.HasSuffix(candidate.Key, jsonExt) && strings.HasSuffix(current.Key, jsonExt)
}

// Load fetches and decodes the record behind ref
func (r *PostRepo) Load(ctx context.Context, ref PostRef) (*models.Post, error) {
	raw, err := r.store.Get(ctx, ref.Key)
	if err != nil {
		return nil, err
	}

	var post models.Post
	if err := json.Unmarshal(raw, &post); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", ref.Key, errs.ErrCorruptRecord, err)
	}
	return &post, nil
}

// FindBySlug returns the stored record bytes untouched, read from the same
// representation Discover would pick.
func (r *PostRepo) FindBySlug(ctx context.Context, slug string) ([]byte, error) {
	ref, err := r.resolve(ctx, slug)
	if err != nil {
		return nil, err
	}
	return r.store.Get(ctx, ref.Key)
}

// resolve picks the object backing slug. When the listing has nothing yet
// (search indexes lag behind uploads) the canonical key is returned and the
// read decides whether the record exists.
func (r *PostRepo) resolve(ctx context.Context, slug string) (PostRef, error) {
	objects, err := r.store.List(ctx, r.prefix+"/"+slug+"/")
	if err != nil {
		return PostRef{}, err
	}
	for _, ref := range r.reconcile(objects) {
		if ref.Slug == slug {
			return ref, nil
		}
	}
	return PostRef{Slug: slug, Key: r.Key(slug)}, nil
}

// Save overwrites the record for post.Slug
func (r *PostRepo) Save(ctx context.Context, post *models.Post) error {
	data, err := json.Marshal(post)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, r.Key(post.Slug), data)
}

// SetVisible rewrites the visible flag of the current record, keeping every
// other field as stored. The result goes to the canonical key, which then
// becomes the newest representation.
func (r *PostRepo) SetVisible(ctx context.Context, slug string, visible bool) error {
	ref, err := r.resolve(ctx, slug)
	if err != nil {
		return err
	}
	raw, err := r.store.Get(ctx, ref.Key)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var record map[string]interface{}
	if err := decoder.Decode(&record); err != nil || record == nil {
		if err == nil {
			err = errors.New("record is not an object")
		}
		return fmt.Errorf("%s: %w: %v", ref.Key, errs.ErrCorruptRecord, err)
	}

	record["visible"] = visible
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, r.Key(slug), data)
}

// Delete removes every stored representation of slug
func (r *PostRepo) Delete(ctx context.Context, slug string) error {
	objects, err := r.store.List(ctx, r.prefix+"/"+slug+"/")
	if err != nil {
		return err
	}

	deleted := 0
	for _, obj := range objects {
		m := r.keyExpr.FindStringSubmatch(obj.Key)
		if m == nil || m[1] != slug {
			continue
		}
		if err := r.store.Delete(ctx, obj.Key); err != nil && !errs.IsNotFound(err) {
			return err
		}
		deleted++
	}

	if deleted == 0 {
		return fmt.Errorf("post %s: %w", slug, errs.ErrNotFound)
	}
	return nil
}
