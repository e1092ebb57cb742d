package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rpupo63/collage-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	cloudinaryResourceType = "raw"
	searchPageSize         = 100
)

// searchSpecialChars must be escaped inside a search expression value
const searchSpecialChars = `!(){}[]^~?:\=&><" `

type CloudinaryOption func(*CloudinaryStore)

// WithDeliveryBaseURL overrides https://res.cloudinary.com/<cloud>.
func WithDeliveryBaseURL(base string) CloudinaryOption {
	return func(s *CloudinaryStore) {
		s.deliveryBase = strings.TrimSuffix(base, "/")
	}
}

// WithAPIBaseURL overrides https://api.cloudinary.com for both the Admin and
// Upload APIs.
func WithAPIBaseURL(base string) CloudinaryOption {
	return func(s *CloudinaryStore) {
		base = strings.TrimSuffix(base, "/")
		s.cld.Config.API.UploadPrefix = base
		s.cld.Admin.Config.API.UploadPrefix = base
		s.cld.Upload.Config.API.UploadPrefix = base
	}
}

func WithHTTPClient(client *http.Client) CloudinaryOption {
	return func(s *CloudinaryStore) {
		s.httpClient = client
	}
}

// CloudinaryStore keeps post records as raw JSON assets. Listing goes
// through the Admin Search API, reads through the public delivery URL.
type CloudinaryStore struct {
	cld          *cloudinary.Cloudinary
	deliveryBase string
	httpClient   *http.Client
	logger       zerolog.Logger
}

func NewCloudinaryStore(cloudName, apiKey, apiSecret string, opts ...CloudinaryOption) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary client: %w", err)
	}

	s := &CloudinaryStore{
		cld:          cld,
		deliveryBase: "https://res.cloudinary.com/" + url.PathEscape(cloudName),
		httpClient:   &http.Client{Timeout: 15 * time.Second},
		logger:       log.With().Str("component", "cloudinaryStore").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *CloudinaryStore) List(ctx context.Context, prefix string) ([]Object, error) {
	expression := fmt.Sprintf("resource_type:%s AND public_id:%s*", cloudinaryResourceType, escapeSearchValue(prefix))

	var (
		out    []Object
		cursor string
	)
	for {
		res, err := s.cld.Admin.Search(ctx, search.Query{
			Expression: expression,
			MaxResults: searchPageSize,
			NextCursor: cursor,
		})
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", expression, err)
		}
		if res.Error.Message != "" {
			return nil, fmt.Errorf("search %q: %s", expression, res.Error.Message)
		}

		for _, asset := range res.Assets {
			out = append(out, Object{Key: asset.PublicID, UpdatedAt: asset.CreatedAt})
		}

		if res.NextCursor == "" {
			break
		}
		cursor = res.NextCursor
	}

	s.logger.Debug().Str("expression", expression).Int("count", len(out)).Msg("Listed raw assets")
	return out, nil
}

func (s *CloudinaryStore) Get(ctx context.Context, key string) ([]byte, error) {
	deliveryURL := s.deliveryURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, deliveryURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", deliveryURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("object %s: %w", key, errs.ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", deliveryURL, resp.StatusCode)
	}

	return readBlob(resp.Body, key)
}

func (s *CloudinaryStore) Put(ctx context.Context, key string, data []byte) error {
	publicID := strings.TrimSuffix(key, jsonExt)
	dataURI := "data:application/json;base64," + base64.StdEncoding.EncodeToString(data)

	res, err := s.cld.Upload.Upload(ctx, dataURI, uploader.UploadParams{
		PublicID:     publicID,
		ResourceType: cloudinaryResourceType,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		Format:       "json",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("upload %s: %s", publicID, res.Error.Message)
	}

	s.logger.Debug().Str("publicID", publicID).Str("url", res.SecureURL).Msg("Uploaded raw asset")
	return nil
}

func (s *CloudinaryStore) Delete(ctx context.Context, key string) error {
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     key,
		ResourceType: cloudinaryResourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("destroy %s: %w", key, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("destroy %s: %s", key, res.Error.Message)
	}

	switch res.Result {
	case "ok":
		return nil
	case "not found":
		return fmt.Errorf("object %s: %w", key, errs.ErrNotFound)
	default:
		return errors.New("destroy " + key + ": " + res.Result)
	}
}

func (s *CloudinaryStore) deliveryURL(key string) string {
	segments := strings.Split(withJSONExt(key), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return s.deliveryBase + "/" + cloudinaryResourceType + "/upload/" + strings.Join(segments, "/")
}

func escapeSearchValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		if strings.ContainsRune(searchSpecialChars, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
