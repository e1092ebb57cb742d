package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rpupo63/collage-backend/config"
	"github.com/rpupo63/collage-backend/errs"
	"github.com/rs/zerolog/log"
)

const jsonExt = ".json"

// maxBlobSize bounds a single post record
const maxBlobSize = 5 << 20

// Object is one stored blob as reported by a listing
type Object struct {
	Key       string
	UpdatedAt time.Time
}

// BlobStore is the persistence contract for post records. Keys are slash
// separated paths without extension; List may report keys carrying a .json
// suffix when the store holds them that way. Get and Delete return an error
// wrapping errs.ErrNotFound for missing keys.
type BlobStore interface {
	List(ctx context.Context, prefix string) ([]Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type Storage struct {
	store    BlobStore
	postRepo *PostRepo
}

// New initializes a Storage struct with each repository sharing one blob store
func New(store BlobStore, prefix string) Storage {
	return Storage{
		store:    store,
		postRepo: NewPostRepo(store, prefix),
	}
}

func (s Storage) PostRepo() *PostRepo {
	return s.postRepo
}

func (s Storage) Store() BlobStore {
	return s.store
}

// Open builds the backend named by STORAGE_BACKEND.
func Open(ctx context.Context, cfg map[string]string) (Storage, error) {
	prefix := config.GetString(cfg, "POSTS_PREFIX", DefaultPrefix)
	backend := strings.ToLower(config.GetString(cfg, "STORAGE_BACKEND", "cloudinary"))

	var store BlobStore
	switch backend {
	case "cloudinary":
		cloudName := config.GetString(cfg, "CLD_CLOUD_NAME", "")
		if cloudName == "" {
			return Storage{}, errs.NewConfigMissingError("CLD_CLOUD_NAME")
		}
		var opts []CloudinaryOption
		if base := config.GetString(cfg, "CLD_DELIVERY_BASE_URL", ""); base != "" {
			opts = append(opts, WithDeliveryBaseURL(base))
		}
		if base := config.GetString(cfg, "CLD_API_BASE_URL", ""); base != "" {
			opts = append(opts, WithAPIBaseURL(base))
		}
		cld, err := NewCloudinaryStore(
			cloudName,
			config.GetString(cfg, "CLD_API_KEY", ""),
			config.GetString(cfg, "CLD_API_SECRET", ""),
			opts...,
		)
		if err != nil {
			return Storage{}, err
		}
		store = cld
	case "s3":
		bucket := config.GetString(cfg, "S3_BUCKET", "")
		if bucket == "" {
			return Storage{}, errs.NewConfigMissingError("S3_BUCKET")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return Storage{}, fmt.Errorf("load aws config: %w", err)
		}
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if endpoint := config.GetString(cfg, "S3_ENDPOINT", ""); endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			}
		})
		store = NewS3Store(client, bucket)
	case "memory":
		store = NewMemoryStore()
	default:
		return Storage{}, fmt.Errorf("unsupported STORAGE_BACKEND %q", backend)
	}

	log.Info().Str("backend", backend).Str("prefix", prefix).Msg("Storage initialized")
	return New(store, prefix), nil
}

func withJSONExt(key string) string {
	if strings.HasSuffix(key, jsonExt) {
		return key
	}
	return key + jsonExt
}

// readBlob reads a whole record, failing instead of truncating when it is
// larger than maxBlobSize.
func readBlob(r io.Reader, name string) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBlobSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if len(body) > maxBlobSize {
		return nil, fmt.Errorf("%s: %w (limit %d bytes)", name, errs.ErrRecordTooLarge, maxBlobSize)
	}
	return body, nil
}
