package storage

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/oklog/ulid/v2"
	"google.golang.org/api/option"
)

const maxImageSize = 5 << 20

var (
	// ErrContentTypeDenied is returned for uploads outside the image whitelist.
	ErrContentTypeDenied = errors.New("storage: content type not allowed")
	// ErrImageTooLarge is returned when the upload exceeds the size cap.
	ErrImageTooLarge = errors.New("storage: image exceeds maximum size")
)

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

// ObjectWriter persists a single object and reports the bytes written.
type ObjectWriter interface {
	Write(ctx context.Context, object string, contentType string, r io.Reader) (int64, error)
}

// ImageStore uploads product images to a bucket and returns their public URLs.
type ImageStore struct {
	writer          ObjectWriter
	bucket          string
	publicURLPrefix string
	entropy         io.Reader
	now             func() time.Time
}

// ImageStoreOption customises ImageStore construction.
type ImageStoreOption func(*ImageStore)

// WithObjectWriter injects a custom object writer (primarily for tests).
func WithObjectWriter(writer ObjectWriter) ImageStoreOption {
	return func(s *ImageStore) {
		s.writer = writer
	}
}

// WithClock injects a custom clock.
func WithClock(clock func() time.Time) ImageStoreOption {
	return func(s *ImageStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithEntropy injects the randomness source used for object names.
func WithEntropy(r io.Reader) ImageStoreOption {
	return func(s *ImageStore) {
		if r != nil {
			s.entropy = r
		}
	}
}

// NewImageStore constructs an ImageStore writing to the named bucket. When no
// custom writer is supplied a Cloud Storage client is created lazily on first use.
func NewImageStore(bucket, publicURLPrefix string, opts ...ImageStoreOption) (*ImageStore, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	store := &ImageStore{
		bucket:          bucket,
		publicURLPrefix: strings.TrimRight(strings.TrimSpace(publicURLPrefix), "/"),
		entropy:         rand.Reader,
		now:             time.Now,
	}
	if store.publicURLPrefix == "" {
		store.publicURLPrefix = "https://storage.googleapis.com/" + bucket
	}
	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}
	if store.writer == nil {
		store.writer = &gcsObjectWriter{bucket: bucket}
	}
	return store, nil
}

// UploadProductImage stores the image under the product's folder and returns
// the public URL. The object name embeds a ULID so repeated uploads never collide.
func (s *ImageStore) UploadProductImage(ctx context.Context, productID, contentType string, r io.Reader) (string, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return "", errors.New("storage: product id is required")
	}

	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return "", ErrContentTypeDenied
	}

	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return "", fmt.Errorf("storage: generate object id: %w", err)
	}
	object := fmt.Sprintf("products/%s/%s.%s", productID, strings.ToLower(id.String()), ext)

	limited := &limitedReader{r: r, remaining: maxImageSize}
	if _, err := s.writer.Write(ctx, object, contentType, limited); err != nil {
		if limited.exceeded {
			return "", ErrImageTooLarge
		}
		return "", fmt.Errorf("storage: upload %s: %w", object, err)
	}
	if limited.exceeded {
		return "", ErrImageTooLarge
	}

	return s.publicURLPrefix + "/" + object, nil
}

type limitedReader struct {
	r         io.Reader
	remaining int64
	exceeded  bool
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.exceeded {
		return 0, ErrImageTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	if int64(n) > l.remaining {
		l.exceeded = true
		return 0, ErrImageTooLarge
	}
	l.remaining -= int64(n)
	return n, err
}

type gcsObjectWriter struct {
	bucket string
	client *gcs.Client
	opts   []option.ClientOption
}

func (w *gcsObjectWriter) Write(ctx context.Context, object string, contentType string, r io.Reader) (int64, error) {
	if w.client == nil {
		client, err := gcs.NewClient(ctx, w.opts...)
		if err != nil {
			return 0, fmt.Errorf("storage: create client: %w", err)
		}
		w.client = client
	}

	writer := w.client.Bucket(w.bucket).Object(object).NewWriter(ctx)
	writer.ContentType = contentType
	writer.CacheControl = "public, max-age=86400"

	n, err := io.Copy(writer, r)
	if err != nil {
		_ = writer.Close()
		return n, err
	}
	if err := writer.Close(); err != nil {
		return n, err
	}
	return n, nil
}
