// Package content reads document bytes from where they live: a local file,
// an HTTP(S) URL, or the artifact store.
//
// Every failure to obtain bytes is ErrContentUnavailable, except content
// above the configured size limit, which is ErrContentTooLarge and not
// worth retrying.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mrz1836/docsign/internal/artifact"
	"github.com/mrz1836/docsign/internal/constants"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// Source reads the bytes behind a reference.
type Source interface {
	Read(ctx context.Context, ref string) ([]byte, error)
}

// readLimited reads r up to max bytes.
func readLimited(r io.Reader, maxSize int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", dserrors.ErrContentTooLarge, maxSize)
	}
	return data, nil
}

func limitOrDefault(maxSize int64) int64 {
	if maxSize <= 0 {
		return constants.DefaultMaxContentSize
	}
	return maxSize
}

// FileSource reads local files.
type FileSource struct {
	maxSize int64
}

// NewFileSource returns a FileSource rejecting files above maxSize bytes.
func NewFileSource(maxSize int64) *FileSource {
	return &FileSource{maxSize: limitOrDefault(maxSize)}
}

// Read implements Source.
func (s *FileSource) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path) //nolint:gosec // G304: reading user-selected documents is the point
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", dserrors.ErrContentUnavailable, path)
	}
	if info.Size() > s.maxSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit is %d", dserrors.ErrContentTooLarge, path, info.Size(), s.maxSize)
	}
	return readLimited(f, s.maxSize)
}

// HTTPSource fetches documents over HTTP(S).
type HTTPSource struct {
	client  *http.Client
	maxSize int64
}

// NewHTTPSource returns an HTTPSource. A zero timeout leaves the deadline
// to the caller's context.
func NewHTTPSource(timeout time.Duration, maxSize int64) *HTTPSource {
	return &HTTPSource{
		client:  &http.Client{Timeout: timeout},
		maxSize: limitOrDefault(maxSize),
	}
}

// Read implements Source.
func (s *HTTPSource) Read(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid url %s", dserrors.ErrContentUnavailable, redactURL(rawURL))
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, redactURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: GET %s: %s", dserrors.ErrContentUnavailable, redactURL(rawURL), resp.Status)
	}
	if resp.ContentLength > s.maxSize {
		return nil, fmt.Errorf("%w: %d bytes, limit is %d", dserrors.ErrContentTooLarge, resp.ContentLength, s.maxSize)
	}
	return readLimited(resp.Body, s.maxSize)
}

// StoreSource reads content held by the artifact store, by reference.
type StoreSource struct {
	store artifact.Store
}

// NewStoreSource returns a StoreSource over store.
func NewStoreSource(store artifact.Store) *StoreSource {
	return &StoreSource{store: store}
}

// Read implements Source. A missing reference keeps ErrDocumentNotFound in
// the chain alongside ErrContentUnavailable.
func (s *StoreSource) Read(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.store.Content(ctx, ref)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, dserrors.ErrContentUnavailable) || ctx.Err() != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
}

// Locator picks a FileSource or HTTPSource from the reference form.
type Locator struct {
	File *FileSource
	HTTP *HTTPSource
}

// NewLocator builds both sources with one size limit.
func NewLocator(httpTimeout time.Duration, maxSize int64) *Locator {
	return &Locator{
		File: NewFileSource(maxSize),
		HTTP: NewHTTPSource(httpTimeout, maxSize),
	}
}

// Read implements Source: http:// and https:// references are fetched,
// anything else is a local path.
func (l *Locator) Read(ctx context.Context, ref string) ([]byte, error) {
	if IsURL(ref) {
		return l.HTTP.Read(ctx, ref)
	}
	return l.File.Read(ctx, ref)
}

// IsURL reports whether ref is an http or https URL.
func IsURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// redactURL drops query strings and credentials, which often carry tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// redactURLError scrubs the URL that net/http embeds in transport errors.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		ue.URL = redactURL(ue.URL)
	}
	return err
}

var (
	_ Source = (*FileSource)(nil)
	_ Source = (*HTTPSource)(nil)
	_ Source = (*StoreSource)(nil)
	_ Source = (*Locator)(nil)
)
