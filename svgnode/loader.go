package svgnode

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/benoitkugler/svgscene/svgscene"
	"golang.org/x/sync/singleflight"
)

var (
	errBadDataURL      = errors.New("invalid data URL")
	errUnsupportedHref = errors.New("unsupported href scheme")
)

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHTTPClient sets the client used for http(s) hrefs.
func WithHTTPClient(c *http.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithBaseDir sets the directory relative file hrefs are resolved against.
func WithBaseDir(dir string) LoaderOption {
	return func(l *Loader) { l.baseDir = dir }
}

// Loader fetches and decodes the images referenced by Image nodes.
// Concurrent loads of the same href share one fetch, and
// decoded images are cached. A Loader is safe for concurrent use.
type Loader struct {
	client  *http.Client
	baseDir string

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]image.Image
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{client: http.DefaultClient, cache: make(map[string]image.Image)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the image referenced by href, which is either
// a data URL, an http(s) URL or a file path.
func (l *Loader) Load(ctx context.Context, href string) (image.Image, error) {
	l.mu.RLock()
	img, ok := l.cache[href]
	l.mu.RUnlock()
	if ok {
		return img, nil
	}

	v, err, shared := l.group.Do(href, func() (any, error) {
		img, err := l.fetch(ctx, href)
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.cache[href] = img
		l.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	svgscene.Logger().Debug("svgnode: image loaded", "href", shortHref(href), "shared", shared)
	return v.(image.Image), nil
}

func (l *Loader) fetch(ctx context.Context, href string) (image.Image, error) {
	var (
		data []byte
		err  error
	)
	switch {
	case strings.HasPrefix(href, "data:"):
		data, err = decodeDataURL(href)
	case strings.HasPrefix(href, "http://"), strings.HasPrefix(href, "https://"):
		data, err = l.get(ctx, href)
	case strings.HasPrefix(href, "file://"):
		data, err = l.readFile(strings.TrimPrefix(href, "file://"))
	case strings.Contains(href, "://"):
		return nil, fmt.Errorf("loading %s: %w", href, errUnsupportedHref)
	default:
		data, err = l.readFile(href)
	}
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", shortHref(href), err)
	}
	return img, nil
}

func (l *Loader) get(ctx context.Context, href string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", href, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: unexpected status %s", href, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	return os.ReadFile(path)
}

// decodeDataURL supports base64 and percent encoded payloads.
func decodeDataURL(href string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(href, "data:"), ",")
	if !ok {
		return nil, errBadDataURL
	}
	if strings.HasSuffix(header, ";base64") {
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errBadDataURL, err)
		}
		return data, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadDataURL, err)
	}
	return []byte(s), nil
}

// shortHref avoids logging whole data URLs.
func shortHref(href string) string {
	if len(href) > 64 {
		return href[:64] + "..."
	}
	return href
}
