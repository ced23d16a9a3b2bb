// Package transport fetches asset bytes from the model API or from a local
// directory laid out the same way.
package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrTransport marks every fetch failure. Use errors.As with *StatusError to
// get the HTTP status of a non-200 response.
var ErrTransport = errors.New("transport: fetch failed")

// StatusError is returned for unsuccessful HTTP responses.
type StatusError struct {
	URI    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s: status %d %s", e.URI, e.Status, http.StatusText(e.Status))
}

// Is makes StatusError match ErrTransport.
func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}

// Fetcher loads the bytes stored under an API-relative uri such as
// "acme/house/a1b2.src.mpc".
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// DefaultTimeout is the per-request timeout of HTTPFetcher. SRC payloads can
// be large and the API slow to produce them.
const DefaultTimeout = time.Hour

// HTTPFetcher fetches from <scheme>://<host>/api/<uri>?key=<apiKey>.
type HTTPFetcher struct {
	Scheme string
	Host   string
	APIKey string
	Client *http.Client
}

// NewHTTPFetcher creates a fetcher for host. A zero timeout means
// DefaultTimeout.
func NewHTTPFetcher(scheme, host, apiKey string, timeout time.Duration) *HTTPFetcher {
	if scheme == "" {
		scheme = "https"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		Scheme: scheme,
		Host:   host,
		APIKey: apiKey,
		Client: &http.Client{Timeout: timeout},
	}
}

// URL returns the request URL for uri.
func (f *HTTPFetcher) URL(uri string) string {
	u := url.URL{
		Scheme: f.Scheme,
		Host:   f.Host,
		Path:   "/api/" + strings.TrimPrefix(uri, "/"),
	}
	if f.APIKey != "" {
		u.RawQuery = url.Values{"key": {f.APIKey}}.Encode()
	}
	return u.String()
}

// Fetch performs a GET and returns the body of a 200 response.
func (f *HTTPFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL(uri), nil)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", uri, err)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", uri, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URI: uri, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: reading body: %v", uri, err)
	}
	return data, nil
}

// DirFetcher reads uris as paths below Root.
type DirFetcher struct {
	Root string
}

// Fetch reads the file for uri. Paths escaping Root are rejected.
func (f DirFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrapf(ErrTransport, "%s: %v", uri, err)
	}

	clean := path.Clean("/" + uri)
	data, err := os.ReadFile(filepath.Join(f.Root, filepath.FromSlash(clean)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &StatusError{URI: uri, Status: http.StatusNotFound}
		}
		return nil, errors.Wrapf(ErrTransport, "%s: %v", uri, err)
	}
	return data, nil
}
