package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// DefaultFetchTimeout bounds a single media download so one stuck
// reference cannot stall a dispatch batch.
const DefaultFetchTimeout = 30 * time.Second

// FetchError is a typed media resolution failure carrying the original
// reference.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Resolver prepares content references for platform adapters. Remote
// URLs are fetched into a transient directory; local paths pass through.
type Resolver struct {
	client *http.Client
	dir    string
}

// ResolverConfig holds resolver configuration.
type ResolverConfig struct {
	// Dir is the directory for transient downloads. Defaults to the
	// system temp directory.
	Dir string
	// Timeout bounds one fetch. Defaults to DefaultFetchTimeout.
	Timeout time.Duration
}

// NewResolver creates a media resolver.
func NewResolver(cfg ResolverConfig) *Resolver {
	dir := cfg.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Resolver{
		client: &http.Client{Timeout: timeout},
		dir:    dir,
	}
}

// Resolve turns a content reference into a local handle. Remote URLs are
// downloaded to a temporary file owned by the caller; local paths are
// passed through unchanged. Failures are returned as *FetchError.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*Handle, error) {
	if IsRemote(ref) {
		return r.fetch(ctx, ref)
	}

	if _, err := os.Stat(ref); err != nil {
		return nil, &FetchError{URL: ref, Err: err}
	}
	return &Handle{Path: ref, Kind: Classify(ref)}, nil
}

// Passthrough wraps a remote reference without downloading it, for
// platforms that consume URLs directly.
func (r *Resolver) Passthrough(ref string) *Handle {
	return &Handle{URL: ref, Kind: Classify(ref)}
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) (*Handle, error) {
	dest := filepath.Join(r.dir, uuid.NewString()+"."+Extension(rawURL))

	if err := r.download(ctx, rawURL, dest); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	return &Handle{
		Path: dest,
		URL:  rawURL,
		Kind: Classify(rawURL),
		temp: true,
	}, nil
}

func (r *Resolver) download(ctx context.Context, rawURL, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	file, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		os.Remove(dest)
		return err
	}
	return file.Close()
}
