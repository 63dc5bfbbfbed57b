package fodt

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type fetcher struct {
	client    *http.Client
	userAgent string
}

// fetch reads http(s), file and data URLs. Strings without a scheme are
// treated as local paths.
func (f *fetcher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return os.ReadFile(rawURL)
	}

	switch u.Scheme {
	case "file":
		return os.ReadFile(filepath.FromSlash(u.Path))
	case "http", "https":
		return f.get(ctx, rawURL)
	default:
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
}

func (f *fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, rawURL)
	}
	return io.ReadAll(resp.Body)
}

func decodeDataURL(rawURL string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(rawURL, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URL")
	}
	if strings.HasSuffix(meta, ";base64") {
		return base64.StdEncoding.DecodeString(payload)
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// toURL turns a path or URL string into an absolute URL.
func toURL(ref string) (*url.URL, error) {
	if u, err := url.Parse(ref); err == nil && len(u.Scheme) > 1 {
		return u, nil
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return nil, err
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// localPath maps a file URL or plain path to a filesystem path.
func localPath(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		return ref, nil
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("cannot store to %s: only local files are supported", ref)
	}
	return filepath.FromSlash(u.Path), nil
}

// resolve interprets ref relative to base.
func resolve(base *url.URL, ref string) string {
	if base == nil || strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return base.ResolveReference(u).String()
}
