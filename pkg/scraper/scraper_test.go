package scraper

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const revisionTag = `<meta name="revision" content="n_123_introducing-red-hat-jboss-a-mq-7_version_7.0-Beta_edition_1.0_release_45-revision_67" />`

const nodeXML = `<?xml version="1.0" encoding="UTF-8"?>
<result><vid>v1</vid><body><en><item><value>&lt;p&gt;hi&lt;/p&gt;</value></item></en></body></result>`

func TestExtractRevision(t *testing.T) {
	page := "<html><head><title>A-MQ</title>\n" + revisionTag + "\n</head><body></body></html>"

	rev, err := ExtractRevision(strings.NewReader(page))
	require.NoError(t, err)
	assert.Equal(t, "123", rev.ID)
	assert.Equal(t, "45", rev.Release)
	assert.Equal(t, "67", rev.Revision)
}

func TestExtractRevisionMissing(t *testing.T) {
	tests := []string{
		"",
		"<html><head></head></html>",
		`<meta name="revision" content="n_123_some-other-product_release_1-revision_2" />`,
	}

	for _, page := range tests {
		_, err := ExtractRevision(strings.NewReader(page))
		assert.ErrorIs(t, err, ErrRevisionNotFound)
	}
}

func TestAPIURL(t *testing.T) {
	assert.Equal(t, "https://access.redhat.com/api/redhat_node/123", APIURL("access.redhat.com", "123"))

	u, err := url.Parse("https://docs.example.com:8443/docs/x")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com/api/redhat_node/9", APIURL(u.Hostname(), "9"))
}

func TestDownloadPageXMLDropsPort(t *testing.T) {
	var requested []string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		requested = append(requested, r.URL.String())
		body := "<html><head>" + revisionTag + "</head></html>"
		if strings.HasPrefix(r.URL.Path, "/api/") {
			body = nodeXML
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}

	d, err := NewWithConfig(DownloaderConfig{Dir: t.TempDir(), HTTPClient: client})
	require.NoError(t, err)

	u, err := url.Parse("https://docs.example.com:8443/docs/getting-started")
	require.NoError(t, err)
	text, err := d.DownloadPageXML(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, nodeXML, text)
	assert.Equal(t, []string{
		"https://docs.example.com:8443/docs/getting-started",
		"https://docs.example.com/api/redhat_node/123",
	}, requested)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestDestination(t *testing.T) {
	d := New("/tmp/out", false)

	tests := []struct {
		url      string
		expected string
		err      bool
	}{
		{"https://example.com/docs/getting-started", "/tmp/out/getting-started.html", false},
		{"https://example.com/other/getting-started", "/tmp/out/getting-started.html", false},
		{"https://example.com/docs/page.html?x=1", "/tmp/out/page.html.html", false},
		{"https://example.com/", "", true},
		{"https://example.com", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			u, err := url.Parse(tt.url)
			require.NoError(t, err)

			got, err := d.Destination(u)
			if tt.err {
				assert.ErrorIs(t, err, ErrNoFilename)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.expected), got)
		})
	}
}

func TestDownloaderConfig(t *testing.T) {
	_, err := NewWithConfig(DownloaderConfig{RateLimit: -1})
	assert.Error(t, err)

	_, err = NewWithConfig(DownloaderConfig{RevisionPattern: regexp.MustCompile(`no groups`)})
	assert.Error(t, err)

	d, err := NewWithConfig(DownloaderConfig{})
	require.NoError(t, err)
	assert.Equal(t, ".", d.config.Dir)
	assert.Equal(t, DefaultRevisionPattern, d.config.RevisionPattern)
}

func TestSkipDownloads(t *testing.T) {
	var hits int32
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	dir := t.TempDir()
	d, err := NewWithConfig(DownloaderConfig{
		Dir:           dir,
		SkipDownloads: true,
		HTTPClient:    server.Client(),
	})
	require.NoError(t, err)

	output, err := d.DownloadDocPage(context.Background(), server.URL+"/docs/getting-started")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "getting-started.html"), output)
	assert.NoFileExists(t, output)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

// newTestDownloader points node API requests at server, which listens on a
// random port.
func newTestDownloader(t *testing.T, server *httptest.Server, config DownloaderConfig) *Downloader {
	t.Helper()
	config.HTTPClient = server.Client()
	d, err := NewWithConfig(config)
	require.NoError(t, err)
	d.apiHost = server.Listener.Addr().String()
	return d
}

func newDocServer(t *testing.T, page string) *httptest.Server {
	return newDocServerXML(t, page, nodeXML)
}

func newDocServerXML(t *testing.T, page, xml string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/getting-started", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(page))
	})
	mux.HandleFunc("/api/redhat_node/123", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(xml))
	})
	server := httptest.NewTLSServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestDownloadDocPage(t *testing.T) {
	server := newDocServer(t, "<html><head>"+revisionTag+"</head><body>ignored</body></html>")

	var progress []string
	dir := t.TempDir()
	d := newTestDownloader(t, server, DownloaderConfig{
		Dir:        dir,
		OnProgress: func(url string) { progress = append(progress, url) },
	})

	output, err := d.DownloadDocPage(context.Background(), server.URL+"/docs/getting-started")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "getting-started.html"), output)
	assert.Len(t, progress, 1)

	cached, err := os.ReadFile(filepath.Join(dir, "123.xml"))
	require.NoError(t, err)
	assert.Equal(t, nodeXML, string(cached))

	rendered, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(rendered), "<body>\n<p>hi</p>\n</body>")
	assert.True(t, strings.HasPrefix(string(rendered), "<!DOCTYPE html>"))
}

func TestDownloadDocPageMissingRevision(t *testing.T) {
	server := newDocServer(t, "<html><head><title>No revision</title></head></html>")

	dir := t.TempDir()
	d := newTestDownloader(t, server, DownloaderConfig{Dir: dir})

	_, err := d.DownloadDocPage(context.Background(), server.URL+"/docs/getting-started")
	assert.ErrorIs(t, err, ErrRevisionNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDownloadDocPageStatus(t *testing.T) {
	server := newDocServer(t, "")

	d := newTestDownloader(t, server, DownloaderConfig{Dir: t.TempDir()})

	_, err := d.DownloadDocPage(context.Background(), server.URL+"/docs/missing")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
}

func TestDownloadDocPageKeepsCacheOnParseError(t *testing.T) {
	const broken = "<result><vid>v1</vid><body>"
	server := newDocServerXML(t, "<html><head>"+revisionTag+"</head></html>", broken)

	dir := t.TempDir()
	d := newTestDownloader(t, server, DownloaderConfig{Dir: dir})

	_, err := d.DownloadDocPage(context.Background(), server.URL+"/docs/getting-started")
	require.Error(t, err)

	cached, err := os.ReadFile(filepath.Join(dir, "123.xml"))
	require.NoError(t, err)
	assert.Equal(t, broken, string(cached))
	assert.NoFileExists(t, filepath.Join(dir, "getting-started.html"))
}
