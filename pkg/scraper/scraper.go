package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"time"

	"github.com/xhad/docpage/internal/atomicfile"
	"github.com/xhad/docpage/internal/models"
	"golang.org/x/time/rate"
)

// DefaultRevisionPattern matches the revision meta tag of the A-MQ 7.0 Beta
// documentation. Groups are id, release and revision.
var DefaultRevisionPattern = regexp.MustCompile(
	`<meta name="revision" content="n_(\d+)_introducing-red-hat-jboss-a-mq-7_version_7\.0-Beta_edition_1\.0_release_(\d+)-revision_(\d+)" />`)

var (
	// ErrRevisionNotFound is returned when a page carries no revision meta tag.
	ErrRevisionNotFound = errors.New("parsing id failed")

	// ErrNoFilename is returned for page URLs whose path has no last element.
	ErrNoFilename = errors.New("page URL has no file name")
)

// FetchError reports a failed GET.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("fetching %s: %v", e.URL, e.Cause)
	}
	return fmt.Sprintf("received status code %d for URL: %s", e.StatusCode, e.URL)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

type DownloaderConfig struct {
	Dir             string
	SkipDownloads   bool
	Timeout         time.Duration
	UserAgent       string
	RateLimit       float64 // requests per second, 0 means unlimited
	RevisionPattern *regexp.Regexp
	HTTPClient      *http.Client
	Logger          *slog.Logger
	OnProgress      func(url string)
}

// Downloader fetches documentation pages and renders their body into
// standalone HTML files under Dir.
type Downloader struct {
	config  DownloaderConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger

	// apiHost overrides the page host for node API requests.
	apiHost string
}

// NewWithConfig applies defaults to config and returns a Downloader. It fails
// on a negative rate limit or a revision pattern without a capture group.
func NewWithConfig(config DownloaderConfig) (*Downloader, error) {
	if config.Dir == "" {
		config.Dir = "."
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "docpage/1.0"
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative: %v", config.RateLimit)
	}
	if config.RevisionPattern == nil {
		config.RevisionPattern = DefaultRevisionPattern
	}
	if config.RevisionPattern.NumSubexp() < 1 {
		return nil, fmt.Errorf("revision pattern %q has no capture group", config.RevisionPattern)
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Downloader{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}, nil
}

// New returns a Downloader with default settings.
func New(dir string, skipDownloads bool) *Downloader {
	d, _ := NewWithConfig(DownloaderConfig{
		Dir:           dir,
		SkipDownloads: skipDownloads,
	})
	return d
}

// DownloadDocPage fetches the page at pageURL, resolves its content through
// the node API and writes the rendered body to the destination path, which
// is returned. With SkipDownloads set the path is returned untouched.
func (d *Downloader) DownloadDocPage(ctx context.Context, pageURL string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("parsing page URL %q: %w", pageURL, err)
	}

	output, err := d.Destination(u)
	if err != nil {
		return "", err
	}
	if d.config.SkipDownloads {
		d.logger.Debug("skipping download", "url", pageURL, "output", output)
		return output, nil
	}
	if d.config.OnProgress != nil {
		d.config.OnProgress(pageURL)
	}

	text, err := d.DownloadPageXML(ctx, u)
	if err != nil {
		return "", err
	}

	page, err := ParseDocPageXML(text)
	if err != nil {
		return "", err
	}

	if err := atomicfile.WriteFile(output, []byte(RenderHTML(page)), 0644); err != nil {
		return "", err
	}
	d.logger.Info("rendered doc page", "url", pageURL, "version", page.Version, "output", output)
	return output, nil
}

// Destination is the HTML file a page URL renders to. Distinct URLs sharing a
// file name map to the same destination.
func (d *Downloader) Destination(u *url.URL) (string, error) {
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("%w: %s", ErrNoFilename, u)
	}
	return filepath.Join(d.config.Dir, name+".html"), nil
}

// DownloadPageXML extracts the page id from u, downloads the node XML and
// caches it as <id>.xml under Dir.
func (d *Downloader) DownloadPageXML(ctx context.Context, u *url.URL) (string, error) {
	html, err := d.get(ctx, u.String())
	if err != nil {
		return "", err
	}

	rev, err := d.extractRevision(html)
	if err != nil {
		return "", fmt.Errorf("%s: %w", u, err)
	}
	d.logger.Debug("found page revision", "id", rev.ID, "release", rev.Release, "revision", rev.Revision)

	host := u.Hostname()
	if d.apiHost != "" {
		host = d.apiHost
	}
	body, err := d.get(ctx, APIURL(host, rev.ID))
	if err != nil {
		return "", err
	}

	cache := filepath.Join(d.config.Dir, rev.ID+".xml")
	if err := atomicfile.WriteFile(cache, body, 0644); err != nil {
		return "", err
	}
	return string(body), nil
}

// APIURL is the node endpoint serving the XML content of page id on host. The
// page's port is not carried over, so host is normally u.Hostname().
func APIURL(host, id string) string {
	return (&url.URL{
		Scheme: "https",
		Host:   host,
		Path:   "/api/redhat_node/" + id,
	}).String()
}

// ExtractRevision reads r fully and applies DefaultRevisionPattern.
func ExtractRevision(r io.Reader) (models.Revision, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.Revision{}, err
	}
	return matchRevision(DefaultRevisionPattern, data)
}

func (d *Downloader) extractRevision(data []byte) (models.Revision, error) {
	return matchRevision(d.config.RevisionPattern, data)
}

func matchRevision(pattern *regexp.Regexp, data []byte) (models.Revision, error) {
	m := pattern.FindSubmatch(data)
	if m == nil {
		return models.Revision{}, ErrRevisionNotFound
	}
	rev := models.Revision{ID: string(m[1])}
	if len(m) > 2 {
		rev.Release = string(m[2])
	}
	if len(m) > 3 {
		rev.Revision = string(m[3])
	}
	return rev, nil
}

func (d *Downloader) get(ctx context.Context, urlStr string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Cause: err}
	}
	req.Header.Set("User-Agent", d.config.UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: urlStr, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: urlStr, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: urlStr, StatusCode: resp.StatusCode, Cause: err}
	}
	return body, nil
}
