package enrich

import (
	"context"
	"io"
	"net/url"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

const UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var ErrUnsupportedURL = errors.New("only absolute http(s) urls can be fetched")

// Fetcher downloads pages with a browser user agent.
type Fetcher struct {
	client   *resty.Client
	limiter  *HostLimiter
	maxBytes int64
}

func NewFetcher(cfg *config.Config, limiter *HostLimiter) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	return &Fetcher{
		client:   client,
		limiter:  limiter,
		maxBytes: cfg.FetchMaxBytes,
	}
}

// Fetch returns the page body converted to UTF-8. The charset comes from the
// Content-Type header, a BOM or a <meta> tag. Bodies longer than the
// configured maximum are cut off.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse url")
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrap(ErrUnsupportedURL, rawURL)
	}
	if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, errors.Wrap(err, "rate limit")
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "fetch page")
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		return nil, errors.Errorf("fetch page: unexpected status %d", resp.StatusCode())
	}

	r, err := charset.NewReader(io.LimitReader(body, f.maxBytes), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, errors.Wrap(err, "detect charset")
	}
	page, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read page")
	}
	return page, nil
}
