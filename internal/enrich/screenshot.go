package enrich

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"mime"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/blob"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

const (
	screenshotPrefix   = "screenshots/"
	defaultContentType = "image/png"
)

// Screenshots captures pages through an external screenshot API and keeps
// the images in the blob store.
type Screenshots struct {
	client  *resty.Client
	apiURL  string
	apiKey  string
	store   blob.Store
	limiter *HostLimiter
	logger  *zap.SugaredLogger
	now     func() time.Time
}

func NewScreenshots(cfg *config.Config, store blob.Store, limiter *HostLimiter, l *zap.SugaredLogger) *Screenshots {
	return &Screenshots{
		client:  resty.New().SetTimeout(cfg.ScreenshotTimeout).SetHeader("User-Agent", UserAgent),
		apiURL:  cfg.ScreenshotAPIURL,
		apiKey:  cfg.ScreenshotAPIKey,
		store:   store,
		limiter: limiter,
		logger:  l,
		now:     time.Now,
	}
}

// CanCapture is false when either the screenshot API or the blob store is
// not configured.
func (s *Screenshots) CanCapture() bool {
	return s.store != nil && s.apiURL != "" && s.apiKey != ""
}

// Capture returns the public URL of a fresh screenshot of pageURL.
func (s *Screenshots) Capture(ctx context.Context, pageURL string) (string, error) {
	if !s.CanCapture() {
		return "", errors.New("screenshots are not configured")
	}
	api, err := url.Parse(s.apiURL)
	if err != nil {
		return "", errors.Wrap(err, "parse screenshot api url")
	}
	if err := s.limiter.Wait(ctx, api.Hostname()); err != nil {
		return "", errors.Wrap(err, "rate limit")
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Accept", "image/png,image/jpeg,image/*,*/*").
		SetQueryParam("url", pageURL).
		SetQueryParam("key", s.apiKey).
		Get(s.apiURL)
	if err != nil {
		return "", errors.Wrap(err, "screenshot api request")
	}
	if resp.IsError() {
		return "", errors.Errorf("screenshot api: unexpected status %d", resp.StatusCode())
	}
	if len(resp.Body()) == 0 {
		return "", errors.New("screenshot api: empty body")
	}

	contentType := mediaType(resp.Header().Get("Content-Type"))
	return s.store.Put(ctx, ObjectKey(pageURL, contentType, s.now()), resp.Body(), contentType)
}

// StoreClient keeps a client supplied screenshot. Inline images, as a data
// URL or bare base64, are uploaded; anything else is taken to be a URL and
// returned unchanged. Failures yield nil.
func (s *Screenshots) StoreClient(ctx context.Context, pageURL, screenshot string) *string {
	if !isInlineImage(screenshot) {
		return &screenshot
	}
	if s.store == nil {
		s.logger.Warnw("inline screenshot dropped, blob storage disabled", "url", pageURL)
		return nil
	}

	data, contentType, err := decodeInlineImage(screenshot)
	if err != nil {
		s.logger.Warnw("inline screenshot dropped", "url", pageURL, "error", err)
		return nil
	}
	publicURL, err := s.store.Put(ctx, ObjectKey(pageURL, contentType, s.now()), data, contentType)
	if err != nil {
		s.logger.Errorw("store inline screenshot", "url", pageURL, "error", err)
		return nil
	}
	return &publicURL
}

// Remove deletes a screenshot this service stored. URLs pointing anywhere
// else are ignored.
func (s *Screenshots) Remove(ctx context.Context, publicURL string) {
	if s.store == nil {
		return
	}
	key, ok := s.store.KeyFor(publicURL)
	if !ok || !strings.HasPrefix(key, screenshotPrefix) {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warnw("remove screenshot", "key", key, "error", err)
	}
}

// ObjectKey is screenshots/{hash16(url)}-{unix millis}.{ext}.
func ObjectKey(pageURL, contentType string, at time.Time) string {
	return fmt.Sprintf("%s%s-%d.%s", screenshotPrefix, hash16(pageURL), at.UnixMilli(), extension(contentType))
}

// hash16 is the first 16 hex characters of the BLAKE2b-256 digest.
func hash16(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:16]
}

func extension(contentType string) string {
	_, sub, ok := strings.Cut(contentType, "/")
	if !ok || sub == "" {
		return "png"
	}
	if i := strings.IndexAny(sub, "+;"); i >= 0 {
		sub = sub[:i]
	}
	return sub
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return defaultContentType
	}
	return mt
}

func isInlineImage(s string) bool {
	if strings.HasPrefix(s, "data:image/") {
		return true
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if !isBase64Char(r) {
			return false
		}
	}
	return true
}

func isBase64Char(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
		r == '+' || r == '/' || r == '='
}

// decodeInlineImage accepts "data:image/<type>;base64,<data>" or bare base64,
// which is taken to be PNG.
func decodeInlineImage(s string) ([]byte, string, error) {
	contentType := defaultContentType
	payload := s
	if strings.HasPrefix(s, "data:") {
		header, data, ok := strings.Cut(s, ",")
		if !ok {
			return nil, "", errors.New("data url without payload")
		}
		if mt, _, err := mime.ParseMediaType(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")); err == nil && strings.HasPrefix(mt, "image/") {
			contentType = mt
		}
		payload = data
	}
	if payload == "" {
		return nil, "", errors.New("empty image payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Wrap(err, "decode base64 image")
	}
	return data, contentType, nil
}
