package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/db"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/enrich"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/models"
	"github.com/Rogue-Bear-Innovations/bookmarker/internal/tagtree"
)

const (
	DefaultListLimit = 50
)

type Enricher interface {
	// Enrich never fails; missing pieces are left nil.
	Enrich(ctx context.Context, pageURL string) enrich.Result
	// StoreScreenshot uploads an inline image or passes a plain URL through.
	StoreScreenshot(ctx context.Context, pageURL, screenshot string) *string
	RemoveScreenshot(ctx context.Context, publicURL string)
}

type Bookmarks struct {
	repo     BookmarkRepository
	tags     *Tags
	enricher Enricher
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewBookmarks(repo BookmarkRepository, tags *Tags, enricher Enricher, v *validator.Validate, l *zap.SugaredLogger) *Bookmarks {
	return &Bookmarks{
		repo:     repo,
		tags:     tags,
		enricher: enricher,
		validate: v,
		logger:   l,
	}
}

func (s *Bookmarks) Create(ctx context.Context, req models.BookmarkCreateReq) (*models.Bookmark, error) {
	rawURL := strings.TrimSpace(req.URL)
	if err := s.checkURL(rawURL); err != nil {
		return nil, err
	}

	existing, err := s.CheckURLExists(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &ConflictError{Msg: "bookmark already exists", Existing: existing}
	}

	row := db.Bookmark{
		URL:         rawURL,
		Title:       optional(req.Title),
		Description: optional(req.Description),
		Favicon:     optional(req.Favicon),
	}
	if screenshot := strings.TrimSpace(req.Screenshot); screenshot != "" {
		row.Screenshot = s.enricher.StoreScreenshot(ctx, rawURL, screenshot)
	}

	tagNames := append([]string{}, req.Tags...)
	tagPaths := append([]string{}, req.TagPaths...)
	if !hasClientData(req) {
		res := s.enricher.Enrich(ctx, rawURL)
		merge(&row, res)
		if res.Analysis != nil {
			tagNames = append(tagNames, res.Analysis.Tags...)
			tagPaths = append(tagPaths, res.Analysis.TagPaths...)
		}
	}
	if row.Title == nil {
		row.Title = &rawURL
	}

	if err := s.repo.Create(ctx, &row); err != nil {
		return nil, errors.Wrap(err, "create bookmark")
	}

	if err := s.attachTags(ctx, row.ID, tagNames, tagPaths); err != nil {
		return nil, err
	}
	if ids := uniqueIDs(req.TagIDs); len(ids) > 0 {
		if err := s.repo.AddTags(ctx, row.ID, ids); err != nil {
			return nil, errors.Wrap(err, "link tag ids")
		}
	}

	return s.Get(ctx, row.ID)
}

// hasClientData reports whether the caller described the page itself, in
// which case nothing is fetched.
func hasClientData(req models.BookmarkCreateReq) bool {
	return strings.TrimSpace(req.Title) != "" ||
		strings.TrimSpace(req.Description) != "" ||
		strings.TrimSpace(req.Screenshot) != "" ||
		len(req.Tags) > 0 ||
		len(req.TagPaths) > 0
}

// merge fills only what is still empty. The AI summary is the last resort
// for the description.
func merge(row *db.Bookmark, res enrich.Result) {
	row.Title = firstSet(row.Title, res.Title)
	row.Description = firstSet(row.Description, res.Description)
	row.Favicon = firstSet(row.Favicon, res.Favicon)
	row.Screenshot = firstSet(row.Screenshot, res.Screenshot)
	if res.Analysis != nil {
		row.Description = firstSet(row.Description, optional(res.Analysis.Summary))
	}
}

// attachTags links flat names and tag paths to a freshly created bookmark.
// Every name and path is resolved on its own: a failing one is logged and
// skipped.
func (s *Bookmarks) attachTags(ctx context.Context, bookmarkID uint64, names, paths []string) error {
	flatIDs := make([]uint64, 0, len(names))
	for _, name := range names {
		clean := CleanTagName(name)
		if clean == "" {
			continue
		}
		if strings.Contains(clean, tagtree.Separator) {
			paths = append(paths, clean)
			continue
		}
		id, err := s.tags.ResolveOrCreateFlatTag(ctx, clean)
		if err != nil {
			s.logger.Warnw("skip tag", "bookmark_id", bookmarkID, "tag", name, "error", err)
			continue
		}
		flatIDs = append(flatIDs, id)
	}

	if ids := uniqueIDs(flatIDs); len(ids) > 0 {
		if err := s.repo.AddTags(ctx, bookmarkID, ids); err != nil {
			return errors.Wrap(err, "link tags")
		}
	}

	rows := make([]db.BookmarkTagPath, 0, len(paths))
	for _, p := range uniquePaths(paths) {
		leafID, err := s.tags.ResolveOrCreatePath(ctx, p)
		if err != nil {
			s.logger.Warnw("skip tag path", "bookmark_id", bookmarkID, "path", p, "error", err)
			continue
		}
		rows = append(rows, db.BookmarkTagPath{
			BookmarkID: bookmarkID,
			TagPath:    p,
			LeafTagID:  leafID,
			Order:      len(rows),
		})
	}
	if err := s.repo.AddTagPaths(ctx, rows); err != nil {
		s.logger.Errorw("save tag paths", "bookmark_id", bookmarkID, "error", err)
	}
	return nil
}

func (s *Bookmarks) Update(ctx context.Context, id uint64, req models.BookmarkUpdateReq) (*models.Bookmark, error) {
	title := strings.TrimSpace(req.Title)
	rawURL := strings.TrimSpace(req.URL)
	if title == "" || rawURL == "" {
		return nil, invalid("title and url are required")
	}
	if err := s.checkURL(rawURL); err != nil {
		return nil, err
	}

	prev, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &NotFoundError{Entity: "bookmark", ID: id}
	}
	if err != nil {
		return nil, err
	}

	row := db.Bookmark{
		Title:       &title,
		URL:         rawURL,
		Description: optional(req.Description),
		Favicon:     optional(req.Favicon),
	}
	row.ID = id
	if screenshot := strings.TrimSpace(req.Screenshot); screenshot != "" {
		row.Screenshot = s.enricher.StoreScreenshot(ctx, rawURL, screenshot)
	}

	err = s.repo.Update(ctx, &row)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &NotFoundError{Entity: "bookmark", ID: id}
	}
	if err != nil {
		return nil, err
	}
	// drop the stored object of a replaced or cleared screenshot
	if prev.Screenshot != nil && (row.Screenshot == nil || *row.Screenshot != *prev.Screenshot) {
		s.enricher.RemoveScreenshot(ctx, *prev.Screenshot)
	}

	if req.TagIDs != nil {
		if err := s.repo.ReplaceTags(ctx, id, uniqueIDs(*req.TagIDs)); err != nil {
			return nil, errors.Wrap(err, "replace tags")
		}
	}

	return s.Get(ctx, id)
}

func (s *Bookmarks) Delete(ctx context.Context, id uint64) error {
	row, err := s.repo.Delete(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return &NotFoundError{Entity: "bookmark", ID: id}
	}
	if err != nil {
		return err
	}
	if row.Screenshot != nil {
		s.enricher.RemoveScreenshot(ctx, *row.Screenshot)
	}
	return nil
}

func (s *Bookmarks) Get(ctx context.Context, id uint64) (*models.Bookmark, error) {
	row, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, &NotFoundError{Entity: "bookmark", ID: id}
	}
	if err != nil {
		return nil, err
	}
	views, err := s.hydrate(ctx, []db.Bookmark{*row})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CheckURLExists matches the stored URL exactly and returns nil when there
// is no such bookmark.
func (s *Bookmarks) CheckURLExists(ctx context.Context, rawURL string) (*models.Bookmark, error) {
	row, err := s.repo.FindByURL(ctx, rawURL)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "check url")
	}
	views, err := s.hydrate(ctx, []db.Bookmark{*row})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Bookmarks) List(ctx context.Context, req models.BookmarkListReq) ([]models.Bookmark, error) {
	f := db.BookmarkFilter{
		Search:   strings.TrimSpace(req.Search),
		TagID:    req.TagID,
		MenuPath: tagtree.NormalizePath(req.MenuPath),
		Limit:    DefaultListLimit,
	}
	if req.Limit != nil {
		if *req.Limit < 0 {
			return nil, invalid("limit must not be negative")
		}
		f.Limit = uint64(*req.Limit)
	}
	if req.Offset != nil {
		if *req.Offset < 0 {
			return nil, invalid("offset must not be negative")
		}
		f.Offset = uint64(*req.Offset)
	}

	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list bookmarks")
	}
	return s.hydrate(ctx, rows)
}

// hydrate attaches flat tags and expanded tag paths to a page of rows with
// two queries in total.
func (s *Bookmarks) hydrate(ctx context.Context, rows []db.Bookmark) ([]models.Bookmark, error) {
	ids := make([]uint64, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}

	flat, err := s.repo.TagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	paths, err := s.repo.TagPathsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.Bookmark, len(rows))
	for i := range rows {
		expanded := make([]models.TagPath, 0, len(paths[rows[i].ID]))
		for _, p := range paths[rows[i].ID] {
			expanded = append(expanded, tagtree.ExpandPath(p.TagPath, p.LeafTagID))
		}
		out[i] = models.NewBookmark(rows[i], models.NewTags(flat[rows[i].ID]), expanded)
	}
	return out, nil
}

func (s *Bookmarks) checkURL(rawURL string) error {
	if rawURL == "" {
		return invalid("url is required")
	}
	if err := s.validate.Var(rawURL, "url"); err != nil {
		return invalid("invalid url %q", rawURL)
	}
	return nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func firstSet(current, candidate *string) *string {
	if current != nil && *current != "" {
		return current
	}
	if candidate != nil && *candidate != "" {
		return candidate
	}
	return current
}

func uniqueIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// uniquePaths normalizes every path and keeps the first occurrence.
func uniquePaths(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		n := tagtree.NormalizePath(strings.TrimPrefix(strings.TrimSpace(p), "#"))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
