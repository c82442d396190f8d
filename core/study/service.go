package study

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studyfocus/focus/core"
)

// SearchGenerationKey is the cache key whose increment invalidates every cached search.
const SearchGenerationKey = "study:search:gen"

var (
	// errors
	ErrNotFound          = errors.New("study not found")
	ErrAlreadyMember     = errors.New("already a member of this study")
	ErrStudyFull         = errors.New("study has reached its maximum member count")
	ErrAlreadyBookmarked = errors.New("study already bookmarked")
	ErrBookmarkNotFound  = errors.New("bookmark not found")
)

type (
	// SearchRepository runs a validated SearchFilter against the store.
	// Page content and Total must be computed from the same predicate.
	SearchRepository interface {
		SearchStudies(ctx context.Context, filter SearchFilter) (SearchResult, error)
	}

	// Repository is the write side. CreateStudy also creates the single LEADER membership.
	Repository interface {
		CreateStudy(ctx context.Context, ns NewStudy, leaderID int64, createdAt time.Time) (Study, error)
		GetStudy(ctx context.Context, id int64) (Study, error)
		AddMember(ctx context.Context, studyID, userID int64, joinedAt time.Time) (Membership, error)
		AddBookmark(ctx context.Context, studyID, userID int64, createdAt time.Time) (Bookmark, error)
		RemoveBookmark(ctx context.Context, studyID, userID int64) error
	}

	ServiceDeps struct {
		Repo       Repository
		Search     SearchRepository
		Cache      core.Cache // optional
		CacheTTL   time.Duration
		Validate   *validator.Validate
		Translator ut.Translator
		Logger     core.Logger
	}

	Service struct {
		repo       Repository
		search     SearchRepository
		cache      core.Cache
		cacheTTL   time.Duration
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

func NewService(deps ServiceDeps) *Service {
	svc := &Service{
		repo:       deps.Repo,
		search:     deps.Search,
		cache:      deps.Cache,
		cacheTTL:   deps.CacheTTL,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
	}
	if svc.cache == nil || svc.cacheTTL <= 0 {
		svc.cache = core.NopCache{}
	}
	return svc
}

// Search returns one page of studies matching the filter and the total number of matches.
// Invalid sort or pagination fails with core.ErrInvalidParameter before anything is queried.
func (svc *Service) Search(ctx context.Context, filter SearchFilter) (SearchResult, error) {
	filter.Clean()
	if err := filter.Validate(svc.validate); err != nil {
		return SearchResult{}, core.NewInvalidParameterError(err, svc.translator)
	}

	key := svc.searchCacheKey(ctx, filter)
	if key != "" {
		var cached SearchResult
		err := svc.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if errors.Cause(err) != core.ErrCacheMiss {
			svc.logger.Warn("reading search cache", err)
		}
	}

	res, err := svc.search.SearchStudies(ctx, filter)
	if err != nil {
		return SearchResult{}, errors.Wrap(err, "searching studies")
	}
	if res.Items == nil {
		res.Items = []ListingRow{}
	}

	if key != "" {
		if err = svc.cache.Set(ctx, key, res, svc.cacheTTL); err != nil {
			svc.logger.Warn("writing search cache", err)
		}
	}
	return res, nil
}

// searchCacheKey returns "" when the cache is unreachable.
func (svc *Service) searchCacheKey(ctx context.Context, filter SearchFilter) string {
	var gen int64
	if err := svc.cache.Get(ctx, SearchGenerationKey, &gen); err != nil && errors.Cause(err) != core.ErrCacheMiss {
		svc.logger.Warn("reading search cache generation", err)
		return ""
	}
	return fmt.Sprintf("study:search:%d:%s", gen, filter.CacheKey())
}

// invalidateSearch moves cached searches to a new generation; old entries expire on their own.
func (svc *Service) invalidateSearch(ctx context.Context) {
	if _, err := svc.cache.Incr(ctx, SearchGenerationKey); err != nil {
		svc.logger.Warn("invalidating search cache", err)
	}
}

func (svc *Service) Create(ctx context.Context, ns NewStudy, leaderID int64) (Study, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Study{}, err
	}
	st, err := svc.repo.CreateStudy(ctx, ns, leaderID, time.Now().UTC())
	if err != nil {
		return Study{}, errors.Wrap(err, "creating study")
	}
	svc.invalidateSearch(ctx)
	return st, nil
}

func (svc *Service) GetByID(ctx context.Context, id int64) (Study, error) {
	return svc.repo.GetStudy(ctx, id)
}

func (svc *Service) Join(ctx context.Context, studyID, userID int64) (Membership, error) {
	m, err := svc.repo.AddMember(ctx, studyID, userID, time.Now().UTC())
	if err != nil {
		return Membership{}, errors.Wrap(err, "joining study")
	}
	svc.invalidateSearch(ctx)
	return m, nil
}

func (svc *Service) Bookmark(ctx context.Context, studyID, userID int64) (Bookmark, error) {
	b, err := svc.repo.AddBookmark(ctx, studyID, userID, time.Now().UTC())
	if err != nil {
		return Bookmark{}, errors.Wrap(err, "bookmarking study")
	}
	svc.invalidateSearch(ctx)
	return b, nil
}

func (svc *Service) Unbookmark(ctx context.Context, studyID, userID int64) error {
	if err := svc.repo.RemoveBookmark(ctx, studyID, userID); err != nil {
		return errors.Wrap(err, "removing bookmark")
	}
	svc.invalidateSearch(ctx)
	return nil
}
