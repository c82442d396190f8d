package boiledrepos

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
	"golang.org/x/sync/errgroup"

	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/study"
)

// studyOrderings maps every study.SortType to its ORDER BY.
// studies.id breaks ties so that pages never overlap.
var studyOrderings = map[study.SortType][]core.DBOrdering{
	study.SortLatest: {
		{Field: "studies.created_at"},
		{Field: "studies.id", Ascending: true},
	},
	study.SortTrustScoreDesc: {
		{Field: "leader_user.trust_score"},
		{Field: "studies.id", Ascending: true},
	},
}

// LIKE wildcards in keywords are matched literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type studySearchRepository struct {
	exec core.DBExecutor
}

var _ study.SearchRepository = (*studySearchRepository)(nil) // interface compliance check

// NewStudySearchRepository returns the search engine. exec must be safe for concurrent use:
// the page and the total are queried in parallel.
func NewStudySearchRepository(exec core.DBExecutor) *studySearchRepository {
	return &studySearchRepository{exec: exec}
}

// studyPredicate is the filter shared by the content and the count queries.
// It only references studies and study_profiles.
func studyPredicate(filter study.SearchFilter) []qm.QueryMod {
	var mods []qm.QueryMod

	// studies with Title or Bio containing the keyword
	if filter.Keyword != "" {
		val := "%" + likeEscaper.Replace(filter.Keyword) + "%"
		mods = append(mods, qm.Expr(qm.Where("study_profiles.title ILIKE ? OR study_profiles.bio ILIKE ?", val, val)))
	}
	if filter.Category != "" {
		mods = append(mods, qm.Where("study_profiles.category = ?", string(filter.Category)))
	}
	if filter.Province != "" {
		mods = append(mods, qm.Where("study_profiles.province = ?", filter.Province))
	}
	if filter.District != "" {
		mods = append(mods, qm.Where("study_profiles.district = ?", filter.District))
	}
	return mods
}

// viewerBookmarkColumn inlines the viewer id into the select list. The id is an int64
// set from the verified token, never request text. A bind arg here would shift the
// $n placeholders of the where clause that count and page queries share.
func viewerBookmarkColumn(filter study.SearchFilter) string {
	if !filter.ViewerID.Valid {
		return "FALSE AS viewer_has_bookmarked"
	}
	return "EXISTS (SELECT 1 FROM bookmarks viewer_bookmark" +
		" WHERE viewer_bookmark.study_id = studies.id" +
		" AND viewer_bookmark.user_id = " + strconv.FormatInt(filter.ViewerID.Int64, 10) +
		") AS viewer_has_bookmarked"
}

func contentMods(filter study.SearchFilter, ordering []core.DBOrdering) []qm.QueryMod {
	mods := []qm.QueryMod{
		qm.Select(
			"studies.id AS study_id",
			"study_profiles.title AS title",
			"studies.max_member_count AS max_member_count",
			"COUNT(DISTINCT study_members.id) AS member_count",
			"COUNT(DISTINCT bookmarks.id) AS bookmark_count",
			"study_profiles.bio AS bio",
			"study_profiles.category AS category",
			"leader_user.trust_score AS leader_trust_score",
			viewerBookmarkColumn(filter),
		),
		qm.From("studies"),
		qm.InnerJoin("study_profiles ON study_profiles.study_id = studies.id"),
		qm.LeftOuterJoin("study_members ON study_members.study_id = studies.id"),
		qm.LeftOuterJoin("bookmarks ON bookmarks.study_id = studies.id"),
		qm.InnerJoin("study_members leader_member ON leader_member.study_id = studies.id AND leader_member.role = ?",
			string(study.RoleLeader)),
		qm.InnerJoin("users leader_user ON leader_user.id = leader_member.user_id"),
	}
	mods = append(mods, studyPredicate(filter)...)
	mods = append(mods,
		qm.GroupBy("studies.id, study_profiles.title, studies.max_member_count, "+
			"study_profiles.bio, study_profiles.category, leader_user.trust_score"),
		orderBy(ordering),
		qm.Limit(filter.PageSize),
		qm.Offset(filter.Offset()),
	)
	return mods
}

func countMods(filter study.SearchFilter) []qm.QueryMod {
	mods := []qm.QueryMod{
		qm.Select("COUNT(DISTINCT studies.id)"),
		qm.From("studies"),
		qm.InnerJoin("study_profiles ON study_profiles.study_id = studies.id"),
	}
	return append(mods, studyPredicate(filter)...)
}

func (repo studySearchRepository) SearchStudies(ctx context.Context, filter study.SearchFilter) (study.SearchResult, error) {
	ordering, ok := studyOrderings[filter.SortType]
	if !ok {
		return study.SearchResult{}, core.NewValidationError(core.ErrInvalidParameter, core.FieldError{
			Field: "sort",
			Error: fmt.Sprintf("unknown sort type %q", filter.SortType),
		})
	}

	var (
		rows  []study.ListingRow
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := newQuery(contentMods(filter, ordering)...).Bind(gctx, repo.exec, &rows); err != nil {
			return errors.Wrap(err, "querying studies")
		}
		return nil
	})
	g.Go(func() error {
		if err := newQuery(countMods(filter)...).QueryRowContext(gctx, repo.exec).Scan(&total); err != nil {
			return errors.Wrap(err, "counting studies")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return study.SearchResult{}, err
	}

	if rows == nil {
		rows = []study.ListingRow{}
	}
	return study.SearchResult{Items: rows, Total: total}, nil
}
