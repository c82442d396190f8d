package boiledrepos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/studyfocus/focus/core"
	"github.com/studyfocus/focus/core/study"
	sqlxrepos "github.com/studyfocus/focus/storage/database/sqlx"
	"github.com/studyfocus/focus/tests"
)

type searchFixture struct {
	repo   *studySearchRepository
	a, b   study.Study
	reader int64 // bookmarked A
	other  int64 // bookmarked nothing
}

// setupScenario creates:
//
//	A "Algorithms" CS, 3 members, 2 bookmarks, leader trust 80, created day 1
//	B "Algebra" MATH, 1 member, 0 bookmarks, leader trust 95, created day 2
func setupScenario(t *testing.T) searchFixture {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	stRepo := sqlxrepos.NewStudyRepository(db)

	day1 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)

	leaderA := testutil.CreateUser(t, usrRepo, "Leader A", "leader.a@test.kr", 80)
	leaderB := testutil.CreateUser(t, usrRepo, "Leader B", "leader.b@test.kr", 95)
	member1 := testutil.CreateUser(t, usrRepo, "Member 1", "m1@test.kr", 10)
	member2 := testutil.CreateUser(t, usrRepo, "Member 2", "m2@test.kr", 20)
	reader := testutil.CreateUser(t, usrRepo, "Reader", "reader@test.kr", 0)
	other := testutil.CreateUser(t, usrRepo, "Other", "other@test.kr", 0)

	a := testutil.CreateStudy(t, stRepo, leaderA.ID, "Algorithms", "graphs and dynamic programming",
		study.CategoryCS, "Seoul", "Mapo", 10, day1)
	b := testutil.CreateStudy(t, stRepo, leaderB.ID, "Algebra", "linear algebra from scratch",
		study.CategoryMath, "Busan", "Haeundae", 10, day2)

	testutil.AddMember(t, stRepo, a.ID, member1.ID)
	testutil.AddMember(t, stRepo, a.ID, member2.ID)
	testutil.AddBookmark(t, stRepo, a.ID, reader.ID)
	testutil.AddBookmark(t, stRepo, a.ID, member1.ID)

	return searchFixture{
		repo:   NewStudySearchRepository(db),
		a:      a,
		b:      b,
		reader: reader.ID,
		other:  other.ID,
	}
}

func ids(rows []study.ListingRow) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.StudyID)
	}
	return out
}

func TestStudySearchRepository_SearchStudies(t *testing.T) {
	fx := setupScenario(t)

	tests := []struct {
		name      string
		filter    study.SearchFilter
		wantIDs   []int64
		wantTotal int64
	}{
		{
			name:    "keyword algo",
			filter:  study.SearchFilter{Keyword: "algo", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{fx.a.ID}, wantTotal: 1,
		},
		{
			name:    "no filter by trust score",
			filter:  study.SearchFilter{SortType: study.SortTrustScoreDesc, PageSize: 20},
			wantIDs: []int64{fx.b.ID, fx.a.ID}, wantTotal: 2,
		},
		{
			name:    "keyword al, first page of one",
			filter:  study.SearchFilter{Keyword: "al", SortType: study.SortLatest, PageSize: 1},
			wantIDs: []int64{fx.b.ID}, wantTotal: 2,
		},
		{
			name:    "keyword al, second page of one",
			filter:  study.SearchFilter{Keyword: "al", SortType: study.SortLatest, Page: 1, PageSize: 1},
			wantIDs: []int64{fx.a.ID}, wantTotal: 2,
		},
		{
			name:    "page past the end",
			filter:  study.SearchFilter{SortType: study.SortLatest, Page: 5, PageSize: 1},
			wantIDs: []int64{}, wantTotal: 2,
		},
		{
			name:    "keyword is case-insensitive and matches bio",
			filter:  study.SearchFilter{Keyword: "DYNAMIC", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{fx.a.ID}, wantTotal: 1,
		},
		{
			name:    "keyword wildcards are literal",
			filter:  study.SearchFilter{Keyword: "%", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{}, wantTotal: 0,
		},
		{
			name:    "category",
			filter:  study.SearchFilter{Category: study.CategoryMath, SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{fx.b.ID}, wantTotal: 1,
		},
		{
			name:    "district without province",
			filter:  study.SearchFilter{District: "Mapo", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{fx.a.ID}, wantTotal: 1,
		},
		{
			name:    "province and district are ANDed",
			filter:  study.SearchFilter{Province: "Busan", District: "Mapo", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{}, wantTotal: 0,
		},
		{
			name:    "no match",
			filter:  study.SearchFilter{Keyword: "chemistry", SortType: study.SortLatest, PageSize: 20},
			wantIDs: []int64{}, wantTotal: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := fx.repo.SearchStudies(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, ids(res.Items))
			assert.Equal(t, tt.wantTotal, res.Total)
		})
	}
}

func TestStudySearchRepository_rowAggregates(t *testing.T) {
	fx := setupScenario(t)

	res, err := fx.repo.SearchStudies(context.Background(), study.SearchFilter{
		SortType: study.SortLatest,
		ViewerID: null.Int64From(fx.reader),
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	b, a := res.Items[0], res.Items[1]
	assert.Equal(t, study.ListingRow{
		StudyID:             fx.a.ID,
		Title:               "Algorithms",
		MaxMemberCount:      10,
		MemberCount:         3,
		BookmarkCount:       2,
		Bio:                 "graphs and dynamic programming",
		Category:            study.CategoryCS,
		LeaderTrustScore:    80,
		ViewerHasBookmarked: true,
	}, a)
	assert.Equal(t, study.ListingRow{
		StudyID:          fx.b.ID,
		Title:            "Algebra",
		MaxMemberCount:   10,
		MemberCount:      1,
		BookmarkCount:    0,
		Bio:              "linear algebra from scratch",
		Category:         study.CategoryMath,
		LeaderTrustScore: 95,
	}, b)
}

func TestStudySearchRepository_viewerHasBookmarked(t *testing.T) {
	fx := setupScenario(t)

	tests := []struct {
		name   string
		viewer null.Int64
		want   map[int64]bool
	}{
		{name: "anonymous", want: map[int64]bool{fx.a.ID: false, fx.b.ID: false}},
		{name: "reader", viewer: null.Int64From(fx.reader), want: map[int64]bool{fx.a.ID: true, fx.b.ID: false}},
		{name: "other", viewer: null.Int64From(fx.other), want: map[int64]bool{fx.a.ID: false, fx.b.ID: false}},
		{name: "unknown user", viewer: null.Int64From(99999), want: map[int64]bool{fx.a.ID: false, fx.b.ID: false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := fx.repo.SearchStudies(context.Background(), study.SearchFilter{
				SortType: study.SortLatest,
				ViewerID: tt.viewer,
				PageSize: 20,
			})
			require.NoError(t, err)

			got := make(map[int64]bool, len(res.Items))
			for _, row := range res.Items {
				got[row.StudyID] = row.ViewerHasBookmarked
				// the viewer never changes the aggregate count
				if row.StudyID == fx.a.ID {
					assert.EqualValues(t, 2, row.BookmarkCount)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStudySearchRepository_paginationProperties(t *testing.T) {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	stRepo := sqlxrepos.NewStudyRepository(db)
	repo := NewStudySearchRepository(db)

	// equal creation times and trust scores force the id tie-break
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var leaders []int64
	for i := 0; i < 4; i++ {
		score := []int{50, 50, -10, 0}[i]
		usr := testutil.CreateUser(t, usrRepo, fmt.Sprintf("Leader %d", i), fmt.Sprintf("leader%d@test.kr", i), score)
		leaders = append(leaders, usr.ID)
	}
	fans := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		usr := testutil.CreateUser(t, usrRepo, fmt.Sprintf("Fan %d", i), fmt.Sprintf("fan%d@test.kr", i), 0)
		fans = append(fans, usr.ID)
	}

	for i := 0; i < 11; i++ {
		ts := created
		if i%3 == 0 {
			ts = created.Add(time.Duration(i) * time.Hour)
		}
		st := testutil.CreateStudy(t, stRepo, leaders[i%len(leaders)], fmt.Sprintf("Go study %02d", i), "",
			study.Categories[i%len(study.Categories)], "Seoul", "", 10, ts)
		for j := 0; j < i%3; j++ {
			testutil.AddMember(t, stRepo, st.ID, fans[j])
			testutil.AddBookmark(t, stRepo, st.ID, fans[j])
		}
	}

	for _, sortType := range study.SortTypes {
		for _, pageSize := range []int{1, 3, 4, 11, 20} {
			t.Run(fmt.Sprintf("%s/%d", sortType, pageSize), func(t *testing.T) {
				ctx := context.Background()
				full, err := repo.SearchStudies(ctx, study.SearchFilter{SortType: sortType, PageSize: 100})
				require.NoError(t, err)
				require.EqualValues(t, 11, full.Total)
				require.Len(t, full.Items, 11)

				var concatenated []study.ListingRow
				pages := int((full.Total + int64(pageSize) - 1) / int64(pageSize))
				for page := 0; page < pages; page++ {
					res, err := repo.SearchStudies(ctx, study.SearchFilter{SortType: sortType, Page: page, PageSize: pageSize})
					require.NoError(t, err)
					assert.LessOrEqual(t, len(res.Items), pageSize)
					assert.Equal(t, full.Total, res.Total)
					concatenated = append(concatenated, res.Items...)
				}
				assert.Equal(t, full.Items, concatenated)

				for i, row := range full.Items {
					assert.GreaterOrEqual(t, row.MemberCount, 1)
					assert.GreaterOrEqual(t, row.BookmarkCount, int64(0))
					if i > 0 && sortType == study.SortTrustScoreDesc {
						assert.GreaterOrEqual(t, full.Items[i-1].LeaderTrustScore, row.LeaderTrustScore)
					}
				}
			})
		}
	}
}

func TestStudySearchRepository_latestOrder(t *testing.T) {
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	stRepo := sqlxrepos.NewStudyRepository(db)
	repo := NewStudySearchRepository(db)

	leader := testutil.CreateUser(t, usrRepo, "Leader", "leader@test.kr", 1)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	oldest := testutil.CreateStudy(t, stRepo, leader.ID, "Oldest", "", study.CategoryEtc, "", "", 0, base)
	newest := testutil.CreateStudy(t, stRepo, leader.ID, "Newest", "", study.CategoryEtc, "", "", 0, base.Add(48*time.Hour))
	middle := testutil.CreateStudy(t, stRepo, leader.ID, "Middle", "", study.CategoryEtc, "", "", 0, base.Add(24*time.Hour))

	res, err := repo.SearchStudies(context.Background(), study.SearchFilter{SortType: study.SortLatest, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, []int64{newest.ID, middle.ID, oldest.ID}, ids(res.Items))
}

func TestStudySearchRepository_unknownSort(t *testing.T) {
	repo := NewStudySearchRepository(nil)

	_, err := repo.SearchStudies(context.Background(), study.SearchFilter{SortType: "POPULAR", PageSize: 20})
	require.Error(t, err)
	assert.True(t, core.IsInvalidParameter(err))
	assert.Equal(t, "sort", errors.Cause(err).(*core.ValidationError).Fields[0].Field)
}
