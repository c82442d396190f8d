package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/studyfocus/focus/core/study"
	"github.com/studyfocus/focus/core/user"
)

type studyRow struct {
	ID             int64     `db:"id"`
	MaxMemberCount int       `db:"max_member_count"`
	CreatedAt      time.Time `db:"created_at"`
	Title          string    `db:"title"`
	Bio            string    `db:"bio"`
	Category       string    `db:"category"`
	Province       string    `db:"province"`
	District       string    `db:"district"`
}

func (r studyRow) study() study.Study {
	return study.Study{
		ID:             r.ID,
		MaxMemberCount: r.MaxMemberCount,
		CreatedAt:      r.CreatedAt.UTC(),
		Profile: study.Profile{
			Title:    r.Title,
			Bio:      r.Bio,
			Category: study.Category(r.Category),
			Address:  study.Address{Province: r.Province, District: r.District},
		},
	}
}

const selectStudy = `SELECT s.id, s.max_member_count, s.created_at,
	p.title, p.bio, p.category, p.province, p.district
	FROM studies s INNER JOIN study_profiles p ON p.study_id = s.id`

type studyRepository struct {
	db *sqlx.DB
}

var _ study.Repository = (*studyRepository)(nil) // interface compliance check

func NewStudyRepository(db *sql.DB) *studyRepository {
	return &studyRepository{db: sqlx.NewDb(db, "postgres")}
}

// inTx runs fn in a transaction, rolling back on error.
func (repo studyRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

// mapMemberErr maps constraint violations on study_members and bookmarks to domain errors.
func mapMemberErr(err error, duplicate error, msg string) error {
	code, constraint := pqErrCode(err)
	switch {
	case code == pqUniqueViolation:
		return duplicate
	case code == pqForeignKeyViolation && (constraint == "study_members_user_id_fkey" || constraint == "bookmarks_user_id_fkey"):
		return user.ErrNotFound
	case code == pqForeignKeyViolation:
		return study.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// CreateStudy inserts the study, its profile and the leader membership atomically.
func (repo studyRepository) CreateStudy(ctx context.Context, ns study.NewStudy, leaderID int64, createdAt time.Time) (study.Study, error) {
	var st study.Study
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var studyID int64
		err := tx.GetContext(ctx, &studyID,
			`INSERT INTO studies (max_member_count, created_at) VALUES ($1, $2) RETURNING id`,
			ns.MaxMemberCount, createdAt)
		if err != nil {
			return errors.Wrap(err, "inserting study")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO study_profiles (study_id, title, bio, category, province, district)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			studyID, ns.Title, ns.Bio, string(ns.Category), ns.Province, ns.District)
		if err != nil {
			return errors.Wrap(err, "inserting study profile")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO study_members (study_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
			studyID, leaderID, string(study.RoleLeader), createdAt)
		if err != nil {
			return mapMemberErr(err, study.ErrAlreadyMember, "inserting study leader")
		}

		var row studyRow
		if err = tx.GetContext(ctx, &row, selectStudy+` WHERE s.id = $1`, studyID); err != nil {
			return errors.Wrap(err, "reloading study")
		}
		st = row.study()
		return nil
	})
	return st, err
}

func (repo studyRepository) GetStudy(ctx context.Context, id int64) (study.Study, error) {
	var row studyRow
	if err := repo.db.GetContext(ctx, &row, selectStudy+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return study.Study{}, study.ErrNotFound
		}
		return study.Study{}, errors.Wrap(err, "finding study by ID")
	}
	return row.study(), nil
}

// AddMember adds a MEMBER. The study row is locked so that concurrent joins cannot exceed the capacity.
func (repo studyRepository) AddMember(ctx context.Context, studyID, userID int64, joinedAt time.Time) (study.Membership, error) {
	var m study.Membership
	err := repo.inTx(ctx, func(tx *sqlx.Tx) error {
		var maxMembers int
		err := tx.GetContext(ctx, &maxMembers,
			`SELECT max_member_count FROM studies WHERE id = $1 FOR UPDATE`, studyID)
		if err == sql.ErrNoRows {
			return study.ErrNotFound
		} else if err != nil {
			return errors.Wrap(err, "locking study")
		}

		var members int
		if err = tx.GetContext(ctx, &members,
			`SELECT COUNT(*) FROM study_members WHERE study_id = $1`, studyID); err != nil {
			return errors.Wrap(err, "counting members")
		}
		if members >= maxMembers {
			return study.ErrStudyFull
		}

		err = tx.GetContext(ctx, &m,
			`INSERT INTO study_members (study_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)
			RETURNING id, study_id, user_id, role, joined_at`,
			studyID, userID, string(study.RoleMember), joinedAt)
		if err != nil {
			return mapMemberErr(err, study.ErrAlreadyMember, "inserting study member")
		}
		return nil
	})
	return m, err
}

func (repo studyRepository) AddBookmark(ctx context.Context, studyID, userID int64, createdAt time.Time) (study.Bookmark, error) {
	var b study.Bookmark
	err := repo.db.GetContext(ctx, &b,
		`INSERT INTO bookmarks (study_id, user_id, created_at) VALUES ($1, $2, $3)
		RETURNING id, study_id, user_id, created_at`,
		studyID, userID, createdAt)
	if err != nil {
		return study.Bookmark{}, mapMemberErr(err, study.ErrAlreadyBookmarked, "inserting bookmark")
	}
	return b, nil
}

func (repo studyRepository) RemoveBookmark(ctx context.Context, studyID, userID int64) error {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE study_id = $1 AND user_id = $2`, studyID, userID)
	if err != nil {
		return errors.Wrap(err, "deleting bookmark")
	}
	cnt, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "deleting bookmark")
	}
	if cnt == 0 {
		return study.ErrBookmarkNotFound
	}
	return nil
}
