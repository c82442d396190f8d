package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/studyfocus/focus/core/user"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

func pqErrCode(err error) (pq.ErrorCode, string) {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		return pqErr.Code, pqErr.Constraint
	}
	return "", ""
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query, args, err := repo.db.BindNamed(
		`INSERT INTO users (name, email, trust_score, created_at)
		VALUES (:name, :email, :trust_score, :created_at)
		RETURNING id, name, email, trust_score, created_at`, usr)
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user")
	}

	var created user.User
	if err = repo.db.GetContext(ctx, &created, query, args...); err != nil {
		if code, _ := pqErrCode(err); code == pqUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return created, nil
}

func (repo userRepository) GetUser(ctx context.Context, id int64) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr,
		`SELECT id, name, email, trust_score, created_at FROM users WHERE id = $1`, id)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by ID")
	}
	return usr, nil
}

func (repo userRepository) SetTrustScore(ctx context.Context, id int64, score int) (user.User, error) {
	var usr user.User
	err := repo.db.GetContext(ctx, &usr,
		`UPDATE users SET trust_score = $2 WHERE id = $1
		RETURNING id, name, email, trust_score, created_at`, id, score)
	if err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "updating trust score")
	}
	return usr, nil
}
