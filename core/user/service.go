package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studyfocus/focus/core"
)

var (
	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, id int64) (User, error)
		SetTrustScore(ctx context.Context, id int64, score int) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}
	usr, err := svc.repo.CreateUser(ctx, User{
		Name:       nu.Name,
		Email:      nu.Email,
		TrustScore: nu.TrustScore,
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Cause(err) == ErrEmailExists {
		return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
	}
	return usr, err
}

func (svc *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return svc.repo.GetUser(ctx, id)
}

// SetTrustScore replaces the user's trust score. Scores may be zero or negative.
func (svc *Service) SetTrustScore(ctx context.Context, id int64, score int) (User, error) {
	return svc.repo.SetTrustScore(ctx, id, score)
}
