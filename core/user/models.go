package user

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studyfocus/focus/core"
)

type User struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Email      string    `json:"email" db:"email"`
	TrustScore int       `json:"trust_score" db:"trust_score"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"` // UTC
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name       string `json:"name" validate:"required,max=100"`
	Email      string `json:"email" validate:"required,email"`
	TrustScore int    `json:"trust_score"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}
