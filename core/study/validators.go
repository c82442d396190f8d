package study

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/studyfocus/focus/core"
)

var (
	sortTypeTag  = "sorttype"
	sortTypeText = fmt.Sprintf("must be one of: %s", joinSortTypes())

	categoryTag  = "category"
	categoryText = fmt.Sprintf("must be one of: %s", joinCategories())
)

// InitValidators registers the study validation tags and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(sortTypeTag, sortTypeValidation)
	core.RegisterCustomTranslation(validate, translator, sortTypeTag, sortTypeText)

	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func joinSortTypes() string {
	names := make([]string, 0, len(SortTypes))
	for _, st := range SortTypes {
		names = append(names, string(st))
	}
	return strings.Join(names, ", ")
}

func joinCategories() string {
	names := make([]string, 0, len(Categories))
	for _, c := range Categories {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// Custom Validators

func sortTypeValidation(fl validator.FieldLevel) bool {
	return SortType(fl.Field().String()).IsValid()
}

func categoryValidation(fl validator.FieldLevel) bool {
	return Category(fl.Field().String()).IsValid()
}
