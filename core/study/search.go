package study

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/studyfocus/focus/core"
)

type SortType string

const (
	SortLatest         SortType = "LATEST"
	SortTrustScoreDesc SortType = "TRUST_SCORE_DESC"
)

// SortTypes is the closed list of supported orders.
// Every entry must have an ordering in each SearchRepository implementation.
var SortTypes = []SortType{SortLatest, SortTrustScoreDesc}

func (s SortType) IsValid() bool {
	for _, st := range SortTypes {
		if s == st {
			return true
		}
	}
	return false
}

// SearchFilter holds the options of a study search.
// Keyword, Category, Province and District are ANDed; blank ones are ignored.
// Keyword matches title or bio as a case-insensitive substring.
// Category must be one of Categories; an unknown category is an invalid parameter, not an empty match.
type SearchFilter struct {
	Keyword  string     `query:"keyword"`
	Category Category   `query:"category" validate:"omitempty,category"`
	Province string     `query:"province"`
	District string     `query:"district"`
	SortType SortType   `query:"sort" validate:"required,sorttype"`
	ViewerID null.Int64 `query:"-"`
	Page     int        `query:"page" validate:"gte=0"`
	PageSize int        `query:"page_size" validate:"gt=0"`
}

func (f *SearchFilter) Clean() {
	f.Keyword = core.CleanString(f.Keyword)
	f.Category = Category(core.CleanString(string(f.Category)))
	f.Province = core.CleanString(f.Province)
	f.District = core.CleanString(f.District)
	f.SortType = SortType(core.CleanString(string(f.SortType)))
}

func (f *SearchFilter) Validate(validate *validator.Validate) error {
	if err := validate.Struct(f); err != nil {
		return err
	}
	// Offset must fit in an int
	if f.PageSize > 0 && f.Page > math.MaxInt/f.PageSize {
		return core.NewValidationError(core.ErrInvalidParameter, core.FieldError{
			Field: "page",
			Error: fmt.Sprintf("page must be %d or less for page_size %d", math.MaxInt/f.PageSize, f.PageSize),
		})
	}
	return nil
}

func (f SearchFilter) Offset() int {
	return f.Page * f.PageSize
}

// CacheKey identifies the filter, viewer and page window.
func (f SearchFilter) CacheKey() string {
	var viewer string
	if f.ViewerID.Valid {
		viewer = fmt.Sprint(f.ViewerID.Int64)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%q|%q|%q|%q|%q|%s|%d|%d",
		f.Keyword, f.Category, f.Province, f.District, f.SortType, viewer, f.Page, f.PageSize)))
	return hex.EncodeToString(sum[:])
}

// SearchResult is one page of listing rows plus the number of studies matching the filter.
type SearchResult struct {
	Items []ListingRow `json:"items"`
	Total int64        `json:"total"`
}
