package study

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studyfocus/focus/core"
)

type Category string

const (
	CategoryCS          Category = "CS"
	CategoryMath        Category = "MATH"
	CategoryLanguage    Category = "LANGUAGE"
	CategoryCertificate Category = "CERTIFICATE"
	CategoryEmployment  Category = "EMPLOYMENT"
	CategoryHobby       Category = "HOBBY"
	CategoryEtc         Category = "ETC"
)

var Categories = []Category{
	CategoryCS, CategoryMath, CategoryLanguage, CategoryCertificate, CategoryEmployment, CategoryHobby, CategoryEtc,
}

func (c Category) IsValid() bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleLeader Role = "LEADER"
	RoleMember Role = "MEMBER"
)

type Address struct {
	Province string `json:"province"`
	District string `json:"district"`
}

type Profile struct {
	Title    string   `json:"title"`
	Bio      string   `json:"bio"`
	Category Category `json:"category"`
	Address  Address  `json:"address"`
}

type Study struct {
	ID             int64     `json:"id"`
	MaxMemberCount int       `json:"max_member_count"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	Profile        Profile   `json:"profile"`
}

type Membership struct {
	ID       int64     `json:"id" db:"id"`
	StudyID  int64     `json:"study_id" db:"study_id"`
	UserID   int64     `json:"user_id" db:"user_id"`
	Role     Role      `json:"role" db:"role"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

type Bookmark struct {
	ID        int64     `json:"id" db:"id"`
	StudyID   int64     `json:"study_id" db:"study_id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListingRow is one study of a search result page.
type ListingRow struct {
	StudyID             int64    `json:"study_id" boil:"study_id"`
	Title               string   `json:"title" boil:"title"`
	MaxMemberCount      int      `json:"max_member_count" boil:"max_member_count"`
	MemberCount         int      `json:"member_count" boil:"member_count"`
	BookmarkCount       int64    `json:"bookmark_count" boil:"bookmark_count"`
	Bio                 string   `json:"bio" boil:"bio"`
	Category            Category `json:"category" boil:"category"`
	LeaderTrustScore    int      `json:"leader_trust_score" boil:"leader_trust_score"`
	ViewerHasBookmarked bool     `json:"viewer_has_bookmarked" boil:"viewer_has_bookmarked"`
}

// NewStudy contains information needed to create a new Study.
type NewStudy struct {
	Title          string   `json:"title" validate:"required,max=100"`
	Bio            string   `json:"bio" validate:"max=1000"`
	Category       Category `json:"category" validate:"required,category"`
	Province       string   `json:"province" validate:"max=50"`
	District       string   `json:"district" validate:"max=50"`
	MaxMemberCount int      `json:"max_member_count" validate:"min=2,max=100"`
}

func (ns *NewStudy) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Bio = core.CleanString(ns.Bio)
	ns.Category = Category(core.CleanString(string(ns.Category)))
	ns.Province = core.CleanString(ns.Province)
	ns.District = core.CleanString(ns.District)
	return validate.Struct(ns)
}
