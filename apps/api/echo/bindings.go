package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/studyfocus/focus/core/study"
)

var idParam = "id"

// Page is the paginated response envelope.
type Page struct {
	Items    interface{} `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func newStudyPage(res study.SearchResult, filter study.SearchFilter) Page {
	return Page{
		Items:    res.Items,
		Total:    res.Total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
}

// bindSearchFilter reads the search query parameters.
// page_size falls back to defaultPageSize only when the parameter is absent.
func bindSearchFilter(ctx echo.Context, defaultPageSize int) (study.SearchFilter, error) {
	filter := study.SearchFilter{PageSize: defaultPageSize}
	if err := ctx.Bind(&filter); err != nil {
		return study.SearchFilter{}, err
	}
	filter.ViewerID = getViewerID(ctx)
	return filter, nil
}

// bindID parses the :id path parameter; malformed IDs are not found.
func bindID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(idParam), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}
