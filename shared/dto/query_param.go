package dto

import (
	"net/http"
	"strconv"
	"strings"

	"lendit/shared/constant"
	"lendit/shared/failure"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest populates QueryParams from the HTTP request.
// It's recommended to call this method with `defaultRequest` set to true if data is large
// Example:
//
//	q := &dto.QueryParams{}
//	q.FromRequest(req, true)
//
// This will set default values for Page, Limit, SortBy, and SortDir if they are not provided in the request.
// If `defaultRequest` is false, it will only populate the fields that are present in the request.
func (q *QueryParams) FromRequest(r *http.Request, defaultRequest bool) {
	queryParams := r.URL.Query()

	if page := queryParams.Get(constant.RequestParamPage); page != "" {
		if pageInt, err := strconv.Atoi(page); err == nil && pageInt > 0 {
			q.Page = pageInt
		}
	}

	if limit := queryParams.Get(constant.RequestParamLimit); limit != "" {
		if limitInt, err := strconv.Atoi(limit); err == nil && limitInt > 0 {
			q.Limit = limitInt
		}
	}

	if sortBy := queryParams.Get(constant.RequestParamSortBy); sortBy != "" {
		q.SortBy = sortBy
	}

	if sortDir := queryParams.Get(constant.RequestParamSortDir); strings.ToUpper(sortDir) == SortDirAsc || strings.ToUpper(sortDir) == SortDirDesc {
		q.SortDir = strings.ToUpper(sortDir)
	}

	if defaultRequest {
		if q.Page == 0 {
			q.Page = constant.DefaultValuePage
		}

		if q.Limit == 0 {
			q.Limit = constant.DefaultValueLimit
		}
	}
}

// PageWindow is an offset-based page request (`from` is a zero-based offset,
// `size` a page length). It is the pagination shape the listing endpoints
// accept and is translated into page-number pagination for the repository.
type PageWindow struct {
	From int `json:"from" validate:"omitempty,gte=0"`
	Size int `json:"size" validate:"omitempty,gt=0"`
}

// FromRequest populates the window from `from` and `size` query parameters,
// defaulting to from=0 and size=10 when absent. Malformed values keep the
// defaults so validation happens against the caller's effective request.
func (p *PageWindow) FromRequest(r *http.Request) {
	p.From = 0
	p.Size = constant.DefaultValueLimit

	queryParams := r.URL.Query()

	if from := queryParams.Get(constant.RequestParamFrom); from != "" {
		if fromInt, err := strconv.Atoi(from); err == nil {
			p.From = fromInt
		}
	}

	if size := queryParams.Get(constant.RequestParamSize); size != "" {
		if sizeInt, err := strconv.Atoi(size); err == nil {
			p.Size = sizeInt
		}
	}
}

// ToQueryParams converts the window into page-number pagination. The
// repository paginates by page number, so `from` is translated as
// page = from/size + 1; size must be positive to avoid a zero division.
func (p *PageWindow) ToQueryParams(sortBy, sortDir string) (QueryParams, error) {
	if p.Size <= 0 {
		return QueryParams{}, failure.InvalidSizeParam
	}

	if p.From < 0 {
		return QueryParams{}, failure.InvalidFromParam
	}

	return QueryParams{
		Page:    p.From/p.Size + 1,
		Limit:   p.Size,
		SortBy:  sortBy,
		SortDir: sortDir,
	}, nil
}
