package dto_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"lendit/shared/constant"
	"lendit/shared/dto"
	"lendit/shared/failure"
	"lendit/shared/model"
)

func TestMetadata_FromModel(t *testing.T) {
	createdAt := time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC)
	modifiedAt := time.Date(2023, 1, 2, 12, 0, 0, 0, time.UTC)

	modelMetadata := model.Metadata{
		CreatedAt:  createdAt,
		ModifiedAt: modifiedAt,
		CreatedBy:  "creator",
		ModifiedBy: "modifier",
	}

	metadata := &dto.Metadata{}
	metadata.FromModel(modelMetadata)

	if metadata.CreatedBy != "creator" {
		t.Errorf("expected CreatedBy to be 'creator', got %s", metadata.CreatedBy)
	}

	if metadata.ModifiedBy != "modifier" {
		t.Errorf("expected ModifiedBy to be 'modifier', got %s", metadata.ModifiedBy)
	}
}

func newRequest(t *testing.T, params map[string]string) *http.Request {
	t.Helper()

	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}

	req, err := http.NewRequest(http.MethodGet, "/?"+values.Encode(), nil)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}

	return req
}

func TestQueryParams_FromRequest(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    map[string]string
		defaultRequest bool
		expected       dto.QueryParams
	}{
		{
			name: "with all valid parameters",
			queryParams: map[string]string{
				"page":     "2",
				"limit":    "20",
				"sort_by":  "name",
				"sort_dir": "asc",
			},
			defaultRequest: false,
			expected:       dto.QueryParams{Page: 2, Limit: 20, SortBy: "name", SortDir: "ASC"},
		},
		{
			name:           "defaults applied when empty",
			queryParams:    map[string]string{},
			defaultRequest: true,
			expected:       dto.QueryParams{Page: constant.DefaultValuePage, Limit: constant.DefaultValueLimit},
		},
		{
			name: "invalid values ignored",
			queryParams: map[string]string{
				"page":     "zero",
				"limit":    "-3",
				"sort_dir": "sideways",
			},
			defaultRequest: false,
			expected:       dto.QueryParams{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := dto.QueryParams{}
			q.FromRequest(newRequest(t, tt.queryParams), tt.defaultRequest)

			if q != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, q)
			}
		})
	}
}

func TestPageWindow_FromRequest(t *testing.T) {
	tests := []struct {
		name        string
		queryParams map[string]string
		expected    dto.PageWindow
	}{
		{
			name:        "explicit window",
			queryParams: map[string]string{"from": "20", "size": "5"},
			expected:    dto.PageWindow{From: 20, Size: 5},
		},
		{
			name:        "defaults when absent",
			queryParams: map[string]string{},
			expected:    dto.PageWindow{From: 0, Size: constant.DefaultValueLimit},
		},
		{
			name:        "negative values kept for validation downstream",
			queryParams: map[string]string{"from": "-1", "size": "0"},
			expected:    dto.PageWindow{From: -1, Size: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := dto.PageWindow{}
			p.FromRequest(newRequest(t, tt.queryParams))

			if p != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, p)
			}
		})
	}
}

func TestPageWindow_ToQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		window   dto.PageWindow
		expected dto.QueryParams
		wantErr  error
	}{
		{
			name:     "offset zero is first page",
			window:   dto.PageWindow{From: 0, Size: 10},
			expected: dto.QueryParams{Page: 1, Limit: 10, SortBy: "start_date", SortDir: dto.SortDirDesc},
		},
		{
			name:     "offset translated to page number",
			window:   dto.PageWindow{From: 20, Size: 10},
			expected: dto.QueryParams{Page: 3, Limit: 10, SortBy: "start_date", SortDir: dto.SortDirDesc},
		},
		{
			name:     "partial offset truncates to containing page",
			window:   dto.PageWindow{From: 5, Size: 10},
			expected: dto.QueryParams{Page: 1, Limit: 10, SortBy: "start_date", SortDir: dto.SortDirDesc},
		},
		{
			name:    "zero size rejected",
			window:  dto.PageWindow{From: 0, Size: 0},
			wantErr: failure.InvalidSizeParam,
		},
		{
			name:    "negative from rejected",
			window:  dto.PageWindow{From: -1, Size: 10},
			wantErr: failure.InvalidFromParam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := tt.window.ToQueryParams("start_date", dto.SortDirDesc)

			if tt.wantErr != nil {
				if err == nil || err.Error() != tt.wantErr.Error() {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if q != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, q)
			}
		})
	}
}

func TestFilter_GetWhereClause_Comparisons(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   dto.Filter
		expected string
	}{
		{
			name:     "strictly less",
			filter:   dto.Filter{Field: "end_date", Operator: dto.FilterOperatorLess, Value: now, Table: "bookings", ArgName: "now_past"},
			expected: "bookings.end_date < :now_past",
		},
		{
			name:     "strictly greater",
			filter:   dto.Filter{Field: "start_date", Operator: dto.FilterOperatorGreater, Value: now, Table: "bookings", ArgName: "now_future"},
			expected: "bookings.start_date > :now_future",
		},
		{
			name:     "less or equal",
			filter:   dto.Filter{Field: "start_date", Operator: dto.FilterOperatorLessEq, Value: now, Table: "bookings", ArgName: "now_start"},
			expected: "bookings.start_date <= :now_start",
		},
		{
			name:     "greater or equal",
			filter:   dto.Filter{Field: "end_date", Operator: dto.FilterOperatorGreaterEq, Value: now, Table: "bookings", ArgName: "now_end"},
			expected: "bookings.end_date >= :now_end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.GetWhereClause()

			if where != tt.expected {
				t.Errorf("expected clause %q, got %q", tt.expected, where)
			}

			if len(args) != 1 {
				t.Errorf("expected one argument, got %d", len(args))
			}

			if args[tt.filter.ArgName] != now {
				t.Errorf("expected argument %q to carry the comparison value", tt.filter.ArgName)
			}
		})
	}
}

func TestFilterGroup_GetWhereClause(t *testing.T) {
	group := dto.FilterGroup{
		Operator: dto.FilterGroupOperatorAnd,
		Filters: []any{
			dto.Filter{Field: "booker_id", Operator: dto.FilterOperatorEq, Value: "u1", Table: "bookings"},
			dto.Filter{Field: "status", Operator: dto.FilterOperatorEq, Value: "WAITING", Table: "bookings"},
		},
	}

	where, args := group.GetWhereClause()

	expected := "(bookings.booker_id = :booker_id AND bookings.status = :status)"
	if where != expected {
		t.Errorf("expected clause %q, got %q", expected, where)
	}

	if args["booker_id"] != "u1" || args["status"] != "WAITING" {
		t.Errorf("unexpected arguments: %+v", args)
	}
}
