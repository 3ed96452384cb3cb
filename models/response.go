package models

import (
	"net/url"
	"strconv"
)

// APIResponse is the envelope every API endpoint responds with
type APIResponse[T any] struct {
	Data      T      `json:"data"`
	RequestID string `json:"requestId"`
	Error     string `json:"error,omitempty"`
}

// MessageResponse is the payload of endpoints that only acknowledge
type MessageResponse struct {
	Message string `json:"message"`
}

// SortOrder is the direction of a list sort
type SortOrder string

const (
	SortAscend  SortOrder = "ascend"
	SortDescend SortOrder = "descend"
)

// ListParams are the pagination, sorting and search parameters shared by
// the list endpoints. Page is zero-indexed.
type ListParams struct {
	Page      *int      `json:"page,omitempty" validate:"omitempty,gte=0"`
	Limit     *int      `json:"limit,omitempty" validate:"omitempty,gt=0,lte=100"`
	SortField string    `json:"sortField,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty" validate:"omitempty,oneof=ascend descend"`
	Query     string    `json:"query,omitempty"`
}

// Values encodes the parameters that are set
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page != nil {
		v.Set("page", strconv.Itoa(*p.Page))
	}
	if p.Limit != nil {
		v.Set("limit", strconv.Itoa(*p.Limit))
	}
	if p.SortField != "" {
		v.Set("sortField", p.SortField)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", string(p.SortOrder))
	}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	return v
}

// ParseListParams reads list parameters from a query string. Malformed
// numbers are ignored.
func ParseListParams(v url.Values) ListParams {
	var p ListParams
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		p.Page = &n
	}
	if n, err := strconv.Atoi(v.Get("limit")); err == nil {
		p.Limit = &n
	}
	p.SortField = v.Get("sortField")
	p.SortOrder = SortOrder(v.Get("sortOrder"))
	p.Query = v.Get("query")
	return p
}

// Window returns the slice bounds of the requested page over total items
func (p ListParams) Window(total, defaultLimit int) (start, end int) {
	page, limit := 0, defaultLimit
	if p.Page != nil && *p.Page > 0 {
		page = *p.Page
	}
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}
	start = page * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}
	return start, end
}

// Int returns a pointer to n, for optional numeric fields
func Int(n int) *int {
	return &n
}
