package aggregate

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage   = 1
	DefaultLimit  = 10
	DefaultSortBy = "createdAt"
	DefaultOrder  = "desc"

	SortByPrice = "price"
	OrderAsc    = "asc"
	OrderDesc   = "desc"
)

// QueryParams holds the normalized pagination, filter and sort options of one request.
type QueryParams struct {
	Page       int
	Limit      int
	Search     string
	Gender     string
	IsFeatured string
	IsActive   string
	Tags       []string
	SortBy     string
	Order      string
	PriceMin   *float64
	PriceMax   *float64
}

// HasPriceFilter reports whether either price bound was given.
func (q QueryParams) HasPriceFilter() bool {
	return q.PriceMin != nil || q.PriceMax != nil
}

// ParseQuery normalizes raw query parameters. Unknown parameters are ignored.
// A limit above maxLimit is clamped; maxLimit <= 0 disables the clamp.
func ParseQuery(raw url.Values, maxLimit int) (QueryParams, error) {
	q := QueryParams{
		Page:       DefaultPage,
		Limit:      DefaultLimit,
		Search:     get(raw, "search"),
		Gender:     get(raw, "gender"),
		IsFeatured: get(raw, "isFeatured"),
		IsActive:   get(raw, "isActive"),
		Tags:       tags(raw),
		SortBy:     DefaultSortBy,
		Order:      DefaultOrder,
	}

	var err error
	if q.Page, err = positiveInt(raw, "page", DefaultPage); err != nil {
		return QueryParams{}, err
	}
	if q.Limit, err = positiveInt(raw, "limit", DefaultLimit); err != nil {
		return QueryParams{}, err
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.PriceMin, err = price(raw, "priceMin"); err != nil {
		return QueryParams{}, err
	}
	if q.PriceMax, err = price(raw, "priceMax"); err != nil {
		return QueryParams{}, err
	}

	if v := get(raw, "sortBy"); v != "" {
		q.SortBy = v
	}
	if v := get(raw, "order"); v != "" {
		switch strings.ToLower(v) {
		case OrderAsc, OrderDesc:
			q.Order = strings.ToLower(v)
		default:
			return QueryParams{}, &ParseError{Param: "order", Value: v, Reason: "must be asc or desc"}
		}
	}
	return q, nil
}

func get(raw url.Values, key string) string {
	return strings.TrimSpace(raw.Get(key))
}

// tags accepts both repeated and comma separated values.
func tags(raw url.Values) []string {
	var out []string
	for _, v := range raw["tags"] {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
	}
	return out
}

func positiveInt(raw url.Values, key string, def int) (int, error) {
	v := get(raw, key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParseError{Param: key, Value: v, Reason: "must be an integer"}
	}
	if n < 1 {
		return 0, &ParseError{Param: key, Value: v, Reason: "must be at least 1"}
	}
	return n, nil
}

func price(raw url.Values, key string) (*float64, error) {
	v := get(raw, key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ParseError{Param: key, Value: v, Reason: "must be a finite number"}
	}
	return &f, nil
}
