package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/rogerio-castellano/catalog-gateway/internal/models"
)

// FilterByPrice keeps variants priced within [priceMin, priceMax]. A missing
// lower bound is 0 and a missing upper bound is unbounded. With no bounds the
// input is returned as is.
func FilterByPrice(variants []models.Variant, priceMin, priceMax *float64) []models.Variant {
	if priceMin == nil && priceMax == nil {
		return variants
	}
	lo, hi := 0.0, math.Inf(1)
	if priceMin != nil {
		lo = *priceMin
	}
	if priceMax != nil {
		hi = *priceMax
	}
	out := make([]models.Variant, 0, len(variants))
	for _, v := range variants {
		if v.Price >= lo && v.Price <= hi {
			out = append(out, v)
		}
	}
	return out
}

// Join attaches to each product, in catalog order, the variants carrying its
// identifier, in inventory order. Products without variants are kept.
func Join(products []models.Product, variants []models.Variant) []models.MergedProduct {
	byProduct := make(map[string][]models.Variant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	merged := make([]models.MergedProduct, len(products))
	for i, p := range products {
		own := slices.Clone(byProduct[p.ID])
		if own == nil {
			own = []models.Variant{}
		}
		merged[i] = models.MergedProduct{Product: p, Variants: own}
	}
	return merged
}

// SortByFirstPrice orders products by the price of their first variant. The
// sort is stable so ties keep catalog order.
func SortByFirstPrice(merged []models.MergedProduct, order string) {
	slices.SortStableFunc(merged, func(a, b models.MergedProduct) int {
		if order == OrderAsc {
			return cmp.Compare(a.FirstPrice(), b.FirstPrice())
		}
		return cmp.Compare(b.FirstPrice(), a.FirstPrice())
	})
}

// Merge runs filter, join and the optional price sort, in that order.
func Merge(products []models.Product, variants []models.Variant, q QueryParams) []models.MergedProduct {
	merged := Join(products, FilterByPrice(variants, q.PriceMin, q.PriceMax))
	if q.SortBy == SortByPrice {
		SortByFirstPrice(merged, q.Order)
	}
	return merged
}

// TotalPages is ceil(total / limit), or 0 when either is not positive.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
