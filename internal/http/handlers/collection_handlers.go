package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
)

// ProductsWithVariantsHandler godoc
// @Summary List a collection's products with their variants
// @Description Fetches one page of the collection from the catalog service, joins each product's variants from the inventory service, then applies the optional price filter and price sort.
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Param collectionId path string true "Collection ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param search query string false "Free-text search"
// @Param gender query string false "Gender filter"
// @Param isFeatured query string false "Featured flag"
// @Param isActive query string false "Active flag"
// @Param tags query string false "Comma-separated tags"
// @Param sortBy query string false "Sort field; price sorts by first variant price" default(createdAt)
// @Param order query string false "asc or desc" default(desc)
// @Param priceMin query number false "Lowest variant price kept"
// @Param priceMax query number false "Highest variant price kept"
// @Success 200 {object} ProductsWithVariantsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {string} string "missing or invalid token"
// @Failure 502 {object} ErrorResponse
// @Failure 504 {object} ErrorResponse
// @Router /collections/{collectionId}/products-with-variants [get]
func (s *Server) ProductsWithVariantsHandler(w http.ResponseWriter, r *http.Request) {
	collectionID := strings.TrimSpace(chi.URLParam(r, "collectionId"))
	if collectionID == "" {
		s.respondError(w, r, fmt.Errorf("%w: collection ID is required", aggregate.ErrBadRequest))
		return
	}

	q, err := aggregate.ParseQuery(r.URL.Query(), s.maxLimit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.agg.ProductsWithVariants(r.Context(), collectionID, q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	resp := ProductsWithVariantsResponse{
		Success:    true,
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Products:   res.Products,
	}
	if !res.Empty {
		size := res.PageSize()
		resp.PageSize = &size
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		s.log.Warn("failed to write response", "error", err)
	}
}
