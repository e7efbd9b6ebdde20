package upstream

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/models"
)

// CatalogClient talks to the product service.
type CatalogClient struct {
	c *client
}

func NewCatalogClient(baseURL string, opts Options, log *logger.Logger) (*CatalogClient, error) {
	c, err := newClient("product-service", baseURL, opts, log)
	if err != nil {
		return nil, err
	}
	return &CatalogClient{c: c}, nil
}

type catalogResponse struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

// FetchByCollection returns one page of the collection's products, filtered,
// sorted and paginated by the product service.
func (cc *CatalogClient) FetchByCollection(ctx context.Context, collectionID string, q aggregate.QueryParams) (aggregate.CatalogPage, error) {
	var resp catalogResponse
	path := "/api/products/by-collection/" + url.PathEscape(collectionID)
	if err := cc.c.do(ctx, http.MethodGet, path, catalogQuery(q), nil, &resp); err != nil {
		return aggregate.CatalogPage{}, err
	}
	if resp.Products == nil {
		resp.Products = []models.Product{}
	}
	return aggregate.CatalogPage{Products: resp.Products, Total: resp.Total}, nil
}

func catalogQuery(q aggregate.QueryParams) url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("sortBy", q.SortBy)
	v.Set("order", q.Order)
	optional := map[string]string{
		"search":     q.Search,
		"gender":     q.Gender,
		"isFeatured": q.IsFeatured,
		"isActive":   q.IsActive,
		"tags":       strings.Join(q.Tags, ","),
	}
	for key, val := range optional {
		if val != "" {
			v.Set(key, val)
		}
	}
	return v
}
