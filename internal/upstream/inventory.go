package upstream

import (
	"context"
	"net/http"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/models"
)

// InventoryClient talks to the inventory service.
type InventoryClient struct {
	c *client
}

func NewInventoryClient(baseURL string, opts Options, log *logger.Logger) (*InventoryClient, error) {
	c, err := newClient("inventory-service", baseURL, opts, log)
	if err != nil {
		return nil, err
	}
	return &InventoryClient{c: c}, nil
}

type variantsRequest struct {
	ProductIDs []string `json:"productIds"`
}

type variantsResponse struct {
	Variants []models.Variant `json:"variants"`
}

// FetchByProductIDs loads the variants of all given products in a single call.
// The call is a POST and is never retried.
func (ic *InventoryClient) FetchByProductIDs(ctx context.Context, productIDs []string) ([]models.Variant, error) {
	var resp variantsResponse
	body := variantsRequest{ProductIDs: productIDs}
	if err := ic.c.do(ctx, http.MethodPost, "/api/variants/by-product-ids", nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.Variants == nil {
		return []models.Variant{}, nil
	}
	return resp.Variants, nil
}
