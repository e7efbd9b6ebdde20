package aggregate

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/models"
)

const tracerName = "github.com/rogerio-castellano/catalog-gateway/internal/aggregate"

// CatalogPage is one page of products and the catalog's count of all matches.
type CatalogPage struct {
	Products []models.Product
	Total    int
}

type CatalogFetcher interface {
	FetchByCollection(ctx context.Context, collectionID string, q QueryParams) (CatalogPage, error)
}

type VariantFetcher interface {
	FetchByProductIDs(ctx context.Context, productIDs []string) ([]models.Variant, error)
}

// Result is one merged page. Empty is set when the catalog returned no products
// and the inventory service was not consulted.
type Result struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
	Products   []models.MergedProduct
	Empty      bool
}

// PageSize is the number of products actually returned.
func (r Result) PageSize() int {
	return len(r.Products)
}

type Service struct {
	catalog   CatalogFetcher
	inventory VariantFetcher
	log       *logger.Logger
	tracer    trace.Tracer
}

func NewService(catalog CatalogFetcher, inventory VariantFetcher, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		catalog:   catalog,
		inventory: inventory,
		log:       log.With("service", "Aggregator"),
		tracer:    otel.Tracer(tracerName),
	}
}

// ProductsWithVariants fetches a page of the collection, joins the variants of
// those products onto them and applies the price filter and price sort.
func (s *Service) ProductsWithVariants(ctx context.Context, collectionID string, q QueryParams) (Result, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return Result{}, fmt.Errorf("%w: collection ID is required", ErrBadRequest)
	}

	ctx, span := s.tracer.Start(ctx, "aggregate.ProductsWithVariants",
		trace.WithAttributes(
			attribute.String("collection.id", collectionID),
			attribute.Int("page", q.Page),
			attribute.Int("limit", q.Limit),
		))
	defer span.End()

	page, err := s.catalog.FetchByCollection(ctx, collectionID, q)
	if err != nil {
		return Result{}, s.fail(span, "catalog fetch failed", collectionID, err)
	}
	span.SetAttributes(attribute.Int("catalog.products", len(page.Products)), attribute.Int("catalog.total", page.Total))

	if len(page.Products) == 0 {
		s.log.Debug("collection page is empty", "collection_id", collectionID, "page", q.Page)
		return Result{
			Page:     q.Page,
			Limit:    q.Limit,
			Products: []models.MergedProduct{},
			Empty:    true,
		}, nil
	}

	variants, err := s.inventory.FetchByProductIDs(ctx, productIDs(page.Products))
	if err != nil {
		return Result{}, s.fail(span, "variant fetch failed", collectionID, err)
	}
	span.SetAttributes(attribute.Int("inventory.variants", len(variants)))

	merged := Merge(page.Products, variants, q)

	s.log.Debug("merged collection page",
		"collection_id", collectionID,
		"products", len(merged),
		"variants", len(variants),
		"total", page.Total,
	)

	return Result{
		Total:      page.Total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: TotalPages(page.Total, q.Limit),
		Products:   merged,
	}, nil
}

func (s *Service) fail(span trace.Span, msg, collectionID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.log.Error(msg, "collection_id", collectionID, "error", err)
	return err
}

// productIDs returns the page's identifiers in catalog order without duplicates.
func productIDs(products []models.Product) []string {
	seen := make(map[string]struct{}, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		ids = append(ids, p.ID)
	}
	return ids
}
