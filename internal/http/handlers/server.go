package handlers

import (
	"context"

	"github.com/rogerio-castellano/catalog-gateway/internal/aggregate"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

// Aggregator runs the products-with-variants pipeline.
type Aggregator interface {
	ProductsWithVariants(ctx context.Context, collectionID string, q aggregate.QueryParams) (aggregate.Result, error)
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	agg      Aggregator
	maxLimit int
	redis    Pinger
	log      *logger.Logger
}

// NewServer builds the HTTP handlers. redis may be nil when no Redis is configured.
func NewServer(agg Aggregator, maxLimit int, redis Pinger, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		agg:      agg,
		maxLimit: maxLimit,
		redis:    redis,
		log:      log.With("component", "handlers"),
	}
}
