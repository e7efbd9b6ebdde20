package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/rogerio-castellano/catalog-gateway/docs"
	"github.com/rogerio-castellano/catalog-gateway/internal/auth"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/handlers"
	mw "github.com/rogerio-castellano/catalog-gateway/internal/http/middleware"
	"github.com/rogerio-castellano/catalog-gateway/internal/http/proxy"
	rl "github.com/rogerio-castellano/catalog-gateway/internal/http/rate_limiter"
	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
)

// Deps are the collaborators the router wires together. Exchanger, Limiter,
// Strikes and UserServiceURL are optional.
type Deps struct {
	Server            *handlers.Server
	Exchanger         *auth.Exchanger
	Limiter           *rl.Limiter
	Strikes           rl.StrikeRecorder
	ProductServiceURL string
	UserServiceURL    string
	AllowedOrigins    []string
	Log               *logger.Logger
}

func NewRouter(d Deps) (http.Handler, error) {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	productProxy, err := proxy.NewProxyHandler("product-service", d.ProductServiceURL, log)
	if err != nil {
		return nil, err
	}
	var userProxy http.Handler
	if d.UserServiceURL != "" {
		if userProxy, err = proxy.NewProxyHandler("user-service", d.UserServiceURL, log); err != nil {
			return nil, err
		}
	}

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(mw.RequestID)
	r.Use(mw.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", d.Server.HealthHandler)
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware(d.Strikes, log))
		}

		r.Group(func(r chi.Router) {
			if d.Exchanger != nil {
				r.Use(mw.RequireAuth(d.Exchanger, log))
			}
			r.Get("/collections/{collectionId}/products-with-variants", d.Server.ProductsWithVariantsHandler)
		})

		mount(r, productProxy, "/v1/products", "/v1/collections")
		if userProxy != nil {
			mount(r, userProxy, "/v1/users", "/v1/tokens")
		}
	})

	return otelhttp.NewHandler(r, "catalog-gateway"), nil
}

func mount(r chi.Router, h http.Handler, prefixes ...string) {
	for _, p := range prefixes {
		r.Handle(p, h)
		r.Handle(p+"/*", h)
	}
}
