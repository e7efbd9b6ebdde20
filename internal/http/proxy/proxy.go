package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rogerio-castellano/catalog-gateway/internal/logger"
	"github.com/rogerio-castellano/catalog-gateway/internal/requestctx"
)

const (
	publicPrefix   = "/v1"
	upstreamPrefix = "/api"
)

// NewProxyHandler forwards requests unchanged to targetURL, rewriting the
// public /v1 prefix to the services' /api prefix.
func NewProxyHandler(name, targetURL string, log *logger.Logger) (http.Handler, error) {
	target, err := url.Parse(targetURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid target URL for %s proxy: %q", name, targetURL)
	}
	log = log.With("proxy", name)

	rp := &httputil.ReverseProxy{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	rp.Director = func(req *http.Request) {
		req.Header.Set("X-Forwarded-Host", req.Host)
		req.Header.Set("X-Origin-Host", target.Host)
		if rd := requestctx.Get(req.Context()); rd != nil && rd.RequestID != "" {
			req.Header.Set(requestctx.HeaderRequestID, rd.RequestID)
		}
		req.URL.Scheme = target.Scheme
		req.URL.Host = target.Host
		req.URL.Path = joinPath(target.Path, RewritePath(req.URL.Path))
		req.URL.RawPath = ""
		req.Host = target.Host
	}

	rp.ModifyResponse = func(resp *http.Response) error {
		log.Info("response received from upstream",
			"method", resp.Request.Method,
			"path", resp.Request.URL.Path,
			"status", resp.StatusCode,
		)
		return nil
	}

	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("proxy error", "method", r.Method, "path", r.URL.Path, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "Internal server error",
			"error":   err.Error(),
		})
	}

	return rp, nil
}

// RewritePath maps /v1/... to /api/...; other paths are returned unchanged.
func RewritePath(p string) string {
	if p == publicPrefix || strings.HasPrefix(p, publicPrefix+"/") {
		return upstreamPrefix + strings.TrimPrefix(p, publicPrefix)
	}
	return p
}

func joinPath(base, p string) string {
	base = strings.TrimRight(base, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return base + p
}
