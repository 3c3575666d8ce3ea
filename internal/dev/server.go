package dev

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rivet-web/rivet/pkg/middleware"
	"github.com/rivet-web/rivet/pkg/router"
)

// handler builds the dev HTTP surface: the reload WebSocket, a stats
// snapshot, Prometheus metrics, compiled client bundles, and an HTML
// shell for every resolved page route.
func (s *Session) handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Prometheus())
	r.Use(middleware.OpenTelemetry(middleware.WithRequestFilter(func(req *http.Request) bool {
		return req.URL.Path != "/metrics"
	})))

	r.Get("/_rivet/reload", s.hub.HandleWebSocket)
	r.Get("/_rivet/stats", s.handleStats)
	r.Get("/_rivet/bundle", s.handleBundle)
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(s.handlePage)

	return r
}

// handleStats serves a JSON snapshot of the session and its cache.
func (s *Session) handleStats(w http.ResponseWriter, _ *http.Request) {
	routes, _ := s.resolver.ResolveRoutes()

	snapshot := map[string]any{
		"state":         s.State().String(),
		"routes":        len(routes),
		"reloadClients": s.hub.ClientCount(),
		"cache":         s.store.Stats(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		s.logger.Warn("stats encode failed", "error", err)
	}
}

// handleBundle serves the latest client bundle for ?route=, compiling
// it on first request.
func (s *Session) handleBundle(w http.ResponseWriter, req *http.Request) {
	routePath := req.URL.Query().Get("route")
	if routePath == "" {
		http.Error(w, "missing route parameter", http.StatusBadRequest)
		return
	}

	bundle, err := s.clientBundle(req.Context(), routePath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if bundle == nil {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(bundle)
}

// clientBundle returns the hydration bundle for a route, building it
// if the session has not compiled that route yet.
func (s *Session) clientBundle(ctx context.Context, routePath string) ([]byte, error) {
	s.mu.Lock()
	bundle, ok := s.bundles[routePath]
	s.mu.Unlock()
	if ok {
		return bundle, nil
	}

	routes, err := s.resolver.ResolveRoutes()
	if err != nil {
		return nil, err
	}
	for i := range routes {
		if routes[i].RoutePath != routePath {
			continue
		}
		if err := s.rebuildRoute(ctx, &routes[i]); err != nil {
			return nil, err
		}
		s.mu.Lock()
		bundle = s.bundles[routePath]
		s.mu.Unlock()
		return bundle, nil
	}
	return nil, nil
}

// handlePage matches the request against the route table and serves the
// dev HTML shell that loads the route's client bundle.
func (s *Session) handlePage(w http.ResponseWriter, req *http.Request) {
	routes, err := s.resolver.ResolveRoutes()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entry, _, err := router.MatchRoute(req.URL.Path, routes)
	if err != nil || entry.PageFile == "" {
		http.NotFound(w, req)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, pageShell,
		html.EscapeString(s.cfg.Name),
		url.QueryEscape(entry.RoutePath),
		DevClientScript)
}

const pageShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body>
<div id="root"></div>
<script type="module" src="/_rivet/bundle?route=%s"></script>
%s
</body>
</html>
`
