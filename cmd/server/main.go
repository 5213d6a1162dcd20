package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"

	"github.com/dpup/prefab"

	"github.com/dpup/roadpath/server/internal/cache"
	"github.com/dpup/roadpath/server/internal/clients/osrm"
	"github.com/dpup/roadpath/server/internal/config"
	"github.com/dpup/roadpath/server/internal/services"
)

func main() {
	// Load configuration using Prefab's config system
	appConfig := loadConfig()

	// Initialize routing client
	osrmClient := osrm.NewClient(appConfig.Routing)

	var opts []services.Option
	if appConfig.Routing.CacheTTL > 0 {
		cacheInstance := cache.NewCache()
		cacheInstance.StartPeriodicCleanup(context.Background(), appConfig.Routing.CleanupInterval)
		opts = append(opts, services.WithCache(cacheInstance))
		log.Printf("Road path caching enabled (ttl: %v)", appConfig.Routing.CacheTTL)
	}

	roadPathService := services.NewRoadPathService(osrmClient, &appConfig.Routing, opts...)
	handler := services.NewRoadPathHandler(roadPathService)

	log.Printf("Road Path API Server starting")
	log.Printf("Routing service: %s (geometries=%s)", appConfig.Routing.BaseURL, appConfig.Routing.Geometries)

	// Server configuration (port, etc.) will be loaded from prefab.yaml/env vars
	server := prefab.New(
		prefab.WithHTTPHandlerFunc("/", homepageHandler),
		prefab.WithHTTPHandlerFunc("/api/v1/road-path", handler.ServeRoadPath),
		prefab.WithHTTPHandlerFunc("/api/v1/road-path.kml", handler.ServeRoadPathKML),
		prefab.WithHTTPHandlerFunc("/api/v1/polyline/decode", handler.ServeDecodePolyline),
	)

	// Start the server (blocks until shutdown)
	if err := server.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// loadConfig loads configuration using Prefab's config system
// Configuration is loaded from prefab.yaml and environment variables with PF__ prefix
func loadConfig() *config.Config {
	appConfig := config.DefaultConfig()

	if err := prefab.Config.Unmarshal("routing", &appConfig.Routing); err != nil {
		log.Fatalf("Failed to unmarshal routing section: %v", err)
	}

	if err := appConfig.Routing.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return appConfig
}

// homepageHandler serves a simple HTML homepage at the server root
func homepageHandler(w http.ResponseWriter, r *http.Request) {
	// Only handle the root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>roadpath</title>
    <style>
        body { 
            font-family: 'Courier New', Consolas, monospace; 
            background: #000; 
            color: #0f0; 
            padding: 20px; 
            line-height: 1.4; 
        }
        a { color: #0ff; text-decoration: none; }
        a:hover { text-decoration: underline; }
        pre { margin: 0; }
        .header { color: #ff0; }
    </style>
</head>
<body>
<pre>
<span class="header">roadpath</span>

Resolves ordered stop sequences into road-following paths for map rendering.
Paths are returned as [lng, lat] pairs.

<span class="header">API Endpoints:</span>

Road Paths:
  POST /api/v1/road-path              - Resolve stops into a path (JSON)
  POST /api/v1/road-path?strict=true  - Same, with failures mapped to HTTP status
  POST /api/v1/road-path.kml          - Resolve stops into a KML LineString

Polylines:
  <a href="/api/v1/polyline/decode?encoded=_p~iF~ps%7CU_ulLnnqC_mqNvxq%60%40">GET /api/v1/polyline/decode</a>         - Decode an encoded polyline (precision=5|6)

<span class="header">Data Sources:</span>
  • OSRM Route Service   - Road geometry between stops

<span class="header">Example Usage:</span>
  curl -X POST /api/v1/road-path \
    -d '{"stops":[{"stop_lat":"38.0674","stop_lng":"-120.5402"},{"stop_lat":"38.1327","stop_lng":"-120.4606"}]}'
</pre>
</body>
</html>`

	if _, err := fmt.Fprint(w, html); err != nil {
		slog.Error("Failed to write homepage HTML", "error", err)
	}
}
