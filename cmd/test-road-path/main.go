package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dpup/roadpath/server/internal/clients/osrm"
	"github.com/dpup/roadpath/server/internal/config"
	"github.com/dpup/roadpath/server/internal/lib/geo"
	"github.com/dpup/roadpath/server/internal/services"
)

func main() {
	defaults := config.DefaultConfig().Routing

	var (
		baseURL    = flag.String("base-url", defaults.BaseURL, "Route service endpoint including profile")
		geometries = flag.String("geometries", defaults.Geometries, "Geometry encoding (polyline or polyline6)")
		timeout    = flag.Duration("timeout", defaults.Timeout, "Request timeout")
		stopsStr   = flag.String("stops", "-1.2921,36.8219;-1.28333,36.81667", "Stops as lat,lng pairs separated by semicolons")
		verbose    = flag.Bool("verbose", false, "Print every point of the path")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		fmt.Printf("Road Path Test Tool\n\n")
		fmt.Printf("Resolves a stop sequence into a road-following path.\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s -stops=\"38.0674,-120.5402;38.1327,-120.4606\"\n", os.Args[0])
		fmt.Printf("  %s -base-url=http://localhost:5000/route/v1/driving -geometries=polyline6\n", os.Args[0])
		return
	}

	cfg := config.RoutingConfig{
		BaseURL:    *baseURL,
		Geometries: *geometries,
		Timeout:    *timeout,
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	stops, err := parseStops(*stopsStr)
	if err != nil {
		log.Fatalf("Invalid stops: %v", err)
	}

	client := osrm.NewClient(cfg)
	service := services.NewRoadPathService(client, &cfg)

	fmt.Printf("Requesting: %s\n", client.BuildURL(stops))

	start := time.Now()
	result := service.Resolve(context.Background(), stops)
	elapsed := time.Since(start)

	if !result.OK() {
		fmt.Printf("Resolution failed after %v (%s): %v\n", elapsed, result.Code(), result.Err)
		os.Exit(1)
	}

	fmt.Printf("Resolved in %v\n", elapsed)
	fmt.Printf("  Stops: %d\n", len(stops))
	fmt.Printf("  Points: %d\n", len(result.Path))
	fmt.Printf("  Service distance: %.0f meters\n", result.DistanceMeters)
	fmt.Printf("  Service duration: %.0f seconds\n", result.DurationSeconds)
	fmt.Printf("  Geometry length: %.0f meters\n", geo.PathLength(result.Path))

	if *verbose {
		for i, p := range result.Path {
			fmt.Printf("    %d: [%.6f, %.6f]\n", i+1, p.Lng(), p.Lat())
		}
	}
}

func parseStops(s string) ([]geo.Stop, error) {
	var stops []geo.Stop
	for _, pair := range strings.Split(s, ";") {
		var lat, lng float64
		if _, err := fmt.Sscanf(strings.TrimSpace(pair), "%f,%f", &lat, &lng); err != nil {
			return nil, fmt.Errorf("expected lat,lng but got %q: %w", pair, err)
		}
		stops = append(stops, geo.NewStop(lat, lng))
	}
	return stops, nil
}
