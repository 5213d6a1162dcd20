package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dpup/roadpath/server/internal/lib/geo"
	"github.com/dpup/roadpath/server/internal/lib/polyline"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "decode":
		handleDecode()
	case "encode":
		handleEncode()
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleDecode() {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	encoded := fs.String("polyline", "", "Encoded polyline string to decode")
	precision := fs.Int("precision", 5, "Precision digits (5 for polyline, 6 for polyline6)")
	verbose := fs.Bool("verbose", false, "Show all decoded points")

	fs.Parse(os.Args[2:])

	if *encoded == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-polyline decode --polyline \"_p~iF~ps|U_ulLnnqC_mqNvxq`@\"")
		fmt.Println("  test-polyline decode --polyline \"encoded_string\" --precision 6 --verbose")
		os.Exit(1)
	}

	points, err := polyline.DecodeWithPrecision(*encoded, precisionFactor(*precision))
	if err != nil {
		log.Fatalf("Error decoding polyline: %v", err)
	}
	path := geo.ToLngLat(points)

	fmt.Printf("Polyline decoded successfully:\n")
	fmt.Printf("  Input: %s\n", *encoded)
	fmt.Printf("  Points: %d\n", len(path))
	fmt.Printf("  Length: %.0f meters\n", geo.PathLength(path))

	if len(path) > 0 {
		fmt.Printf("  Start [lng, lat]: [%.6f, %.6f]\n", path[0].Lng(), path[0].Lat())
		if len(path) > 1 {
			last := path[len(path)-1]
			fmt.Printf("  End [lng, lat]: [%.6f, %.6f]\n", last.Lng(), last.Lat())
		}
	}

	if *verbose && len(path) > 0 {
		fmt.Printf("  All points [lng, lat]:\n")
		for i, p := range path {
			fmt.Printf("    %d: [%.6f, %.6f]\n", i+1, p.Lng(), p.Lat())
		}
	}
}

func handleEncode() {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	pointsStr := fs.String("points", "", "Points as lat,lng pairs separated by semicolons")
	precision := fs.Int("precision", 5, "Precision digits (5 for polyline, 6 for polyline6)")

	fs.Parse(os.Args[2:])

	if *pointsStr == "" {
		fmt.Println("Example usage:")
		fmt.Println("  test-polyline encode --points \"38.5,-120.2;40.7,-120.95;43.252,-126.453\"")
		os.Exit(1)
	}

	points, err := parsePoints(*pointsStr)
	if err != nil {
		log.Fatalf("Error parsing points: %v", err)
	}

	fmt.Println(polyline.EncodeWithPrecision(points, precisionFactor(*precision)))
}

func parsePoints(s string) ([][2]float64, error) {
	var points [][2]float64
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected lat,lng but got %q", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", pair, err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", pair, err)
		}
		if _, err := geo.NewPoint(lat, lng); err != nil {
			return nil, fmt.Errorf("%q: %w", pair, err)
		}
		points = append(points, [2]float64{lat, lng})
	}
	return points, nil
}

func precisionFactor(digits int) float64 {
	if digits == 6 {
		return polyline.Precision6
	}
	if digits != 5 {
		log.Fatalf("Unsupported precision %d (use 5 or 6)", digits)
	}
	return polyline.DefaultPrecision
}

func printUsage() {
	fmt.Printf(`test-polyline - Encoded polyline debugging tool

USAGE:
    test-polyline <command> [options]

COMMANDS:
    decode      Decode a polyline string to [lng, lat] points
    encode      Encode lat,lng points to a polyline string
    help        Show this help message

EXAMPLES:
    # Google's published example
    test-polyline decode --polyline "_p~iF~ps|U_ulLnnqC_mqNvxq%s@" --verbose

    # OSRM polyline6 geometry
    test-polyline decode --polyline "encoded_string" --precision 6

    # Encode three points
    test-polyline encode --points "38.5,-120.2;40.7,-120.95;43.252,-126.453"
`, "`")
}
