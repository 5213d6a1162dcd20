package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dpup/prefab/logging"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/twpayne/go-kml"

	"github.com/dpup/roadpath/server/internal/lib/geo"
	"github.com/dpup/roadpath/server/internal/lib/polyline"
)

const maxRequestBody = 1 << 20

// RoadPathHandler exposes RoadPathService over HTTP
type RoadPathHandler struct {
	service *RoadPathService
}

// NewRoadPathHandler creates a new RoadPathHandler
func NewRoadPathHandler(service *RoadPathService) *RoadPathHandler {
	return &RoadPathHandler{service: service}
}

type roadPathRequest struct {
	Stops []geo.Stop `json:"stops"`
}

type roadPathResponse struct {
	Path            []geo.LngLat `json:"path"`
	DistanceMeters  float64      `json:"distance_meters"`
	DurationSeconds float64      `json:"duration_seconds"`
	Cached          bool         `json:"cached"`
	Error           string       `json:"error,omitempty"`
	Code            string       `json:"code,omitempty"`
}

type decodeResponse struct {
	Points []geo.LngLat `json:"points"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ServeRoadPath handles POST /api/v1/road-path.
//
// Resolution failures are reported with status 200 and an empty path unless
// the request sets strict=true, in which case the failure code is mapped to
// an HTTP status.
func (h *RoadPathHandler) ServeRoadPath(w http.ResponseWriter, r *http.Request) {
	defer recoverHTTP(w, r)

	stops, ok := h.readStops(w, r)
	if !ok {
		return
	}

	result := h.service.Resolve(r.Context(), stops)

	resp := roadPathResponse{
		Path:            result.Path,
		DistanceMeters:  result.DistanceMeters,
		DurationSeconds: result.DurationSeconds,
		Cached:          result.Cached,
	}
	status := http.StatusOK
	if !result.OK() {
		resp.Error = result.Err.Error()
		resp.Code = result.Code().String()
		if strict, _ := strconv.ParseBool(r.URL.Query().Get("strict")); strict {
			status = runtime.HTTPStatusFromCode(result.Code())
		}
	}

	writeJSON(w, r, status, resp)
}

// ServeRoadPathKML handles POST /api/v1/road-path.kml. The document holds a
// single LineString placemark, or no placemark when no path was resolved.
func (h *RoadPathHandler) ServeRoadPathKML(w http.ResponseWriter, r *http.Request) {
	defer recoverHTTP(w, r)

	stops, ok := h.readStops(w, r)
	if !ok {
		return
	}

	path := h.service.GetRoadPath(r.Context(), stops)

	children := []kml.Element{kml.Name("Road path")}
	if len(path) > 0 {
		coords := make([]kml.Coordinate, len(path))
		for i, p := range path {
			coords[i] = kml.Coordinate{Lon: p.Lng(), Lat: p.Lat()}
		}
		children = append(children, kml.Placemark(
			kml.Name(fmt.Sprintf("Route through %d stops", len(stops))),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(coords...),
			),
		))
	}

	w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
	w.WriteHeader(http.StatusOK)
	if err := kml.KML(kml.Document(children...)).WriteIndent(w, "", "  "); err != nil {
		logging.Errorw(r.Context(), "Failed to write KML response", "error", err)
	}
}

// ServeDecodePolyline handles GET /api/v1/polyline/decode?encoded=...&precision=5
func (h *RoadPathHandler) ServeDecodePolyline(w http.ResponseWriter, r *http.Request) {
	defer recoverHTTP(w, r)

	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, r, http.MethodGet)
		return
	}

	precision := polyline.DefaultPrecision
	switch r.URL.Query().Get("precision") {
	case "", "5":
	case "6":
		precision = polyline.Precision6
	default:
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: "precision must be 5 or 6"})
		return
	}

	points, err := polyline.DecodeWithPrecision(r.URL.Query().Get("encoded"), precision)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, r, http.StatusOK, decodeResponse{Points: geo.ToLngLat(points)})
}

func (h *RoadPathHandler) readStops(w http.ResponseWriter, r *http.Request) ([]geo.Stop, bool) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, r, http.MethodPost)
		return nil, false
	}

	var req roadPathRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSON(w, r, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return nil, false
		}
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return nil, false
	}

	return req.Stops, true
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, allowed string) {
	w.Header().Set("Allow", allowed)
	writeJSON(w, r, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Errorw(r.Context(), "Failed to write JSON response", "error", err)
	}
}

func recoverHTTP(w http.ResponseWriter, r *http.Request) {
	if rec := recover(); rec != nil {
		logging.Errorw(r.Context(), "HTTP handler: recovered from panic",
			"error", rec, "path", r.URL.Path, "error.stack_trace", panicStack())
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
