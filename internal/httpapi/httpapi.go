// Package httpapi exposes the RAPTOR search core and the catalog
// lookups over HTTP, built around an explicit origin_stop_ids /
// destination_stop_ids query contract rather than a lat/lon-viewport-
// only surface. Viewport search survives as an optional convenience
// endpoint, not the only way to reach a stop id.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/antigravity/raptor-transit/internal/catalog"
	"github.com/antigravity/raptor-transit/internal/raptor"
	"github.com/antigravity/raptor-transit/internal/timetable"
)

// Server holds the dependencies every handler needs: the immutable
// Timetable, the Search bound to it, and the precomputed Catalog.
// It carries no per-request state and is safe for concurrent use,
// same as the raptor.Search it wraps.
type Server struct {
	tt                    *timetable.Timetable
	search                *raptor.Search
	catalog               *catalog.Catalog
	log                   *slog.Logger
	defaultTransfersLimit int
}

// New returns a Server wired to tt. defaultTransfersLimit fills
// transfers_limit on any query that omits it (config.Config's
// RAPTOR_DEFAULT_TRANSFERS_LIMIT).
func New(tt *timetable.Timetable, log *slog.Logger, defaultTransfersLimit int) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		tt:                    tt,
		search:                raptor.New(tt),
		catalog:               catalog.New(tt),
		log:                   log,
		defaultTransfersLimit: defaultTransfersLimit,
	}
}

// Router builds the chi router: Logger, Recoverer, Timeout, CORS,
// plus RequestID so every log line and response can be correlated.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/", s.handleHealth)
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/route", s.handleRoute)
		r.Get("/isochrone", s.handleIsochrone)
		r.Get("/lines", s.handleLines)
		r.Get("/lines/{id}", s.handleLineDetail)
		r.Get("/stops", s.handleStops)
		r.Get("/stops/{id}", s.handleStopDetail)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "raptor-transit"})
}

// handleRoute answers a point-to-point query.
// origin_stop_ids and destination_stop_ids are comma-separated lists
// of stop ids; date defaults to today, specified_secs is required.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	queryID := uuid.New().String()
	log := s.log.With("query_id", queryID, "request_id", middleware.GetReqID(r.Context()))

	q, err := s.parseQuery(r)
	if err != nil {
		log.Warn("malformed route query", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(q.DestinationStopIDs) == 0 {
		http.Error(w, "destination_stop_ids is required for /route", http.StatusBadRequest)
		return
	}

	journey, err := s.search.PointToPoint(q)
	if err != nil {
		log.Warn("rejected route query", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("route query complete", "found", journey != nil)

	if strings.EqualFold(r.URL.Query().Get("format"), "geojson") {
		if journey == nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"type": "FeatureCollection", "features": []interface{}{}})
			return
		}
		writeJSON(w, http.StatusOK, journey.GeoJSON(s.tt))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query_id": queryID,
		"journey":  journey,
	})
}

// handleIsochrone answers an isochrone query.
// destination_stop_ids is ignored by a forward query; a reverse query
// is seeded from it and is rejected when it is empty.
func (s *Server) handleIsochrone(w http.ResponseWriter, r *http.Request) {
	queryID := uuid.New().String()
	log := s.log.With("query_id", queryID, "request_id", middleware.GetReqID(r.Context()))

	q, err := s.parseQuery(r)
	if err != nil {
		log.Warn("malformed isochrone query", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := s.search.Isochrone(q)
	if err != nil {
		log.Warn("rejected isochrone query", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	log.Info("isochrone query complete", "reachable", len(entries))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query_id": queryID,
		"entries":  entries,
	})
}

func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.ListLines())
}

func (s *Server) handleLineDetail(w http.ResponseWriter, r *http.Request) {
	routeID := timetable.RouteID(chi.URLParam(r, "id"))
	line, ok := s.catalog.LineDetail(routeID)
	if !ok {
		http.Error(w, "line not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// handleStops answers a viewport bounding-box search — the
// convenience entry point for a client that only has lat/lon, not
// the only way to discover a stop id.
func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	minLat, errMinLat := strconv.ParseFloat(r.URL.Query().Get("min_lat"), 64)
	minLon, errMinLon := strconv.ParseFloat(r.URL.Query().Get("min_lon"), 64)
	maxLat, errMaxLat := strconv.ParseFloat(r.URL.Query().Get("max_lat"), 64)
	maxLon, errMaxLon := strconv.ParseFloat(r.URL.Query().Get("max_lon"), 64)
	if errMinLat != nil || errMinLon != nil || errMaxLat != nil || errMaxLon != nil {
		http.Error(w, "min_lat, min_lon, max_lat, max_lon are required", http.StatusBadRequest)
		return
	}

	stops := s.catalog.StopsInViewport(minLat, minLon, maxLat, maxLon)
	writeJSON(w, http.StatusOK, stops)
}

func (s *Server) handleStopDetail(w http.ResponseWriter, r *http.Request) {
	stopID := timetable.StopID(chi.URLParam(r, "id"))
	stop, ok := s.catalog.StopDetail(stopID)
	if !ok {
		http.Error(w, "stop not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stop)
}

// parseQuery builds a raptor.Query from the request's query-string
// parameters field list.
func (s *Server) parseQuery(r *http.Request) (raptor.Query, error) {
	qs := r.URL.Query()

	origins := splitStopIDs(qs.Get("origin_stop_ids"))
	if len(origins) == 0 {
		return raptor.Query{}, errRequired("origin_stop_ids")
	}
	destinations := splitStopIDs(qs.Get("destination_stop_ids"))

	dateStr := qs.Get("specified_date")
	if dateStr == "" {
		dateStr = time.Now().Format("2006-01-02")
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return raptor.Query{}, errInvalid("specified_date", dateStr)
	}

	secsStr := qs.Get("specified_secs")
	if secsStr == "" {
		return raptor.Query{}, errRequired("specified_secs")
	}
	secs, err := strconv.Atoi(secsStr)
	if err != nil {
		return raptor.Query{}, errInvalid("specified_secs", secsStr)
	}

	transfersLimit := s.defaultTransfersLimit
	if v := qs.Get("transfers_limit"); v != "" {
		transfersLimit, err = strconv.Atoi(v)
		if err != nil {
			return raptor.Query{}, errInvalid("transfers_limit", v)
		}
	}

	reverse := false
	if v := qs.Get("is_reverse_search"); v != "" {
		reverse, err = strconv.ParseBool(v)
		if err != nil {
			return raptor.Query{}, errInvalid("is_reverse_search", v)
		}
	}

	var tripFilter []timetable.TripID
	if v := qs.Get("available_trip_ids"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				tripFilter = append(tripFilter, timetable.TripID(id))
			}
		}
	}

	return raptor.Query{
		OriginStopIDs:      origins,
		DestinationStopIDs: destinations,
		Date:               date,
		SpecifiedSecs:      secs,
		TransfersLimit:     transfersLimit,
		Reverse:            reverse,
		AvailableTripIDs:   tripFilter,
	}, nil
}

func splitStopIDs(v string) []timetable.StopID {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]timetable.StopID, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, timetable.StopID(p))
		}
	}
	return out
}

func errRequired(field string) error {
	return &queryError{msg: field + " is required"}
}

func errInvalid(field, value string) error {
	return &queryError{msg: field + " is invalid: " + value}
}

type queryError struct{ msg string }

func (e *queryError) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
