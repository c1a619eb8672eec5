package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/layoutcache"
	"github.com/reportlane/reportlane/internal/metrics"
	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

const (
	defaultMatchLimit = 50
	maxMatchLimit     = 500

	layoutCacheHeader = "X-Layout-Cache"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	limit := defaultMatchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxMatchLimit)
	}

	matches, err := s.repo.Matches(r.Context(), limit)
	if err != nil {
		s.storeError(w, r, "list matches", err)
		return
	}
	if matches == nil {
		matches = []report.MatchSummary{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathMatchID(w, r)
	if !ok {
		return
	}
	filter, err := report.ParsePlayerFilter(r.URL.Query().Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, err := s.repo.Query(r.Context(), report.QueryOpts{MatchID: matchID, Filter: filter})
	if err != nil {
		s.storeError(w, r, "query reports", err)
		return
	}
	if reports == nil {
		reports = []report.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handleAddReports(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathMatchID(w, r)
	if !ok {
		return
	}

	bodyMatch, reports, err := report.DecodeBatch(http.MaxBytesReader(w, r.Body, report.MaxBatchBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if bodyMatch != 0 && bodyMatch != matchID {
		writeError(w, http.StatusBadRequest, "body MatchID does not match path")
		return
	}
	if len(reports) == 0 {
		writeError(w, http.StatusBadRequest, "no reports in body")
		return
	}
	report.AssignMatch(reports, matchID)

	if err := s.repo.Add(r.Context(), reports); err != nil {
		if errors.Is(err, report.ErrInvalidReport) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.storeError(w, r, "add reports", err)
		return
	}
	s.metrics.ReportsIngested(len(reports))

	team, enemy := report.Count(reports)
	s.logger.Info("reports ingested", "match_id", matchID, "count", len(reports), "team", team, "enemy", enemy)
	writeJSON(w, http.StatusCreated, map[string]any{
		"match_id":      matchID,
		"count":         len(reports),
		"team_reports":  team,
		"enemy_reports": enemy,
	})
}

func (s *Server) handleDeleteMatch(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathMatchID(w, r)
	if !ok {
		return
	}
	n, err := s.repo.DeleteMatch(r.Context(), matchID)
	if err != nil {
		if errors.Is(err, report.ErrNotFound) {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}
		s.storeError(w, r, "delete match", err)
		return
	}
	s.logger.Info("match deleted", "match_id", matchID, "reports", n)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	matchID, ok := pathMatchID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := report.ParsePlayerFilter(q.Get("player"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	st := s.Settings()
	canvas := st.Canvas
	if v := q.Get("width"); v != "" {
		width, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(width) || math.IsInf(width, 0) || width <= 0 {
			writeError(w, http.StatusBadRequest, "width must be a positive number")
			return
		}
		canvas.Width = width
	}

	reports, err := s.repo.Query(r.Context(), report.QueryOpts{MatchID: matchID})
	if err != nil {
		s.storeError(w, r, "query reports", err)
		return
	}
	if len(reports) == 0 {
		writeError(w, http.StatusNotFound, "match not found")
		return
	}

	chart, hit, err := s.buildChart(r.Context(), filter.Apply(reports), canvas, st.Params)
	if err != nil {
		if errors.Is(err, layout.ErrInvalidGeometry) || errors.Is(err, layout.ErrInvalidParams) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("timeline build failed", "match_id", matchID, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "layout failed")
		return
	}

	result := metrics.CacheMiss
	switch {
	case !s.caching:
		result = metrics.CacheBypass
	case hit:
		result = metrics.CacheHit
	}
	w.Header().Set(layoutCacheHeader, result)
	writeJSON(w, http.StatusOK, chart)
}

// buildChart prepares reports, fetches or computes their layout and
// assembles the chart. hit reports a cache hit.
func (s *Server) buildChart(ctx context.Context, reports []report.Report, canvas timeline.Canvas, params layout.Params) (*timeline.Chart, bool, error) {
	in, err := timeline.Prepare(reports, canvas)
	if err != nil {
		return nil, false, err
	}

	key := layoutcache.Key(in.Events, in.Lanes, in.Axis, params)
	res, hit, err := s.layouts.Get(ctx, key, func(ctx context.Context) (*layout.Result, error) {
		return s.computeLayout(ctx, in, params)
	})
	if err != nil {
		return nil, false, err
	}
	if s.caching {
		if hit {
			s.metrics.CacheRequest(metrics.CacheHit)
		} else {
			s.metrics.CacheRequest(metrics.CacheMiss)
		}
	} else {
		s.metrics.CacheRequest(metrics.CacheBypass)
	}

	chart, err := timeline.Assemble(in, res, timeline.Tolerance(params))
	if err != nil {
		return nil, false, err
	}
	return chart, hit, nil
}

func (s *Server) computeLayout(ctx context.Context, in *timeline.Input, params layout.Params) (*layout.Result, error) {
	_, span := s.tracer.Start(ctx, "layout.compute",
		trace.WithAttributes(attribute.Int("layout.events", len(in.Events))))
	defer span.End()

	start := time.Now()
	res, err := layout.Compute(in.Events, in.Lanes, in.Axis, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	s.metrics.ObserveLayout(time.Since(start), res.Stats)

	for lane, st := range res.Stats.Lanes {
		span.SetAttributes(
			attribute.Int("layout.iterations."+string(lane), st.Iterations),
			attribute.Bool("layout.converged."+string(lane), st.Converged),
		)
	}
	span.SetAttributes(attribute.Int("layout.residual_overlaps", res.Stats.ResidualOverlaps))
	if res.Stats.ResidualOverlaps > 0 {
		s.logger.Warn("layout left overlapping icons",
			"events", len(in.Events),
			"residual_overlaps", res.Stats.ResidualOverlaps,
		)
	}
	return res, nil
}

func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.LogAttrs(r.Context(), slog.LevelError, op+" failed",
		slog.String("error", err.Error()),
		slog.String("request_id", RequestID(r.Context())),
	)
	writeError(w, http.StatusInternalServerError, "storage error")
}

func pathMatchID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid match id")
		return 0, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Header already sent; nothing left to report to the client.
		slog.Default().Error("writeJSON: encode failed", "error", err)
	}
}
