package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"recall-insights-go/internal/agents"
	"recall-insights-go/internal/ingest"
	"recall-insights-go/internal/logger"
	"recall-insights-go/internal/mailing"
	"recall-insights-go/internal/metrics"
	"recall-insights-go/internal/reasons"
	"recall-insights-go/internal/recall"
	"recall-insights-go/internal/table"
	"recall-insights-go/internal/types"
)

// session is the caller-side state the core stages are fed from. The
// analysis packages themselves are stateless; everything computed lives
// here and is fully replaced on re-upload or re-run.
type session struct {
	mu sync.Mutex

	calls       []types.CallRecord
	ingestStats ingest.Stats
	target      table.Table

	handle       map[string]agents.HandleTime
	disconnects  map[string]float64
	satisfaction map[string]float64

	buckets recall.Buckets
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "recall-insights-go").Info("starting service")

	sess := &session{}

	// optional startup preload of the call log
	if path := os.Getenv("DATASET_PATH"); path != "" {
		preloadFile(sess, path)
	} else if url := os.Getenv("DATASET_URL"); url != "" {
		preloadURL(sess, url)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	mux.HandleFunc("/upload/calls", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "upload_calls")
		raw, ext, err := uploadedFile(r)
		if err != nil {
			reqLog.WithError(err).Warn("bad upload")
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := ingest.LoadTable(raw, ext)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		records, stats, err := ingest.NormalizeCalls(t)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		sess.mu.Lock()
		sess.calls = records
		sess.ingestStats = stats
		sess.buckets = nil // stale once the table changes
		sess.mu.Unlock()
		reqLog.WithField("records", len(records)).Info("call log ingested")
		writeJSON(w, stats)
	})

	mux.HandleFunc("/upload/target", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "upload_target")
		raw, ext, err := uploadedFile(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := ingest.LoadTarget(raw, ext)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		sess.mu.Lock()
		sess.target = t
		sess.mu.Unlock()
		reqLog.WithField("rows", len(t.Rows)).Info("target dataset loaded")
		writeJSON(w, map[string]interface{}{"rows": len(t.Rows), "columns": t.Headers})
	})

	mux.HandleFunc("/upload/agents", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "upload_agents")
		kind := r.URL.Query().Get("kind")
		raw, ext, err := uploadedFile(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		t, err := ingest.LoadTable(raw, ext)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		sess.mu.Lock()
		defer sess.mu.Unlock()
		var rows int
		switch kind {
		case "tma":
			sess.handle, err = agents.ParseHandleTime(t)
			rows = len(sess.handle)
		case "desliga":
			sess.disconnects, err = agents.ParseDisconnects(t)
			rows = len(sess.disconnects)
		case "nota":
			sess.satisfaction, err = agents.ParseSatisfaction(t)
			rows = len(sess.satisfaction)
		default:
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown kind %q (want tma, desliga or nota)", kind))
			return
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		reqLog.WithField("kind", kind).WithField("agents", rows).Info("performance file loaded")
		writeJSON(w, map[string]interface{}{"kind": kind, "agents": rows})
	})

	mux.HandleFunc("/analyze/recalls", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze_recalls")
		unitCost := 7.56
		if v := r.URL.Query().Get("unit_cost"); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
				unitCost = f
			}
		}
		sess.mu.Lock()
		calls := sess.calls
		sess.mu.Unlock()
		if len(calls) == 0 {
			writeError(w, http.StatusConflict, fmt.Errorf("no call log uploaded"))
			return
		}

		start := time.Now()
		buckets := recall.Detect(calls)
		sess.mu.Lock()
		sess.buckets = buckets
		sess.mu.Unlock()

		resp := map[string]interface{}{
			"windows":          buckets,
			"total_events":     buckets.Total(),
			"financial_impact": recall.FinancialImpact(buckets, unitCost),
			"call_bands":       recall.CallCountBands(calls),
			"volume":           recall.Volume(calls),
		}
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).
			WithField("events", buckets.Total()).Info("recall analysis complete")
		writeJSON(w, resp)
	})

	mux.HandleFunc("/analyze/reasons", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze_reasons")
		var req struct {
			IDColumn      string   `json:"id_column"`
			ReasonColumns []string `json:"reason_columns"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		sess.mu.Lock()
		buckets := sess.buckets
		target := sess.target
		sess.mu.Unlock()
		if buckets == nil {
			writeError(w, http.StatusConflict, fmt.Errorf("run /analyze/recalls first"))
			return
		}

		rows, err := reasons.CrossReference(buckets, target, req.IDColumn, req.ReasonColumns)
		if err != nil {
			reqLog.WithError(err).Warn("cross-reference failed")
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		reqLog.WithField("pairs", len(rows)).Info("reason attribution complete")
		writeJSON(w, rows)
	})

	mux.HandleFunc("/analyze/ranking", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze_ranking")
		var req struct {
			Weights          agents.Weights `json:"weights"`
			MaxDisconnectPct float64        `json:"max_disconnect_pct"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		sess.mu.Lock()
		handle := sess.handle
		disconnects := sess.disconnects
		satisfaction := sess.satisfaction
		sess.mu.Unlock()
		if handle == nil {
			writeError(w, http.StatusConflict, fmt.Errorf("handle-time file (kind=tma) is required"))
			return
		}

		ranked, err := agents.Score(handle, disconnects, satisfaction, req.Weights, req.MaxDisconnectPct)
		if err != nil {
			reqLog.WithError(err).Warn("ranking failed")
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		reqLog.WithField("agents", len(ranked)).Info("ranking complete")
		writeJSON(w, ranked)
	})

	mux.HandleFunc("/analyze/mailing", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "analyze_mailing")
		var crit mailing.Criteria
		if err := json.NewDecoder(r.Body).Decode(&crit); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
		sess.mu.Lock()
		calls := sess.calls
		buckets := sess.buckets
		sess.mu.Unlock()
		if len(calls) == 0 {
			writeError(w, http.StatusConflict, fmt.Errorf("no call log uploaded"))
			return
		}
		list := mailing.Build(calls, buckets, crit)
		reqLog.WithField("contacts", len(list)).Info("mailing list generated")
		writeJSON(w, list)
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func preloadFile(sess *session, path string) {
	log := logger.New().WithField("dataset_path", path)
	raw, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Fatal("failed to read startup dataset")
	}
	preload(sess, raw, strings.TrimPrefix(filepath.Ext(path), "."), log)
}

func preloadURL(sess *session, url string) {
	log := logger.New().WithField("dataset_url", url)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()
	raw, err := ingest.FetchRemote(ctx, url)
	if err != nil {
		log.WithError(err).Fatal("failed to fetch startup dataset")
	}
	preload(sess, raw, strings.TrimPrefix(filepath.Ext(url), "."), log)
}

func preload(sess *session, raw []byte, ext string, log *logrus.Entry) {
	t, err := ingest.LoadTable(raw, ext)
	if err != nil {
		log.WithError(err).Fatal("failed to load startup dataset")
	}
	records, stats, err := ingest.NormalizeCalls(t)
	if err != nil {
		log.WithError(err).Fatal("failed to normalize startup dataset")
	}
	sess.mu.Lock()
	sess.calls = records
	sess.ingestStats = stats
	sess.mu.Unlock()
	log.WithField("records", len(records)).Info("startup dataset loaded")
}

// uploadedFile extracts the multipart "file" part and its extension.
func uploadedFile(r *http.Request) ([]byte, string, error) {
	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing multipart file field: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	return raw, strings.TrimPrefix(filepath.Ext(header.Filename), "."), nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
