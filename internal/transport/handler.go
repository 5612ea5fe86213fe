// Package transport exposes the HTTP API.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goodnatureofminers/cveledger-backend/internal/ledger"
	"github.com/goodnatureofminers/cveledger-backend/internal/model"
	"github.com/goodnatureofminers/cveledger-backend/internal/service"
	"github.com/goodnatureofminers/cveledger-backend/pkg/safe"
)

const (
	defaultSyncDays = 7
	maxSyncDays     = 120
	maxMineBatch    = 10000
)

// Handler serves the ledger over HTTP. sync may be nil when no upstream
// feed is configured; the sync and search endpoints then answer 503.
type Handler struct {
	ledger *service.Ledger
	sync   *service.Sync
	logger *zap.Logger
}

// NewHandler returns a Handler over the given services.
func NewHandler(ledger *service.Ledger, sync *service.Sync, logger *zap.Logger) *Handler {
	return &Handler{ledger: ledger, sync: sync, logger: logger}
}

// Routes registers all endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /chain", h.chain)
	mux.HandleFunc("GET /chain/full", h.chainFull)
	mux.HandleFunc("GET /validate", h.validate)
	mux.HandleFunc("GET /cves", h.listRecords)
	mux.HandleFunc("GET /cves/{id}", h.getRecord)
	mux.HandleFunc("GET /pending", h.pending)
	mux.HandleFunc("GET /search", h.search)
	mux.HandleFunc("POST /report", h.report)
	mux.HandleFunc("POST /mine", h.mine)
	mux.HandleFunc("POST /sync", h.runSync)
	return mux
}

type blockHeader struct {
	Index     uint64 `json:"index"`
	Timestamp int64  `json:"timestamp"`
	Hash      string `json:"hash"`
	PrevHash  string `json:"previous_hash"`
	Nonce     uint64 `json:"nonce"`
	Records   int    `json:"record_count"`
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service": "cveledger",
		"endpoints": []string{
			"GET /health",
			"GET /chain",
			"GET /chain/full",
			"GET /validate",
			"GET /cves",
			"GET /cves/{id}",
			"GET /pending",
			"GET /search?cve_id=",
			"POST /report",
			"POST /mine?max=",
			"POST /sync?days=",
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	status := h.ledger.Status()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"height":  status.Height,
		"pending": status.Pending,
	})
}

func (h *Handler) chain(w http.ResponseWriter, _ *http.Request) {
	blocks := h.ledger.Blocks()
	headers := make([]blockHeader, 0, len(blocks))
	for _, b := range blocks {
		headers = append(headers, blockHeader{
			Index:     b.Index,
			Timestamp: b.Timestamp,
			Hash:      b.Hash,
			PrevHash:  b.PrevHash,
			Nonce:     b.Nonce,
			Records:   len(b.Records),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status": h.ledger.Status(),
		"blocks": headers,
	})
}

func (h *Handler) chainFull(w http.ResponseWriter, _ *http.Request) {
	blocks := h.ledger.Blocks()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"length": len(blocks),
		"blocks": blocks,
	})
}

func (h *Handler) validate(w http.ResponseWriter, _ *http.Request) {
	if err := h.ledger.Validate(); err != nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"is_valid": false, "error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"is_valid": true})
}

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{
		Severity: model.Severity(r.URL.Query().Get("severity")),
		Source:   r.URL.Query().Get("source"),
	}
	if filter.Severity != "" && !filter.Severity.Known() {
		h.writeError(w, http.StatusBadRequest, "unknown severity "+string(filter.Severity))
		return
	}
	records := h.ledger.List(filter)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(records),
		"cves":  records,
	})
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	record, err := h.ledger.Get(id)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		h.writeError(w, http.StatusNotFound, "record "+id+" not committed")
		return
	}
	h.writeJSON(w, http.StatusOK, record)
}

func (h *Handler) pending(w http.ResponseWriter, _ *http.Request) {
	records := h.ledger.Pending()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(records),
		"cves":  records,
	})
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	var record model.Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		h.writeError(w, http.StatusBadRequest, "malformed body: "+err.Error())
		return
	}

	switch err := h.ledger.Submit(record); {
	case err == nil:
		h.writeJSON(w, http.StatusCreated, map[string]any{
			"message": "record staged for next block",
			"cve_id":  record.ID,
		})
	case isDuplicate(err):
		h.writeError(w, http.StatusConflict, err.Error())
	case isValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("submit failed", zap.String("cve_id", record.ID), zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "submit failed")
	}
}

func (h *Handler) mine(w http.ResponseWriter, r *http.Request) {
	maxBatch, err := safe.PositiveIntParam(r.URL.Query().Get("max"), 0, maxMineBatch)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "max: "+err.Error())
		return
	}

	block, err := h.ledger.Mine(r.Context(), maxBatch)
	if err != nil {
		h.logger.Error("mine failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "mine failed: "+err.Error())
		return
	}
	if block == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"message": "no pending records to mine"})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "block mined",
		"block":   block,
	})
}

func (h *Handler) runSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		h.writeError(w, http.StatusServiceUnavailable, "sync is not configured")
		return
	}
	days, err := safe.PositiveIntParam(r.URL.Query().Get("days"), defaultSyncDays, maxSyncDays)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "days: "+err.Error())
		return
	}

	report, err := h.sync.SyncRecent(r.Context(), days)
	if err != nil {
		h.logger.Error("sync failed", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "sync failed: "+err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		h.writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	id := r.URL.Query().Get("cve_id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "cve_id query parameter is required")
		return
	}

	record, staged, err := h.sync.SearchAndStage(r.Context(), id)
	if err != nil {
		h.logger.Error("search failed", zap.String("cve_id", id), zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "search failed: "+err.Error())
		return
	}
	if record == nil {
		h.writeError(w, http.StatusNotFound, "no upstream record for "+id)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"cve":    record,
		"staged": staged,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

func isDuplicate(err error) bool {
	var dup *ledger.DuplicateError
	return errors.As(err, &dup)
}

func isValidation(err error) bool {
	var invalid *model.ValidationError
	return errors.As(err, &invalid)
}
