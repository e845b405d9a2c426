package handlers

import (
	"fmt"
	"net/http"

	"github.com/RennanRnz/rfv-project/internal/actions"
	"github.com/RennanRnz/rfv-project/internal/analysis"
	"github.com/RennanRnz/rfv-project/internal/export"
	"github.com/RennanRnz/rfv-project/internal/ingest"
	"github.com/RennanRnz/rfv-project/pkg/logger"
)

// SegmentationHandler serves the RFV endpoints
// ⭐ SSOT: RFV API 핸들러는 이 구조체에서만
type SegmentationHandler struct {
	service  *analysis.Service
	source   string // name of the scheduled DB source, for /latest
	maxBytes int64
	logger   *logger.Logger
}

// NewSegmentationHandler creates the handler
func NewSegmentationHandler(service *analysis.Service, source string, maxBytes int64, log *logger.Logger) *SegmentationHandler {
	return &SegmentationHandler{
		service:  service,
		source:   source,
		maxBytes: maxBytes,
		logger:   log,
	}
}

// Analyze segments an uploaded CSV/XLSX ledger
// POST /api/rfv/analyze?format=json|csv|xlsx (multipart field "file")
func (h *SegmentationHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}

	if r.ContentLength > h.maxBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "too_large",
			fmt.Sprintf("upload exceeds %d bytes", h.maxBytes))
		return
	}

	// chunked uploads carry no length; the reader enforces the cap as it streams
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		status, body := classify(err)
		if status == http.StatusInternalServerError {
			status, body = http.StatusBadRequest, ErrorResponse{Error: "bad_upload", Message: "multipart field \"file\" is required"}
		}
		respondJSON(w, status, body)
		return
	}
	defer file.Close()

	if !ingest.Supported(header.Filename) {
		respondError(w, http.StatusBadRequest, "unsupported_file", "expected a .csv or .xlsx file")
		return
	}

	result, err := h.service.AnalyzeFile(r.Context(), header.Filename, file)
	if err != nil {
		status, body := classify(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("file", header.Filename).Error("Failed to analyze upload")
		}
		respondJSON(w, status, body)
		return
	}

	h.write(w, format, result)
}

// Latest returns the last scheduled refresh of the DB source, while cached
// GET /api/rfv/latest?format=json|csv|xlsx
func (h *SegmentationHandler) Latest(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}

	result, found, err := h.service.Latest(r.Context(), h.source)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read latest segmentation")
		respondError(w, http.StatusInternalServerError, "internal", "Failed to read latest segmentation")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "no cached refresh for "+h.source)
		return
	}

	h.write(w, format, result)
}

// ActionEntry is one configured score → action mapping
type ActionEntry struct {
	Score  string `json:"score"`
	Action string `json:"action"`
}

// ActionsResponse describes the action table in force
type ActionsResponse struct {
	Entries        []ActionEntry `json:"entries"`
	UnmappedAction string        `json:"unmapped_action"`
	Hash           string        `json:"hash"`
}

// Actions returns the effective action table
// GET /api/rfv/actions
func (h *SegmentationHandler) Actions(w http.ResponseWriter, r *http.Request) {
	table := h.service.Actions()

	hash, err := actions.Hash(table)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal", "Failed to hash action table")
		return
	}

	entries := table.Entries()
	resp := ActionsResponse{
		Entries:        make([]ActionEntry, 0, len(entries)),
		UnmappedAction: table.Unmapped(),
		Hash:           hash,
	}
	for _, score := range table.Scores() {
		resp.Entries = append(resp.Entries, ActionEntry{Score: score, Action: entries[score]})
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *SegmentationHandler) write(w http.ResponseWriter, format export.Format, result *analysis.Result) {
	w.Header().Set("X-RFV-Run-ID", result.RunID)

	if format == export.FormatJSON {
		respondJSON(w, http.StatusOK, export.NewDocument(result.RunID, result.Table))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.FileName()+`"`)
	if err := export.Write(w, format, result.RunID, result.Table); err != nil {
		h.logger.WithRun(result.RunID).WithError(err).Error("Failed to write export")
	}
}
