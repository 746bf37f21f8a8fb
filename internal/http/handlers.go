package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"tradeflow/internal/export"
	"tradeflow/internal/importer"
	"tradeflow/internal/repository"
	"tradeflow/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxUploadBytes  = 32 << 20
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	svc *service.Service
	log *zap.Logger
}

func NewHandler(svc *service.Service, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, log: log}
}

func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) StockPositions(w http.ResponseWriter, r *http.Request) {
	format, err := parseFormat(r.URL.Query().Get("format"), "json", "csv", "xlsx")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	report, err := h.svc.StockPositions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch format {
	case "csv":
		h.writeCSV(w, "stock.csv", export.StockRecords(report.Rows))
	case "xlsx":
		h.writeXLSX(w, "stock.xlsx", "Stock", export.StockRecords(report.Rows))
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"snapshot_version": report.SnapshotVersion,
			"items":            report.Rows,
			"count":            len(report.Rows),
			"orphans":          report.Orphans,
		})
	}
}

func (h *Handler) ReceivablesAging(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	format, err := parseFormat(query.Get("format"), "json", "csv", "xlsx")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asOf, err := parseOptionalDate(query.Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.svc.Receivables(r.Context(), asOf)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch format {
	case "csv":
		h.writeCSV(w, "receivables.csv", export.AgingRecords(report.Rows))
	case "xlsx":
		h.writeXLSX(w, "receivables.xlsx", "Receivables", export.AgingRecords(report.Rows))
	default:
		writeJSON(w, http.StatusOK, report)
	}
}

func (h *Handler) Trace(w http.ResponseWriter, r *http.Request) {
	lot := strings.TrimSpace(chi.URLParam(r, "lot"))
	if lot == "" {
		writeError(w, http.StatusBadRequest, "lot number is required")
		return
	}
	record, ok, err := h.svc.Trace(r.Context(), lot)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("lot %s not found", lot))
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) CalculateCosting(w http.ResponseWriter, r *http.Request) {
	var req service.CostingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.CalculateCosting(req))
}

func (h *Handler) PreviewOrderCosting(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrderCosting(w, r)
	if !ok {
		return
	}
	format, err := parseFormat(r.URL.Query().Get("format"), "json", "csv")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	preview, err := h.svc.PreviewOrderCosting(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if format == "csv" {
		h.writeCSV(w, "costing-"+preview.PONumber+".csv", export.CostingRecords(preview.Lines))
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (h *Handler) ApplyOrderCosting(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOrderCosting(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ApplyOrderCosting(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) ImportProducts(w http.ResponseWriter, r *http.Request) {
	rows, fileName, ok := readImportRows(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ImportProducts(r.Context(), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse(fileName, result))
}

func (h *Handler) ImportPartners(w http.ResponseWriter, r *http.Request) {
	rows, fileName, ok := readImportRows(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ImportPartners(r.Context(), rows)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse(fileName, result))
}

func importResponse(fileName string, result service.ImportResult) map[string]any {
	body := map[string]any{
		"total_rows": result.TotalRows,
		"inserted":   result.Inserted,
		"updated":    result.Updated,
		"rejected":   result.Rejected,
	}
	if fileName != "" {
		body["file_name"] = fileName
	}
	return body
}

type importRowsRequest struct {
	Rows []map[string]any `json:"rows"`
}

// readImportRows accepts either a multipart upload in the "file" field or a
// JSON body of loose records.
func readImportRows(w http.ResponseWriter, r *http.Request) ([]importer.Row, string, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "failed to parse multipart form")
			return nil, "", false
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file field is required")
			return nil, "", false
		}
		defer file.Close()

		rows, err := importer.ReadRows(header.Filename, file)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, "", false
		}
		return rows, header.Filename, true
	}

	var req importRowsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, "", false
	}
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "rows are required")
		return nil, "", false
	}
	return importer.RowsFromMaps(req.Rows), "", true
}

func decodeOrderCosting(w http.ResponseWriter, r *http.Request) (service.OrderCostingRequest, bool) {
	var req service.OrderCostingRequest
	if r.ContentLength == 0 {
		return req, true
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

// fail maps service errors onto status codes. Anything unrecognized is an
// internal error and gets logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":      "validation failed",
			"violations": ve.Violations,
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "request canceled")
	default:
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) writeCSV(w http.ResponseWriter, fileName string, records []export.Record) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records); err != nil {
		if errors.Is(err, export.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.log.Error("csv export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAttachment(w, contentTypeCSV, fileName, &buf)
}

func (h *Handler) writeXLSX(w http.ResponseWriter, fileName, sheet string, records []export.Record) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sheet, records); err != nil {
		if errors.Is(err, export.ErrNoData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.log.Error("xlsx export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeAttachment(w, contentTypeXLSX, fileName, &buf)
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, body io.Reader) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, body)
}

func parseFormat(raw string, allowed ...string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return allowed[0], nil
	}
	for _, candidate := range allowed {
		if value == candidate {
			return value, nil
		}
	}
	return "", fmt.Errorf("format must be one of %s", strings.Join(allowed, ", "))
}

func parseOptionalDate(raw string) (*time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid date: %s", raw)
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
