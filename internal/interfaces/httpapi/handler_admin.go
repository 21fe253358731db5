package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

func (h *Handler) ImportHours(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ImportHours")
	defer span.End()

	var req importHoursRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	records := make([]hours.Record, 0, len(req.Records))
	for i, item := range req.Records {
		day, err := season.ParseDate(item.WorkDate)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: records[%d]: %v", usecase.ErrInvalidInput, i, err))
			return
		}
		records = append(records, hours.Record{
			ParticipantID: item.ParticipantID,
			WorkDate:      day,
			Hours:         item.Hours,
		})
	}

	source := usecase.ImportSource{FileName: req.FileName, UploadedBy: req.UploadedBy}
	result, err := h.hours.Import(ctx, source, records)
	if err != nil {
		h.logger.WarnContext(ctx, "import hours failed", "records", len(records), "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) ListFraudAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListFraudAlerts")
	defer span.End()

	alerts, err := h.fraud.ActiveAlerts(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]fraudAlertDTO, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, fraudAlertToDTO(a))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ReportFraudAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ReportFraudAlerts")
	defer span.End()

	n, err := h.fraud.ReportAlerts(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "report fraud alerts failed", "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, map[string]int{"reported": n})
}

func (h *Handler) ListAuditEntries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListAuditEntries")
	defer span.End()

	limit, err := limitFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if limit == 0 {
		limit = 100
	}

	entries, err := h.audit.List(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]auditEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryToDTO(e))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
