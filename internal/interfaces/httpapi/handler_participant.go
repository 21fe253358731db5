package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/domain/waitlist"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListParticipants")
	defer span.End()

	list, err := h.participants.List(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, participantListToDTO(list))
}

func (h *Handler) ListWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListWaitlist")
	defer span.End()

	view, err := h.participants.Waitlist(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := waitlistDTO{Pending: view.Pending, Entries: make([]waitlistEntryDTO, 0, len(view.Entries))}
	for _, e := range view.Entries {
		out.Entries = append(out.Entries, waitlistEntryToDTO(e))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "JoinWaitlist")
	defer span.End()

	var req joinWaitlistRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	entry, created, err := h.participants.JoinWaitlist(ctx, req.Phone, req.FullName)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeSuccess(ctx, w, status, waitlistEntryToDTO(entry))
}

func (h *Handler) ApproveWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ApproveWaitlistEntry")
	defer span.End()

	h.reviewWaitlistEntry(w, r.WithContext(ctx), waitlist.StatusApproved)
}

func (h *Handler) RejectWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RejectWaitlistEntry")
	defer span.End()

	h.reviewWaitlistEntry(w, r.WithContext(ctx), waitlist.StatusRejected)
}

func (h *Handler) reviewWaitlistEntry(w http.ResponseWriter, r *http.Request, status waitlist.Status) {
	ctx := r.Context()
	entryID, err := idFromPath(r, "entryID", "waitlist entry id")
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	entry, err := h.participants.ReviewWaitlistEntry(ctx, entryID, status)
	if err != nil {
		h.logger.WarnContext(ctx, "review waitlist entry failed", "entry_id", entryID, "status", status, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, waitlistEntryToDTO(entry))
}

func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListImports")
	defer span.End()

	limit, err := limitFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	items, err := h.hours.History(ctx, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]importDTO, 0, len(items))
	for _, item := range items {
		out = append(out, importToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

// GetDashboardStats reads ?date=YYYY-MM-DD, defaulting to today. The alert
// count is null when the fraud scan cannot run.
func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetDashboardStats")
	defer span.End()

	day := time.Now()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := season.ParseDate(raw)
		if err != nil {
			writeError(ctx, w, fmt.Errorf("%w: date: %v", usecase.ErrInvalidInput, err))
			return
		}
		day = parsed
	}

	stats, err := h.hierarchy.Dashboard(ctx, day)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := dashboardStatsDTO{
		Date:         stats.Date.Format(season.DateLayout),
		Participants: stats.Participants,
		DailyHours:   stats.DailyHours,
		GoalPercent:  stats.GoalPercent,
	}
	if stats.SeasonID > 0 {
		id := stats.SeasonID
		out.SeasonID = &id
	}
	if h.fraud != nil && stats.SeasonID > 0 {
		alerts, err := h.fraud.ActiveAlerts(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "dashboard alert count unavailable", "error", err)
		} else {
			n := len(alerts)
			out.AlertsCount = &n
		}
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
