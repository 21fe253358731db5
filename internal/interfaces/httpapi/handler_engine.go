package httpapi

import "net/http"

func (h *Handler) RecalculateAggregates(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RecalculateAggregates")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	result, err := h.aggregation.RecalculateAggregates(ctx, seasonID)
	if err != nil {
		h.logger.ErrorContext(ctx, "recalculate aggregates failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) RedistributeGroups(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "RedistributeGroups")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	result, err := h.redistribution.RedistributeGroups(ctx, seasonID)
	if err != nil {
		h.logger.ErrorContext(ctx, "redistribute groups failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, result)
}
