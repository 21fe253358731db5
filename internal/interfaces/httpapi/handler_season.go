package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListSeasons")
	defer span.End()

	items, err := h.seasons.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list seasons failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]seasonDTO, 0, len(items))
	for _, item := range items {
		out = append(out, seasonToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetActiveSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetActiveSeason")
	defer span.End()

	item, err := h.seasons.GetActive(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetSeason")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	item, err := h.seasons.Get(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) CreateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "CreateSeason")
	defer span.End()

	var req createSeasonRequest
	if err := h.decodeAndValidate(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	start, err := season.ParseDate(req.StartDate)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	end, err := season.ParseDate(req.EndDate)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	created, err := h.seasons.Create(ctx, usecase.CreateSeasonInput{
		Name:             req.Name,
		StartDate:        start,
		EndDate:          end,
		DailyTargetHours: req.DailyTargetHours,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create season failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusCreated, seasonToDTO(created))
}

func (h *Handler) ActivateSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ActivateSeason")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	item, err := h.seasons.Activate(ctx, seasonID)
	if err != nil {
		h.logger.WarnContext(ctx, "activate season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, seasonToDTO(item))
}

func (h *Handler) CloseSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "CloseSeason")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	result, err := h.seasons.Close(ctx, seasonID)
	if err != nil {
		h.logger.ErrorContext(ctx, "close season failed", "season_id", seasonID, "error", err)
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, closeSeasonDTO{
		Season:        seasonToDTO(result.Season),
		Transition:    transitionToDTO(result.Transition),
		Notifications: result.Notifications,
		Resumed:       result.Resumed,
	})
}
