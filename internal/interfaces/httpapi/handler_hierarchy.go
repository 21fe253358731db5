package httpapi

import (
	"context"
	"net/http"

	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

func (h *Handler) GetHierarchy(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetHierarchy")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	tree, err := h.hierarchy.GetTree(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeSuccess(ctx, w, http.StatusOK, treeToDTO(tree))
}

func (h *Handler) GetHierarchyStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "GetHierarchyStats")
	defer span.End()

	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	stats, err := h.hierarchy.Stats(ctx, seasonID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]tierStatDTO, 0, len(stats))
	for _, s := range stats {
		out = append(out, tierStatDTO{Role: s.Role.String(), Current: s.Current, Max: s.Max})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) ListTopCaptains(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListTopCaptains")
	defer span.End()

	h.writeLeaderboard(ctx, w, r, h.hierarchy.TopCaptains)
}

func (h *Handler) ListTopMembers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startHandlerSpan(r, "ListTopMembers")
	defer span.End()

	h.writeLeaderboard(ctx, w, r, h.hierarchy.TopMembers)
}

func (h *Handler) writeLeaderboard(
	ctx context.Context,
	w http.ResponseWriter,
	r *http.Request,
	load func(context.Context, int64, int) ([]usecase.LeaderboardEntry, error),
) {
	seasonID, err := seasonIDFromPath(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	limit, err := limitFromQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	entries, err := load(ctx, seasonID, limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	out := make([]leaderboardEntryDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, leaderboardEntryDTO{Position: e.Position, nodeDTO: nodeToDTO(e.Node)})
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}
