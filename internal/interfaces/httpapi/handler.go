package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

// maxBodyBytes bounds admin payloads; a full hours batch stays well under it.
const maxBodyBytes = 4 << 20

type Services struct {
	Seasons        *usecase.SeasonService
	Aggregation    *usecase.AggregationService
	Redistribution *usecase.RedistributionService
	Hierarchy      *usecase.HierarchyService
	Fraud          *usecase.FraudService
	Hours          *usecase.HoursService
	Audit          *usecase.AuditService
	Participants   *usecase.ParticipantService
}

type Handler struct {
	seasons        *usecase.SeasonService
	aggregation    *usecase.AggregationService
	redistribution *usecase.RedistributionService
	hierarchy      *usecase.HierarchyService
	fraud          *usecase.FraudService
	hours          *usecase.HoursService
	audit          *usecase.AuditService
	participants   *usecase.ParticipantService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(services Services, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		seasons:        services.Seasons,
		aggregation:    services.Aggregation,
		redistribution: services.Redistribution,
		hierarchy:      services.Hierarchy,
		fraud:          services.Fraud,
		hours:          services.Hours,
		audit:          services.Audit,
		participants:   services.Participants,
		logger:         logger,
		validator:      validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeSuccess(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeAndValidate(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	if err := h.validator.StructCtx(ctx, dst); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

func seasonIDFromPath(r *http.Request) (int64, error) {
	return idFromPath(r, "seasonID", "season id")
}

func idFromPath(r *http.Request, name, label string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", usecase.ErrInvalidInput, label, raw)
	}
	return id, nil
}

// limitFromQuery returns 0 when the parameter is absent so the service default applies.
func limitFromQuery(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer, got %q", usecase.ErrInvalidInput, raw)
	}
	return limit, nil
}
