package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/pyramid-league/internal/domain/audit"
	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/domain/season"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

const maxImportBatch = 10000

const defaultHistoryLimit = 50

type ImportHoursResult struct {
	Received int   `json:"received"`
	Written  int   `json:"written"`
	ImportID int64 `json:"importId,omitempty"`
}

// ImportSource describes where a batch came from. Both fields are optional.
type ImportSource struct {
	FileName   string
	UploadedBy *int64
}

// HoursService stores raw hours coming from an upstream export.
type HoursService struct {
	repo    hours.Repository
	imports hours.ImportRepository
	auditor *AuditService
	logger  *logging.Logger
}

func NewHoursService(repo hours.Repository, imports hours.ImportRepository, auditSvc *AuditService, logger *logging.Logger) *HoursService {
	if logger == nil {
		logger = logging.Default()
	}
	return &HoursService{
		repo:    repo,
		imports: imports,
		auditor: auditSvc,
		logger:  logger,
	}
}

// Import upserts records by (participant, date). A later record for the
// same key in one batch wins. Every batch, rejected ones included, leaves a
// row in the import history.
func (s *HoursService) Import(ctx context.Context, source ImportSource, records []hours.Record) (_ ImportHoursResult, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HoursService.Import")
	defer func() { endSpan(span, err) }()

	batch, err := dedupeHours(records)
	if err != nil {
		s.recordImport(ctx, source, len(records), 0, hours.ImportFailed, []string{err.Error()})
		return ImportHoursResult{}, err
	}

	if err := s.repo.Upsert(ctx, batch); err != nil {
		s.recordImport(ctx, source, len(records), 0, hours.ImportFailed, []string{err.Error()})
		return ImportHoursResult{}, fmt.Errorf("upsert hours: %w", err)
	}

	out := ImportHoursResult{Received: len(records), Written: len(batch)}
	out.ImportID = s.recordImport(ctx, source, out.Received, out.Written, hours.ImportProcessed, nil)
	s.auditor.Record(ctx, audit.ActionHoursImported, audit.EntityHours, out.ImportID, out)
	s.logger.InfoContext(ctx, "hours imported", "received", out.Received, "written", out.Written, "import_id", out.ImportID)
	return out, nil
}

// History lists past uploads, newest first.
func (s *HoursService) History(ctx context.Context, limit int) (_ []hours.Import, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.HoursService.History")
	defer func() { endSpan(span, err) }()

	if s.imports == nil {
		return []hours.Import{}, nil
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	items, err := s.imports.ListImports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	return items, nil
}

// recordImport never fails the import itself; it returns 0 when no row was written.
func (s *HoursService) recordImport(ctx context.Context, source ImportSource, received, written int, status hours.ImportStatus, errs []string) int64 {
	if s.imports == nil {
		return 0
	}
	item, err := s.imports.CreateImport(ctx, hours.Import{
		FileName:   source.FileName,
		UploadedBy: source.UploadedBy,
		RowsCount:  received,
		Written:    written,
		Status:     status,
		Errors:     errs,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "record import history failed", "status", status, "error", err)
		return 0
	}
	return item.ID
}

func dedupeHours(records []hours.Record) ([]hours.Record, error) {
	if len(records) == 0 {
		return nil, invalidInputf("records are required")
	}
	if len(records) > maxImportBatch {
		return nil, invalidInputf("batch exceeds %d records", maxImportBatch)
	}

	type key struct {
		participantID int64
		day           int64
	}
	latest := make(map[key]hours.Record, len(records))
	for i, r := range records {
		r.WorkDate = season.Day(r.WorkDate)
		if err := r.Validate(); err != nil {
			return nil, invalidInputf("record %d: %v", i, err)
		}
		latest[key{r.ParticipantID, r.WorkDate.Unix()}] = r
	}

	batch := make([]hours.Record, 0, len(latest))
	for _, r := range latest {
		batch = append(batch, r)
	}
	sort.Slice(batch, func(i, j int) bool {
		if !batch[i].WorkDate.Equal(batch[j].WorkDate) {
			return batch[i].WorkDate.Before(batch[j].WorkDate)
		}
		return batch[i].ParticipantID < batch[j].ParticipantID
	})

	return batch, nil
}
