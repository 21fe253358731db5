package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/domain/hours"
	"github.com/riskibarqy/pyramid-league/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

func TestHoursService_Import_LastRecordWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewHoursRepository(nil)
	svc := NewHoursService(repo, nil, nil, logging.NewNop())

	got, err := svc.Import(ctx, ImportSource{}, []hours.Record{
		{ParticipantID: 1, WorkDate: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), Hours: 4},
		{ParticipantID: 2, WorkDate: testDay(2), Hours: 6},
		{ParticipantID: 1, WorkDate: time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC), Hours: 7.5},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.Received != 3 || got.Written != 2 {
		t.Fatalf("unexpected result: %+v", got)
	}

	items, _ := repo.ListInRange(ctx, testDay(2), testDay(2))
	if len(items) != 2 || items[0].ParticipantID != 1 || items[0].Hours != 7.5 {
		t.Fatalf("unexpected stored records: %+v", items)
	}
}

func TestHoursService_Import_Validation(t *testing.T) {
	t.Parallel()

	svc := NewHoursService(memory.NewHoursRepository(nil), nil, nil, logging.NewNop())
	cases := map[string][]hours.Record{
		"empty":          nil,
		"too many":       {{ParticipantID: 1, WorkDate: testDay(1), Hours: 25}},
		"negative":       {{ParticipantID: 1, WorkDate: testDay(1), Hours: -1}},
		"no participant": {{WorkDate: testDay(1), Hours: 1}},
		"no date":        {{ParticipantID: 1, Hours: 1}},
	}
	for name, records := range cases {
		if _, err := svc.Import(context.Background(), ImportSource{}, records); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: err got=%v want=%v", name, err, ErrInvalidInput)
		}
	}
}

func TestHoursService_Import_RecordsHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	imports := memory.NewImportRepository()
	svc := NewHoursService(memory.NewHoursRepository(nil), imports, nil, logging.NewNop())
	uploader := int64(1)

	got, err := svc.Import(ctx, ImportSource{FileName: "march.xlsx", UploadedBy: &uploader}, []hours.Record{
		{ParticipantID: 1, WorkDate: testDay(1), Hours: 4},
		{ParticipantID: 1, WorkDate: testDay(1), Hours: 5},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if got.ImportID == 0 {
		t.Fatalf("expected import id, got %+v", got)
	}

	_, err = svc.Import(ctx, ImportSource{FileName: "broken.xlsx"}, []hours.Record{
		{ParticipantID: 1, WorkDate: testDay(1), Hours: 30},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err got=%v want=%v", err, ErrInvalidInput)
	}

	history, err := svc.History(ctx, 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length got=%d want=2", len(history))
	}

	failed, processed := history[0], history[1]
	if failed.FileName != "broken.xlsx" || failed.Status != hours.ImportFailed || failed.Written != 0 || len(failed.Errors) != 1 {
		t.Fatalf("unexpected failed import: %+v", failed)
	}
	if processed.ID != got.ImportID || processed.Status != hours.ImportProcessed {
		t.Fatalf("unexpected processed import: %+v", processed)
	}
	if processed.RowsCount != 2 || processed.Written != 1 || processed.UploadedBy == nil || *processed.UploadedBy != uploader {
		t.Fatalf("unexpected processed counts: %+v", processed)
	}

	limited, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("history limit: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != failed.ID {
		t.Fatalf("unexpected limited history: %+v", limited)
	}
}
