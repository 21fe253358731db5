package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/riskibarqy/pyramid-league/internal/observability"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
	"github.com/riskibarqy/pyramid-league/internal/usecase"
)

const fraudScanTimeout = 2 * time.Minute

// StartFraudScan runs ReportAlerts on spec, a standard five-field cron
// expression. The returned scheduler must be stopped on shutdown.
func StartFraudScan(spec string, fraudSvc *usecase.FraudService, logger *logging.Logger) (*cron.Cron, error) {
	if fraudSvc == nil {
		return nil, errors.New("fraud service is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), fraudScanTimeout)
		defer cancel()

		started := time.Now()
		n, err := fraudSvc.ReportAlerts(ctx)
		observability.ObserveEngineRun("fraud_scan", started, err)
		switch {
		case errors.Is(err, usecase.ErrNotFound):
			logger.InfoContext(ctx, "fraud scan skipped, no active season")
		case err != nil:
			logger.ErrorContext(ctx, "fraud scan failed", "error", err)
		default:
			logger.InfoContext(ctx, "fraud scan finished", "alerts", n, "duration_ms", time.Since(started).Milliseconds())
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule fraud scan %q: %w", spec, err)
	}

	scheduler.Start()
	return scheduler, nil
}
