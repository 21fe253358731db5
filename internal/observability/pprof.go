package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/pyramid-league/internal/config"
	"github.com/riskibarqy/pyramid-league/internal/platform/logging"
)

// PprofServer exposes runtime profiles on its own listener, never on the API mux.
type PprofServer struct {
	srv    *http.Server
	logger *logging.Logger
}

// StartPprofServer returns nil when pprof is disabled. A nil *PprofServer is safe to Stop.
func StartPprofServer(cfg config.Config, logger *logging.Logger) (*PprofServer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}
	if cfg.PprofAddr == "" {
		return nil, errors.New("PPROF_ADDR is required when pprof is enabled")
	}

	p := &PprofServer{
		srv: &http.Server{
			Addr:              cfg.PprofAddr,
			Handler:           newPprofMux(),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With("component", "pprof"),
	}

	go func() {
		p.logger.Info("pprof server starting", "addr", cfg.PprofAddr)
		if err := p.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("pprof server failed", "error", err)
		}
	}()

	return p, nil
}

func newPprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	return mux
}

// Stop waits up to timeout for in-flight profile downloads.
func (p *PprofServer) Stop(timeout time.Duration) error {
	if p == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := p.srv.Shutdown(ctx); err != nil {
		return err
	}

	p.logger.Info("pprof server stopped")
	return nil
}
