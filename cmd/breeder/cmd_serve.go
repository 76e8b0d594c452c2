package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/danielpatrickdp/breeding-verifier/internal/api"
	"github.com/danielpatrickdp/breeding-verifier/internal/host"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP prove API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides http.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddr != "" {
		cfg.HTTP.Addr = serveAddr
	}

	backend, scheme, release, err := openBackend()
	if err != nil {
		return err
	}
	defer release()

	ledger, err := openLedger()
	if err != nil {
		return err
	}
	opts := []host.Option{host.WithLogger(logger), host.WithScheme(scheme)}
	var apiLedger api.Ledger
	if ledger != nil {
		defer ledger.Close()
		opts = append(opts, host.WithRecorder(ledger))
		apiLedger = ledger
	}

	srv := api.NewServer(host.New(backend, opts...), apiLedger, logger, cfg.HTTP.RequestTimeout)
	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Router(cfg.Telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http api listening",
			zap.String("addr", cfg.HTTP.Addr),
			zap.String("prover_mode", cfg.Prover.Mode),
			zap.String("db", cfg.DB.Path),
		)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("http api shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
