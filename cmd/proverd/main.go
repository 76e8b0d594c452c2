package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/config"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
	"github.com/danielpatrickdp/breeding-verifier/internal/prover"
	"github.com/danielpatrickdp/breeding-verifier/internal/telemetry"
)

var (
	cfgPath string
	listen  string
)

var rootCmd = &cobra.Command{
	Use:          "proverd",
	Short:        "Serve breeding.v1.Prover backed by the in-process guest",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config")
	rootCmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides grpc.listen)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #region main

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if listen != "" {
		cfg.GRPC.Listen = listen
	}

	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	shutdown, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName:   cfg.Telemetry.ServiceName + "-prover",
		TraceExporter: cfg.Telemetry.TraceExporter,
		OTLPEndpoint:  cfg.Telemetry.OTLPEndpoint,
		Writer:        os.Stderr,
	})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	scheme, err := commitment.ByName(cfg.Prover.Commitment)
	if err != nil {
		return err
	}
	backend := prover.NewLocal(scheme, log)

	lis, err := net.Listen("tcp", cfg.GRPC.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPC.Listen, err)
	}

	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	prover.RegisterProverServiceServer(srv, prover.NewServer(backend, log))
	hs := health.NewServer()
	hs.SetServingStatus(prover.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		log.Info("prover shutting down")
		hs.Shutdown()
		srv.GracefulStop()
	}()

	log.Info("prover listening",
		zap.String("addr", lis.Addr().String()),
		zap.String("image_id", backend.ImageID()),
		zap.String("commitment", scheme.Name()),
	)
	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// #endregion main
