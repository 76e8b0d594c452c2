package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/danielpatrickdp/breeding-verifier/internal/commitment"
	"github.com/danielpatrickdp/breeding-verifier/internal/config"
	"github.com/danielpatrickdp/breeding-verifier/internal/logging"
	"github.com/danielpatrickdp/breeding-verifier/internal/prover"
	"github.com/danielpatrickdp/breeding-verifier/internal/store"
	"github.com/danielpatrickdp/breeding-verifier/internal/telemetry"
)

var (
	cfgPath   string
	dbPath    string
	proverArg string
	logLevel  string

	cfg      *config.Config
	logger   *zap.Logger
	shutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "breeder",
	Short: "Prove and inspect breeding claims without revealing traits",
	Long: `breeder checks that a child trait vector is a legitimate combination of two
parents and produces a proof whose public record discloses only a commitment to
the child, the parent ids, the child generation and a mutation count.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("db") {
			cfg.DB.Path = dbPath
		}
		if cmd.Flags().Changed("prover") {
			cfg.Prover.Mode = "grpc"
			cfg.Prover.Addr = proverArg
		}
		if cmd.Flags().Changed("log-level") {
			cfg.Log.Level = logLevel
		}

		logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		shutdown, err = telemetry.Init(cmd.Context(), telemetry.Config{
			ServiceName:   cfg.Telemetry.ServiceName,
			TraceExporter: cfg.Telemetry.TraceExporter,
			OTLPEndpoint:  cfg.Telemetry.OTLPEndpoint,
			Writer:        os.Stderr,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if shutdown != nil {
			_ = shutdown(context.Background())
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "proof ledger path (overrides db.path)")
	rootCmd.PersistentFlags().StringVar(&proverArg, "prover", "", "remote prover address; implies prover.mode=grpc")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error")

	rootCmd.AddCommand(proveCmd, verifyCmd, decodeCmd, serveCmd, replayCmd, inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// #region wiring

// openBackend builds the configured prover backend and a func releasing it.
func openBackend() (prover.Backend, commitment.Scheme, func() error, error) {
	scheme, err := commitment.ByName(cfg.Prover.Commitment)
	if err != nil {
		return nil, nil, nil, err
	}
	switch cfg.Prover.Mode {
	case "grpc":
		c, err := prover.NewClient(cfg.Prover.Addr,
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, scheme, c.Close, nil
	default:
		return prover.NewLocal(scheme, logger), scheme, func() error { return nil }, nil
	}
}

// openLedger opens the proof ledger, or returns nil when db.path is empty.
func openLedger() (*store.Store, error) {
	if cfg.DB.Path == "" {
		return nil, nil
	}
	s, err := store.NewStore(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return s, nil
}

// #endregion wiring
