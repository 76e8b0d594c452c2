package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment overrides: BREEDER_DB_PATH -> db.path.
const EnvPrefix = "BREEDER_"

// #region types
type Config struct {
	Log       LogConfig       `koanf:"log"`
	DB        DBConfig        `koanf:"db"`
	Prover    ProverConfig    `koanf:"prover"`
	HTTP      HTTPConfig      `koanf:"http"`
	GRPC      GRPCConfig      `koanf:"grpc"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json text console"`
}

type DBConfig struct {
	Path string `koanf:"path"` // empty disables the proof ledger
}

type ProverConfig struct {
	Mode       string `koanf:"mode" validate:"oneof=local grpc"`
	Addr       string `koanf:"addr" validate:"required_if=Mode grpc"`
	Commitment string `koanf:"commitment" validate:"oneof=mixing sha256"`
}

type HTTPConfig struct {
	Addr           string        `koanf:"addr" validate:"required"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gte=0"`
}

type GRPCConfig struct {
	Listen string `koanf:"listen" validate:"required"`
}

type TelemetryConfig struct {
	TraceExporter string `koanf:"trace_exporter" validate:"oneof=none stdout otlp"`
	ServiceName   string `koanf:"service_name"`
	OTLPEndpoint  string `koanf:"otlp_endpoint"`
}

// #endregion types

// #region load
// Load layers defaults, the optional YAML file at path, then BREEDER_ env vars.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("db.path", "breeder.db")
	k.Set("prover.mode", "local")
	k.Set("prover.addr", "localhost:50061")
	k.Set("prover.commitment", "mixing")
	k.Set("http.addr", ":8080")
	k.Set("http.request_timeout", "30s")
	k.Set("grpc.listen", ":50061")
	k.Set("telemetry.trace_exporter", "none")
	k.Set("telemetry.service_name", "breeding-verifier")
	k.Set("telemetry.otlp_endpoint", "localhost:4317")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// only the first underscore separates section from key: BREEDER_HTTP_REQUEST_TIMEOUT
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// #endregion load
