// Package founding parses founding command flags and launches the
// founding workflow runtime.
package founding

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/hearthhold/hearthhold/internal/platform/cmd"
	foundingapp "github.com/hearthhold/hearthhold/internal/services/founding/app"
)

// Config holds founding command configuration.
type Config struct {
	Port               int           `env:"HEARTHHOLD_FOUNDING_PORT" envDefault:"8090"`
	DBPath             string        `env:"HEARTHHOLD_FOUNDING_DB_PATH" envDefault:"data/founding.db"`
	ProvisionerBaseURL string        `env:"HEARTHHOLD_FOUNDING_PROVISIONER_URL"`
	ProvisionerToken   string        `env:"HEARTHHOLD_FOUNDING_PROVISIONER_TOKEN"`
	SweepInterval      time.Duration `env:"HEARTHHOLD_FOUNDING_SWEEP_INTERVAL" envDefault:"30s"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The founding health gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The founding SQLite database path")
	fs.StringVar(&cfg.ProvisionerBaseURL, "provisioner-url", cfg.ProvisionerBaseURL, "The chat provisioning API base URL")
	fs.StringVar(&cfg.ProvisionerToken, "provisioner-token", cfg.ProvisionerToken, "The chat provisioning API bearer token")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "Expiry reconciliation sweep interval")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the founding runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceFounding, func(context.Context) error {
		return foundingapp.Run(ctx, foundingapp.RuntimeConfig{
			Port:               cfg.Port,
			DBPath:             cfg.DBPath,
			ProvisionerBaseURL: cfg.ProvisionerBaseURL,
			ProvisionerToken:   cfg.ProvisionerToken,
			SweepInterval:      cfg.SweepInterval,
		})
	})
}
