// Package config binds the hokmd server's command-line flags and
// HOKM_-prefixed environment variables to a single Config struct, in the
// cobra+viper+pflag style the rest of this pack's services use for their
// entrypoints.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds every tunable the server exposes, bound from flags, env
// vars (HOKM_*), or their defaults, in that order of precedence.
type Config struct {
	ListenAddress          string
	StoreDriver            string
	StoreEndpoint          string
	RoomCacheSize          int
	TurnTimeout            time.Duration
	ReconnectGrace         time.Duration
	HeartbeatInterval      time.Duration
	SessionTTL             time.Duration
	RoomTTL                time.Duration
	RoomQueueCapacity      int
	LogLevel               string
	AllowedOrigins         []string
	ShutdownDrainTimeout   time.Duration
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("invalid --store-driver %q (must be memory or postgres)", c.StoreDriver)
	}
	if c.StoreDriver == "postgres" && c.StoreEndpoint == "" {
		return fmt.Errorf("--store-endpoint is required when --store-driver=postgres")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level %q (must be debug, info, warn, or error)", c.LogLevel)
	}
	if c.RoomQueueCapacity < 1 {
		return fmt.Errorf("--room-queue-capacity must be at least 1")
	}
	return nil
}

// NewCommand builds the root cobra.Command for hokmd. run is invoked once
// flags and env vars have been bound and validated.
func NewCommand(cfg *Config, run func(cmd *cobra.Command, cfg *Config) error) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("HOKM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "hokmd",
		Short:         "Authoritative real-time server for four-player Hokm.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.ListenAddress, "listen-address", ":8080", "address the websocket and admin HTTP server binds to (env: HOKM_LISTEN_ADDRESS)")
	fs.StringVar(&cfg.StoreDriver, "store-driver", "memory", "session/room store backend: memory or postgres (env: HOKM_STORE_DRIVER)")
	fs.StringVar(&cfg.StoreEndpoint, "store-endpoint", "", "postgres connection string, required when store-driver=postgres (env: HOKM_STORE_ENDPOINT)")
	fs.IntVar(&cfg.RoomCacheSize, "room-cache-size", 1024, "entries held in the postgres store's in-process room-state cache (env: HOKM_ROOM_CACHE_SIZE)")
	fs.DurationVar(&cfg.TurnTimeout, "turn-timeout", 60*time.Second, "time a stalled player's turn waits before auto-play (env: HOKM_TURN_TIMEOUT)")
	fs.DurationVar(&cfg.ReconnectGrace, "reconnect-grace", 5*time.Minute, "time a disconnected player has to reconnect before the room is abandoned (env: HOKM_RECONNECT_GRACE)")
	fs.DurationVar(&cfg.HeartbeatInterval, "heartbeat-interval", 30*time.Second, "expected interval between client heartbeat messages (env: HOKM_HEARTBEAT_INTERVAL)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", time.Hour, "store TTL for a player session record (env: HOKM_SESSION_TTL)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", time.Hour, "store TTL for a persisted room state record (env: HOKM_ROOM_TTL)")
	fs.IntVar(&cfg.RoomQueueCapacity, "room-queue-capacity", 256, "bounded FIFO capacity of each room actor's inbox (env: HOKM_ROOM_QUEUE_CAPACITY)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "log level: debug, info, warn, or error (env: HOKM_LOG_LEVEL)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", nil, "comma-separated scheme+host values; stored in Config only, the websocket upgrade accepts any origin (env: HOKM_ALLOWED_ORIGINS)")
	fs.DurationVar(&cfg.ShutdownDrainTimeout, "shutdown-drain-timeout", 5*time.Second, "time allotted to persist room state and close connections on shutdown (env: HOKM_SHUTDOWN_DRAIN_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
