// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"time"

	mcpserver "github.com/tabletoptools/vtt-bridge/internal/mcp"
	"github.com/tabletoptools/vtt-bridge/internal/platform/config"
	"github.com/tabletoptools/vtt-bridge/internal/platform/otel"
	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

// Config holds MCP command configuration.
type Config struct {
	URL        string        `env:"VTT_BRIDGE_URL"`
	Username   string        `env:"VTT_BRIDGE_USERNAME"`
	UserID     string        `env:"VTT_BRIDGE_USER_ID"`
	Password   string        `env:"VTT_BRIDGE_PASSWORD"`
	APIKey     string        `env:"VTT_BRIDGE_API_KEY"`
	Timeout    time.Duration `env:"VTT_BRIDGE_TIMEOUT"`
	RetryCount int           `env:"VTT_BRIDGE_RETRY_COUNT" envDefault:"3"`
	RetryDelay time.Duration `env:"VTT_BRIDGE_RETRY_DELAY"`
	Transport  string        `env:"VTT_BRIDGE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr   string        `env:"VTT_BRIDGE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.URL, "url", cfg.URL, "base URL of the tabletop server")
	fs.StringVar(&cfg.Username, "username", cfg.Username, "user display name for the join flow")
	fs.StringVar(&cfg.UserID, "user-id", cfg.UserID, "pre-resolved user id, skips name resolution")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API key for the HTTP API mode")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// bridgeConfig maps command configuration onto the bridge client.
func (c Config) bridgeConfig() vtt.Config {
	return vtt.Config{
		BaseURL:        c.URL,
		Username:       c.Username,
		UserID:         c.UserID,
		Password:       c.Password,
		APIKey:         c.APIKey,
		RequestTimeout: c.Timeout,
		RetryCount:     c.RetryCount,
		RetryDelay:     c.RetryDelay,
	}
}

// Run starts the MCP protocol adapter.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return mcpserver.Run(ctx, mcpserver.Config{
		Bridge:    cfg.bridgeConfig(),
		Transport: mcpserver.TransportKind(cfg.Transport),
		HTTPAddr:  cfg.HTTPAddr,
	})
}
