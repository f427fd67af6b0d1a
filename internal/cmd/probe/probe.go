// Package probe implements a one-shot connectivity check against the remote
// server: connect, print the world summary as JSON, disconnect.
package probe

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"time"

	"github.com/tabletoptools/vtt-bridge/internal/platform/config"
	"github.com/tabletoptools/vtt-bridge/internal/vtt"
)

// Config holds probe command configuration.
type Config struct {
	URL        string        `env:"VTT_BRIDGE_URL"`
	Username   string        `env:"VTT_BRIDGE_USERNAME"`
	UserID     string        `env:"VTT_BRIDGE_USER_ID"`
	Password   string        `env:"VTT_BRIDGE_PASSWORD"`
	APIKey     string        `env:"VTT_BRIDGE_API_KEY"`
	Timeout    time.Duration `env:"VTT_BRIDGE_TIMEOUT"`
	RetryCount int           `env:"VTT_BRIDGE_RETRY_COUNT" envDefault:"3"`
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
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// report is the probe's JSON output.
type report struct {
	State  string         `json:"state"`
	UserID string         `json:"user_id,omitempty"`
	World  string         `json:"world,omitempty"`
	System string         `json:"system,omitempty"`
	Counts map[string]int `json:"counts"`
}

// Run connects once, writes the world summary to out, and disconnects.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	client, err := vtt.NewClient(vtt.Config{
		BaseURL:        cfg.URL,
		Username:       cfg.Username,
		UserID:         cfg.UserID,
		Password:       cfg.Password,
		APIKey:         cfg.APIKey,
		RequestTimeout: cfg.Timeout,
		RetryCount:     cfg.RetryCount,
	})
	if err != nil {
		return err
	}

	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	result := report{
		State:  string(client.State()),
		UserID: client.Session().UserID,
		Counts: client.Summary(),
	}
	if world := client.World(); world != nil {
		result.World = world.Title
		result.System = world.System
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
