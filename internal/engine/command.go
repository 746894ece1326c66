package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/rprocfit/internal/track"
)

// Request is the JSON document written to the external engine's stdin.
type Request struct {
	Label         string             `json:"label"`
	Enabled       bool               `json:"enabled"`
	RatePerMass   float64            `json:"rate_per_mass"`
	Metallicities []float64          `json:"metallicities"`
	DTD           [][][][2]float64   `json:"dtd"`
	YieldTable    string             `json:"yield_table,omitempty"`
	Params        map[string]float64 `json:"params,omitempty"`
}

func NewRequest(cfg Config) Request {
	req := Request{
		Label:       cfg.Label,
		Enabled:     cfg.Enabled,
		RatePerMass: cfg.RatePerMass,
		YieldTable:  cfg.YieldTable,
		Params:      cfg.Params,
	}
	if cfg.DTD != nil {
		req.Metallicities = cfg.DTD.Grid.Clone()
		req.DTD = cfg.DTD.Nested()
	}
	return req
}

// Command runs an external program once per Config. The program reads a
// Request from stdin and prints a track CSV (time,[Fe/H],<ratios>) on stdout.
type Command struct {
	Path    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
	Logger  *zap.Logger
}

func NewCommand(path string, args ...string) *Command {
	return &Command{Path: path, Args: args, Logger: zap.NewNop()}
}

func (c *Command) Run(ctx context.Context, cfg Config) (*track.Track, error) {
	if err := CheckYieldTable(cfg.YieldTable); err != nil {
		return nil, err
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(NewRequest(cfg))
	if err != nil {
		return nil, fmt.Errorf("engine: encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = time.Second
	if len(c.Env) > 0 {
		cmd.Env = c.Env
	}
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := c.logger().With(zap.String("label", cfg.Label), zap.String("engine", c.Path))
	start := time.Now()
	log.Debug("engine run starting", zap.Int("request_bytes", len(payload)))

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrEngineFailed, cfg.Label, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %s exited with %d: %s", ErrEngineFailed, c.Path, exitErr.ExitCode(), tail(stderr.String()))
		}
		return nil, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}

	tr, err := track.ReadCSV(&stdout, cfg.Label)
	if err != nil {
		return nil, fmt.Errorf("%w: parse output: %w", ErrEngineFailed, err)
	}
	log.Debug("engine run finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("samples", len(tr.Samples)))
	return tr, nil
}

func (c *Command) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// tail keeps the last few lines of stderr for error messages.
func tail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.Join(lines, " | ")
}
