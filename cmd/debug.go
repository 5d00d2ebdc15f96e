package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// DebugTail prints the most recent diagnostic records.
func (r *Runner) DebugTail(ctx context.Context, cmd *cli.Command) error {
	if r.diag == nil {
		return fmt.Errorf("%w: diagnostics disabled (enable [diagnostics] in config.toml)", shared.ErrServiceUnavailable)
	}

	events, err := r.diag.Tail(int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}

	if len(events) == 0 {
		return r.writePlain("No diagnostic records.\n")
	}

	for _, e := range events {
		status := fmt.Sprintf("%d", e.Status)
		if e.Err != "" {
			status = "ERR " + e.Err
		}
		r.writePlain("%s  %-6s %-60s attempt=%d %s\n", e.Time.Format(time.RFC3339), e.Method, e.URL, e.Attempt, status)
	}

	return nil
}
