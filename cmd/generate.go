package main

import (
	"context"
	"fmt"

	"github.com/moodplaylist/moodlist/internal/mood"
	"github.com/moodplaylist/moodlist/internal/shared"
	"github.com/urfave/cli/v3"
)

// Generate creates a playlist from the mood argument.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	moodName := cmd.StringArg("mood")
	if moodName == "" {
		return fmt.Errorf("%w: mood (one of excited, chill, sad, pumped)", shared.ErrMissingArgument)
	}

	if r.generator == nil {
		return fmt.Errorf("%w: generator not initialized (is spotify client_id configured?)", shared.ErrServiceUnavailable)
	}

	r.logger.Infof("generating %s playlist", moodName)

	result, err := r.generator.Generate(ctx, moodName, cmd.Bool("public"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	r.writePlain("✓ Created %s with %d tracks\n", result.Name, result.Tracks)
	if result.URL != "" {
		r.writePlain("%s\n", result.URL)
	}

	return nil
}

// Moods lists the supported moods with their audio targets.
func (r *Runner) Moods(ctx context.Context, cmd *cli.Command) error {
	for _, m := range mood.All() {
		t := m.Targets()
		tempo := ""
		if t.MinTempo > 0 {
			tempo = fmt.Sprintf(", min tempo %.0f", t.MinTempo)
		}
		if t.MaxTempo > 0 {
			tempo = fmt.Sprintf(", max tempo %.0f", t.MaxTempo)
		}
		r.writePlain("%-8s valence %.1f, energy %.1f, danceability %.1f%s\n", m, t.Valence, t.Energy, t.Danceability, tempo)
	}
	return nil
}

// Setup writes a starter config file at the given path.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlain("Fill in your Spotify client_id, then run: moodlist login\n")
	return nil
}
