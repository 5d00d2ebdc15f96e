// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand writes a starter config file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a starter config.toml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// loginCommand starts the PKCE authorization flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with Spotify (PKCE, opens browser)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force-consent",
				Usage: "Show the consent dialog even if previously approved",
			},
		},
		Action: r.Login,
	}
}

// logoutCommand clears all stored credentials.
func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear all stored tokens",
		Action: r.Logout,
	}
}

// statusCommand reports the stored session state.
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show authentication status",
		Action: r.Status,
	}
}

// generateCommand turns a mood into a playlist.
func generateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Generate a playlist from a mood",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "mood",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Make the created playlist public",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Generate,
	}
}

// moodsCommand lists the supported moods.
func moodsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "moods",
		Usage:  "List supported moods and their audio targets",
		Action: r.Moods,
	}
}

// debugCommand inspects the diagnostic log.
func debugCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "debug",
		Usage: "Diagnostic log operations",
		Commands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "Show recent request diagnostics",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Number of records to show",
						Value:   20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.DebugTail,
			},
		},
	}
}

// tuiCommand launches the interactive mood picker.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive mood picker",
		Action: r.TUI,
	}
}
