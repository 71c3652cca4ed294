// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config.toml from the embedded template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// serveCommand runs the seranote API server.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the seranote API server",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// loginCommand handles the provider login flow.
func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate with the identity provider and save a session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL instead of opening a browser",
			},
		},
		Action: r.Login,
	}
}

// songsCommand handles song catalog operations
func songsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "songs",
		Usage: "Browse the song catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List songs in the catalog",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.SongsList,
			},
			{
				Name:  "show",
				Usage: "Show one song by slug",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "slug"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SongsShow,
			},
		},
	}
}

// notesCommand handles note operations
func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Create, list and open notes",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your notes",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "type",
						Usage: "Which notes to list (sent or received)",
						Value: "sent",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.NotesList,
			},
			{
				Name:  "create",
				Usage: "Compose and share a note",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "song",
						Usage:    "Song slug from the catalog",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "title",
						Usage: "Note title",
					},
					&cli.StringFlag{
						Name:  "message",
						Usage: "Note text",
					},
					&cli.FloatFlag{
						Name:  "start",
						Usage: "Clip start offset in seconds",
					},
					&cli.FloatFlag{
						Name:  "duration",
						Usage: "Clip length in seconds (default: longest allowed window)",
					},
					&cli.StringFlag{
						Name:  "to",
						Usage: "Address the note; only this recipient can claim it",
					},
					&cli.StringFlag{
						Name:  "email",
						Usage: "Send the share link to this address",
					},
				},
				Action: r.NotesCreate,
			},
			{
				Name:  "show",
				Usage: "Open a note; first open of a shared link claims it",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.NotesShow,
			},
			{
				Name:  "delete",
				Usage: "Delete a note and its thread",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.NotesDelete,
			},
		},
	}
}

// chatCommand opens the interactive chat thread for a note.
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Open the live chat thread for a note",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Chat,
	}
}

// composeCommand launches the interactive compose TUI.
func composeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "compose",
		Aliases: []string{"tui"},
		Usage:   "Interactively pick a song, trim a clip and send a note",
		Action:  r.Compose,
	}
}
