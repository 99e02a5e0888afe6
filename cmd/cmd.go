// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles session and account operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authenticate with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "guest",
				Usage:  "Provision a fresh guest session",
				Action: r.AuthGuest,
			},
			{
				Name:   "whoami",
				Usage:  "Show the active session",
				Flags:  []cli.Flag{&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}},
				Action: r.AuthWhoami,
			},
			{
				Name:   "logout",
				Usage:  "Clear the stored session",
				Action: r.AuthLogout,
			},
		},
	}
}

// chatCommand handles assistant conversation operations
func chatCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the game discovery assistant",
		Commands: []*cli.Command{
			{
				Name:  "ask",
				Usage: "Send a prompt and stream the reply",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "prompt"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-stream",
						Usage: "Wait for the complete reply instead of streaming",
					},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.ChatAsk,
			},
			{
				Name:  "history",
				Usage: "Print the stored transcript",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.ChatHistory,
			},
			{
				Name:   "clear",
				Usage:  "Delete the stored transcript",
				Action: r.ChatClear,
			},
		},
	}
}

// gamesCommand handles catalog operations
func gamesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "games",
		Aliases: []string{"catalog"},
		Usage:   "Browse and manage the game catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List all catalog entries",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "pretty", Usage: "Pretty-print output", Value: true},
				},
				Action: r.GamesList,
			},
			{
				Name:  "search",
				Usage: "Search the catalog",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "query"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.GamesSearch,
			},
			{
				Name:  "show",
				Usage: "Show one catalog entry",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "Game ID", Required: true},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "open", Usage: "Open the download link in the browser"},
				},
				Action: r.GamesShow,
			},
			{
				Name:  "export",
				Usage: "Export the catalog to local files",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "format",
						Usage: "Export formats (json, csv, markdown, txt)",
						Value: []string{"json"},
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory",
					},
					&cli.BoolFlag{
						Name:  "resolve-urls",
						Usage: "Resolve signed asset URLs before export",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent URL resolution workers",
						Value: 4,
					},
				},
				Action: r.GamesExport,
			},
			{
				Name:  "add",
				Usage: "Create a catalog entry",
				Flags: append(gameMetaFlags(),
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Game name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "netdisk-url",
						Usage: "Cloud-drive share link for the game file",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Drive provider (quark, baidu, aliyun)",
						Value: "quark",
					},
				),
				Action: r.GamesAdd,
			},
			{
				Name:  "update",
				Usage: "Edit a catalog entry",
				Flags: append(gameMetaFlags(),
					&cli.IntFlag{Name: "id", Usage: "Game ID", Required: true},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Game name",
					},
				),
				Action: r.GamesUpdate,
			},
			{
				Name:  "delete",
				Usage: "Remove a catalog entry",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "Game ID", Required: true},
				},
				Action: r.GamesDelete,
			},
		},
	}
}

// uploadCommand handles game submissions
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Submit a game to the catalog",
		Commands: []*cli.Command{
			{
				Name:  "file",
				Usage: "Upload a game binary with metadata",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: append(uploadMetaFlags(),
					&cli.StringFlag{
						Name:  "cover",
						Usage: "Path to a cover image",
					},
				),
				Action: r.UploadFile,
			},
			{
				Name:  "netdisk",
				Usage: "Submit a cloud-drive share link with metadata",
				Flags: append(uploadMetaFlags(),
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Share link URL",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "Drive provider (quark, baidu, aliyun)",
						Value: "quark",
					},
				),
				Action: r.UploadNetdisk,
			},
			{
				Name:  "status",
				Usage: "Poll progress for an upload ID",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Poll until the upload reaches a terminal state",
					},
				},
				Action: r.UploadStatus,
			},
		},
	}
}

// gameMetaFlags are the optional catalog fields shared by add and update.
func gameMetaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "name-en",
			Usage: "English name",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Catalog category",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Short description",
		},
		&cli.StringSliceFlag{
			Name:  "tag",
			Usage: "Catalog tag, repeatable",
		},
		&cli.StringFlag{
			Name:  "cover",
			Usage: "Path to a local cover image to upload",
		},
	}
}

func uploadMetaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "name",
			Aliases:  []string{"n"},
			Usage:    "Game name",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name-en",
			Usage: "English name",
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Catalog category",
		},
		&cli.StringFlag{
			Name:  "description",
			Usage: "Short description",
		},
	}
}

// setupCommand handles configuration and credential store initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a starter config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the credential store",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive use.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive chat and catalog browser",
		Action:  r.TUI,
	}
}
