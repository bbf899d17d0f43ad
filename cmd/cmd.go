// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   configFile,
	}
}

func formFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "title",
			Aliases: []string{"t"},
			Usage:   "Snippet title",
		},
		&cli.StringFlag{
			Name:  "code",
			Usage: "Snippet code",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "Read code from a file ('-' for stdin)",
		},
		&cli.StringFlag{
			Name:    "language",
			Aliases: []string{"l"},
			Usage:   "Language enum value, e.g. GO or PYTHON",
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write the default config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the file",
						Value:   configFile,
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// authCommand handles the session: login, registration, sign-out and status.
func authCommand(r *Runner) *cli.Command {
	credentials := []cli.Flag{
		&cli.StringFlag{
			Name:     "password",
			Aliases:  []string{"p"},
			Usage:    "Account password",
			Sources:  cli.EnvVars("SNIPX_PASSWORD"),
			Required: true,
		},
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the signed-in user",
		Commands: []*cli.Command{
			{
				Name:      "login",
				Usage:     "Sign in and remember the user name",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     credentials,
				Action:    r.AuthLogin,
			},
			{
				Name:      "register",
				Usage:     "Create an account",
				Arguments: []cli.Argument{&cli.StringArg{Name: "name"}},
				Flags:     credentials,
				Action:    r.AuthRegister,
			},
			{
				Name:    "logout",
				Aliases: []string{"signout"},
				Usage:   "Forget the signed-in user",
				Action:  r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the session and check the API is reachable",
				Action: r.AuthStatus,
			},
			{
				Name:  "users",
				Usage: "List users snippets can be shared with",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.AuthUsers,
			},
		},
	}
}

// snippetsCommand handles snippet browsing, editing, sharing and export.
func snippetsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "snippets",
		Aliases: []string{"sn"},
		Usage:   "Browse and manage snippets",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List guest and own snippets, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "origin",
						Usage: "all, guest, mine or shared",
						Value: "all",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Read from the local cache instead of the API",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.SnippetsList,
			},
			{
				Name:      "show",
				Usage:     "Print one snippet with syntax highlighting",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "html",
						Usage: "Print the highlighted HTML fragment",
					},
				},
				Action: r.SnippetsShow,
			},
			{
				Name:  "create",
				Usage: "Create a snippet, optionally sharing it",
				Flags: append(formFlags(),
					&cli.StringSliceFlag{
						Name:  "share",
						Usage: "Share the new snippet with these users",
					},
				),
				Action: r.SnippetsCreate,
			},
			{
				Name:      "update",
				Usage:     "Edit a snippet; omitted fields keep their value",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     formFlags(),
				Action:    r.SnippetsUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a snippet",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.SnippetsDelete,
			},
			{
				Name:      "share",
				Usage:     "Share an existing snippet",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "to",
						Usage:    "Recipient user names",
						Required: true,
					},
				},
				Action: r.SnippetsShare,
			},
			{
				Name:  "languages",
				Usage: "List languages accepted by the server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Read from the local cache instead of the API",
					},
				},
				Action: r.SnippetsLanguages,
			},
			{
				Name:  "export",
				Usage: "Export snippets as json, csv, markdown, txt or html",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format",
						Value: "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (or directory with --each)",
					},
					&cli.BoolFlag{
						Name:  "each",
						Usage: "Write one file per snippet plus a manifest",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent writers for --each",
						Value: 4,
					},
					&cli.BoolFlag{
						Name:  "shared",
						Usage: "Include snippets shared with you",
					},
					&cli.BoolFlag{
						Name:  "offline",
						Usage: "Export the local cache instead of fetching",
					},
				},
				Action: r.SnippetsExport,
			},
		},
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the snippet API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Fetch every list endpoint for the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// cacheCommand inspects the local snippet cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the local snippet cache",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Show cached snippet counts per origin",
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached snippet",
				Action: r.CacheClear,
			},
		},
	}
}

// previewCommand serves the snippet view as HTML
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Serve highlighted snippets on a local web page",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on",
				Value: r.config.Preview.Host,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (0 picks a free one)",
				Value:   r.config.Preview.Port,
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Page title",
				Value: "Snippets",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the page in the default browser",
			},
		},
		Action: r.Preview,
	}
}

// tuiCommand returns the top-level TUI command for interactive snippet management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive TUI for snippets",
		Action:  r.TUI,
	}
}
