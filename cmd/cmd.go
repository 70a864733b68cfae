// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: table, csv, json or yaml",
		Value:   "table",
	}
}

// setupCommand handles setup operations for configuration and the history database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "base-url",
						Usage: "Backend API root to store in the new config",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the job history database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles account operations
func authCommand(r *Runner) *cli.Command {
	credentials := []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password",
			Sources: cli.EnvVars("AUTODEV_PASSWORD"),
		},
	}

	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:   "register",
				Usage:  "Create a backend account",
				Flags:  credentials,
				Action: r.AuthRegister,
			},
			{
				Name:   "login",
				Usage:  "Log in and store the access token in the config file",
				Flags:  credentials,
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check that the backend is reachable with the stored token",
				Action: r.AuthStatus,
			},
		},
	}
}

// projectCommand handles project operations
func projectCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "project",
		Aliases: []string{"projects", "p"},
		Usage:   "Project operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a project",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "name"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "description",
						Aliases: []string{"d"},
						Usage:   "Project description",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.ProjectCreate,
			},
			{
				Name:   "list",
				Usage:  "List projects",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.ProjectList,
			},
			{
				Name:  "get",
				Usage: "Show a project",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ProjectGet,
			},
			{
				Name:  "delete",
				Usage: "Delete a project",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.ProjectDelete,
			},
		},
	}
}

// templateCommand browses starter templates
func templateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "template",
		Aliases: []string{"templates", "t"},
		Usage:   "Starter template operations",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List starter templates",
				Flags:  []cli.Flag{formatFlag()},
				Action: r.TemplateList,
			},
			{
				Name:  "get",
				Usage: "Show a template's specification",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the specification to this file",
					},
					&cli.StringFlag{
						Name:  "job",
						Usage: "Save the specification to this job",
					},
				},
				Action: r.TemplateGet,
			},
		},
	}
}

// uploadCommand uploads documents for analysis
func uploadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "upload",
		Usage: "Upload documents for analysis",
		Arguments: []cli.Argument{
			&cli.StringArgs{Name: "files", Min: 1, Max: -1},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Upload,
	}
}

// jobCommand handles generation job operations
func jobCommand(r *Runner) *cli.Command {
	jobArg := []cli.Argument{&cli.StringArg{Name: "id"}}

	return &cli.Command{
		Name:    "job",
		Aliases: []string{"jobs", "j"},
		Usage:   "Generation job operations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a job over previously uploaded files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Usage:    "Project ID",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "file",
						Usage: "Server-side path returned by upload (repeatable)",
					},
				},
				Action: r.JobCreate,
			},
			{
				Name:  "list",
				Usage: "List jobs of a project",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "project",
						Usage:    "Project ID",
						Required: true,
					},
					formatFlag(),
				},
				Action: r.JobList,
			},
			{
				Name:      "preview",
				Usage:     "Preview a job's saved specification",
				Arguments: jobArg,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write a markdown summary to this file",
					},
				},
				Action: r.JobPreview,
			},
			{
				Name:      "save-spec",
				Usage:     "Save a specification for a job",
				Arguments: jobArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Usage:    "Path to the specification JSON",
						Required: true,
					},
				},
				Action: r.JobSaveSpec,
			},
			{
				Name:      "generate",
				Usage:     "Generate the application for a job",
				Arguments: jobArg,
				Action:    r.JobGenerate,
			},
			{
				Name:      "download",
				Usage:     "Download a job's generated archive",
				Arguments: jobArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Archive path (default: <id>.zip)",
					},
				},
				Action: r.JobDownload,
			},
			{
				Name:      "files",
				Usage:     "List a job's generated files, or write them to a directory",
				Arguments: jobArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Print a single file",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Write every file under this directory",
					},
				},
				Action: r.JobFiles,
			},
			{
				Name:      "ask",
				Usage:     "Ask the assistant to change a generated project",
				Arguments: jobArg,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "question",
						Aliases:  []string{"q"},
						Usage:    "Requested change",
						Required: true,
					},
				},
				Action: r.JobAsk,
			},
		},
	}
}

// streamCommand prints a job's analysis stream
func streamCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "stream",
		Usage: "Print a job's analysis stream as it arrives",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Stream,
	}
}

// watchCommand follows a job's analysis stream in the TUI
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Follow a job's analysis stream in an interactive view",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Action: r.Watch,
	}
}

// runCommand drives the full pipeline
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Upload, analyze, save and generate in one go",
		Arguments: []cli.Argument{
			&cli.StringArgs{Name: "files", Min: 1, Max: -1},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "project",
				Usage: "Existing project ID",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Name of the project to create",
			},
			&cli.StringFlag{
				Name:    "description",
				Aliases: []string{"d"},
				Usage:   "Description of the project to create",
			},
			&cli.BoolFlag{
				Name:  "skip-generate",
				Usage: "Stop once the specification is saved",
			},
			&cli.BoolFlag{
				Name:  "tui",
				Usage: "Show progress in an interactive view",
			},
		},
		Action: r.Run,
	}
}

// historyCommand lists local job history
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List jobs started from this machine",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "project",
				Usage: "Only jobs of this project",
			},
			&cli.StringFlag{
				Name:  "status",
				Usage: "Only jobs with this status",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
		},
		Action: r.History,
	}
}

// proxyCommand serves the local development proxy
func proxyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "proxy",
		Usage: "Serve /api/* on a local port, forwarding to the backend with the stored token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: from [server] config)",
			},
		},
		Action: r.Proxy,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls against the backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON responses",
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
		},
	}
}
