package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/starford/gebo/internal"
	"github.com/starford/gebo/internal/clipboard"
	"github.com/starford/gebo/internal/comps"
	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/mcpserver"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/storage"
	pkgconfig "github.com/starford/gebo/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// openLibrary prepares the library directory and loads the store, for the
// commands that operate on it directly without a running server.
func openLibrary(cfg *internal.Config) (*comps.Repository, *storage.FS, error) {
	if err := os.MkdirAll(cfg.Library.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create library dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Library.Path)
	if err != nil {
		return nil, nil, err
	}
	repo := comps.New(fs)
	if err := repo.Load(); err != nil {
		return nil, nil, err
	}
	return repo, fs, nil
}

func runServe(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func runList(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, _, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	results := repo.Query(cmd.String("search"), cmd.String("tag"))
	for _, n := range results {
		line := models.DisplayName(n.Name)
		if len(n.Comp.Tags) > 0 {
			line += "  [" + strings.Join(n.Comp.Tags, ", ") + "]"
		}
		fmt.Fprintln(cmd.Writer, line)
	}
	return nil
}

func runAdd(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: gebo add <name>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, _, err := openLibrary(cfg)
	if err != nil {
		return err
	}
	if err := repo.Add(name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Writer, "added %s\n", models.NormalizeName(name))
	return nil
}

// confirmDelete resolves the delete confirmation: an interactive terminal
// prompt when one is available, otherwise the explicit --yes flag. Exactly
// one affirmative path may trigger the delete.
func confirmDelete(cmd *cli.Command, name string) (bool, error) {
	if cmd.Bool("yes") {
		return true, nil
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) && !isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return false, fmt.Errorf("stdin is not a terminal; pass --yes to confirm deleting %q", name)
	}

	fmt.Fprintf(cmd.Writer, "Delete %q? This cannot be undone. [y/N]: ", models.DisplayName(name))
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		// Prompt failed mid-read; fall back to requiring the flag.
		return false, fmt.Errorf("could not read confirmation; pass --yes to confirm deleting %q", name)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func runDelete(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: gebo delete <name>")
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, _, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	ok, err := confirmDelete(cmd, name)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(cmd.Writer, "cancelled")
		return nil
	}

	if err := repo.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Writer, "deleted %s\n", models.NormalizeName(name))
	return nil
}

func runExport(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, fs, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	text, err := clipboard.Export(repo, fs, cmd.String("comp"))
	if err != nil {
		return err
	}

	if cmd.Bool("stdout") {
		fmt.Fprintln(cmd.Writer, text)
		return nil
	}
	if err := clipboard.WriteSystem(text); err != nil {
		return err
	}
	fmt.Fprintln(cmd.Writer, "payload copied to clipboard")
	return nil
}

func runImport(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, fs, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	var text string
	if cmd.Bool("stdin") {
		data, readErr := io.ReadAll(os.Stdin)
		if readErr != nil {
			return readErr
		}
		text = string(data)
	} else {
		text, err = clipboard.ReadSystem()
		if err != nil {
			return err
		}
	}

	res, err := clipboard.Import(repo, fs, text)
	if err != nil {
		return err
	}

	for incoming, inserted := range res.Comps {
		if incoming == inserted {
			fmt.Fprintf(cmd.Writer, "imported %s\n", inserted)
		} else {
			fmt.Fprintf(cmd.Writer, "imported %s as %s\n", incoming, inserted)
		}
	}
	for old, renamed := range res.Images {
		fmt.Fprintf(cmd.Writer, "image %s renamed to %s\n", old, renamed)
	}
	return nil
}

func runMCP(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	repo, fs, err := openLibrary(cfg)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.App.LogLevel}))
	if err := index.Sync(db, repo, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	return mcpserver.New(repo, db, fs).ServeStdio()
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:   "gebo",
		Usage:  "Local-first comp notebook with a JSON store, full-text search, and clipboard transfer",
		Flags:  []cli.Flag{configFlag},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: runServe,
			},
			{
				Name:  "list",
				Usage: "List comps, optionally filtered",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Conjunctive token search"},
					&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "Tag filter"},
				},
				Action: runList,
			},
			{
				Name:      "add",
				Usage:     "Create a new empty comp",
				ArgsUsage: "<name>",
				Action:    runAdd,
			},
			{
				Name:      "delete",
				Usage:     "Delete a comp (asks for confirmation)",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
				},
				Action: runDelete,
			},
			{
				Name:  "export",
				Usage: "Copy the store (or one comp) with all images to the clipboard",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "comp", Usage: "Export a single comp instead of the whole store"},
					&cli.BoolFlag{Name: "stdout", Usage: "Print the payload instead of using the clipboard"},
				},
				Action: runExport,
			},
			{
				Name:  "import",
				Usage: "Merge a payload from the clipboard into the library",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stdin", Usage: "Read the payload from stdin instead of the clipboard"},
				},
				Action: runImport,
			},
			{
				Name:   "mcp",
				Usage:  "Serve Gebo tools over the Model Context Protocol on stdio",
				Action: runMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
