// Command clausectl runs the clause pipeline interactively in a terminal.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/notarial-clause-assistant/internal/bootstrap"
	"github.com/kirillkom/notarial-clause-assistant/internal/config"
	"github.com/kirillkom/notarial-clause-assistant/internal/core/domain"
	"github.com/kirillkom/notarial-clause-assistant/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var store string
	var events bool

	root := &cobra.Command{
		Use:           "clausectl",
		Short:         "Interactive notarial clause assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&store, "store", "memory", "case store: memory or postgres")
	root.PersistentFlags().BoolVar(&events, "events", false, "publish clause events to NATS")

	open := func(cmd *cobra.Command) (*bootstrap.App, error) {
		cfg := config.Load()
		cfg.CaseStore = store
		slog.SetDefault(logging.NewJSONLogger("clausectl", cfg.LogLevel))
		return bootstrap.New(cmd.Context(), cfg, bootstrap.Options{Service: "clausectl", WithoutEvents: !events})
	}

	root.AddCommand(newRunCmd(open), newCatalogCmd(open), newSuggestCmd(open))
	return root
}

type appOpener func(cmd *cobra.Command) (*bootstrap.App, error)

func newRunCmd(open appOpener) *cobra.Command {
	var intakePath, ordinalList, exportPath, format string
	var docs []string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a case and work through its clauses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			intake, err := readIntake(intakePath)
			if err != nil {
				return err
			}
			ordinals, err := parseOrdinals(ordinalList)
			if err != nil {
				return err
			}
			exportFormat, err := domain.ParseExportFormat(format)
			if err != nil {
				return err
			}

			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			c, err := app.Cases.CreateCase(ctx, intake)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dossier %s aangemaakt.\n", c.ID)

			if len(docs) > 0 {
				uploads, err := readUploads(docs)
				if err != nil {
					return err
				}
				_, reports, err := app.Cases.AddDocuments(ctx, c.ID, uploads)
				if err != nil {
					return err
				}
				for _, r := range reports {
					if r.Error != "" {
						fmt.Fprintf(out, "- %s: niet gelezen (%s)\n", r.Filename, r.Error)
						continue
					}
					fmt.Fprintf(out, "- %s: %d tekens\n", r.Filename, r.Chars)
				}
			}

			if len(ordinals) == 0 {
				entries, err := app.Cases.Catalog(ctx)
				if err != nil {
					return err
				}
				for _, e := range entries {
					ordinals = append(ordinals, e.Ordinal)
				}
			}

			s := newSession(app.Cases, c.ID, app.OtherOption, cmd.InOrStdin(), out)
			if err := s.runAll(ctx, ordinals); err != nil {
				return err
			}

			doc, err := app.Cases.Export(ctx, c.ID, exportFormat)
			if err != nil {
				return err
			}
			if exportPath == "" {
				exportPath = doc.Filename
			}
			if err := os.WriteFile(exportPath, doc.Body, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(out, "\nAkte geschreven naar %s\n", exportPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&intakePath, "intake", "", "intake YAML or JSON file (required)")
	cmd.Flags().StringSliceVar(&docs, "doc", nil, "source document to add to the corpus (repeatable)")
	cmd.Flags().StringVar(&ordinalList, "ordinals", "", "comma-separated clause ordinals; default is the whole catalog")
	cmd.Flags().StringVar(&exportPath, "out", "", "export file path; default is a timestamped name")
	cmd.Flags().StringVar(&format, "format", "text", "export format: text, json or html")
	_ = cmd.MarkFlagRequired("intake")
	return cmd
}

func newCatalogCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the clause catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entries, err := app.Cases.Catalog(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range entries {
				marker := ""
				if e.AlwaysMandatory {
					marker = " (essentieel)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s%s\n", e.Ordinal, e.Label, marker)
			}
			return nil
		},
	}
}

func newSuggestCmd(open appOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest FILE...",
		Short: "Draft intake fields from source documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return err
			}
			app, err := open(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			suggestion, _, err := app.Cases.SuggestIntake(cmd.Context(), uploads)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(suggestion)
		},
	}
}

// readIntake accepts YAML; JSON is a subset of it.
func readIntake(path string) (domain.Intake, error) {
	var intake domain.Intake
	raw, err := os.ReadFile(path)
	if err != nil {
		return intake, fmt.Errorf("read intake: %w", err)
	}
	if err := yaml.Unmarshal(raw, &intake); err != nil {
		return intake, fmt.Errorf("parse intake %s: %w", path, err)
	}
	return intake, nil
}

func readUploads(paths []string) ([]domain.Upload, error) {
	uploads := make([]domain.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, domain.Upload{Filename: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func parseOrdinals(list string) ([]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid ordinal %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}
