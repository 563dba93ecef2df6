package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"carepathiq-be/internal/bootstrap"
	"carepathiq-be/internal/config"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/workshop"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "carepathiq",
		Short:         "Draft evidence-based clinical pathways from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd())
	root.AddCommand(newChatCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newDemoCmd())

	return root
}

// newTerminalContainer wires the service stack with model fragments going
// straight to stdout.
func newTerminalContainer(cmd *cobra.Command) (*bootstrap.Container, *config.Config) {
	cfg := config.Load()
	container := bootstrap.NewTerminalContainer(cfg, &workshop.TerminalStream{Out: cmd.OutOrStdout()})

	// Checkpoints autosave in the background here too.
	if err := container.ConsumerService.Consume(cmd.Context()); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "checkpoint autosave disabled:", err)
	}

	return container, cfg
}

func newRunCmd() *cobra.Command {
	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the five-phase guided workshop",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cfg := newTerminalContainer(cmd)

			runner := &workshop.Runner{
				Pathway:        container.PathwayService,
				Workshop:       container.WorkshopService,
				Assistant:      container.AssistantService,
				ReportPath:     cfg.Report.Path,
				TranscriptPath: cfg.Report.TranscriptPath,
				In:             cmd.InOrStdin(),
				Out:            cmd.OutOrStdout(),
			}
			return runner.Run(cmd.Context(), resume)
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", true, "resume from the saved document when one exists")

	return cmd
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Free-form assistant chat over the current pathway",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cfg := newTerminalContainer(cmd)

			repl := &workshop.REPL{
				Pathway:        container.PathwayService,
				Evidence:       container.EvidenceService,
				Assistant:      container.AssistantService,
				ReportPath:     cfg.Report.Path,
				TranscriptPath: cfg.Report.TranscriptPath,
				Out:            cmd.OutOrStdout(),
			}
			return repl.Run(cmd.Context())
		},
	}
}

func newSearchCmd() *cobra.Command {
	var retMax int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "One-off PubMed lookup",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, _ := newTerminalContainer(cmd)

			result := container.EvidenceService.Search(cmd.Context(), &dto.EvidenceSearchRequest{
				Query:  strings.Join(args, " "),
				RetMax: retMax,
			})
			if result.Note != "" {
				fmt.Fprintln(cmd.OutOrStdout(), result.Note)
			}
			for i, citation := range result.Citations {
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, citation.Citation)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&retMax, "max", 0, "maximum results (default from config)")

	return cmd
}

func newReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the saved pathway document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			data, err := os.ReadFile(cfg.Report.Path)
			if err != nil {
				return fmt.Errorf("no saved pathway at %s: %w", cfg.Report.Path, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Seed the Acute Chest Pain demo pathway and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cfg := newTerminalContainer(cmd)

			created := container.PathwayService.CreateDemo(cmd.Context())
			saved, err := container.PathwayService.Save(cmd.Context(), created.Id, cfg.Report.Path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Demo pathway written to %s\n", saved.Path)
			return nil
		},
	}
}
