package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docfold/docfold/internal/adapters/driving/tui"
	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driving"
)

var (
	organizeDest  string
	organizeYes   bool
	organizeStore string
)

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Propose and apply a better folder structure",
	Long: `Asks the LLM to analyse the scanned documents, answer your questions
about the analysis, and propose a reorganised folder structure. The
proposal is validated against the live filesystem and nothing is moved
until you explicitly confirm. Requires a prior 'docfold scan'.`,
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVarP(&organizeDest, "dest", "d", "", "destination root for the new structure")
	organizeCmd.Flags().BoolVarP(&organizeYes, "yes", "y", false, "skip the Q&A session and all confirmation prompts")
	organizeCmd.Flags().StringVar(&organizeStore, "store", "", "record store backend: memory or sqlite")
	rootCmd.AddCommand(organizeCmd)
}

func runOrganize(cmd *cobra.Command, _ []string) error {
	if buildOrganiser == nil {
		return errors.New("organiser not configured")
	}

	destRoot := resolveDestRoot(organizeDest)
	if destRoot == "" {
		return errors.New("no destination root: pass --dest or set dest.root in config")
	}

	organiser, err := buildOrganiser(PipelineOptions{
		DestRoot: destRoot,
		Store:    resolveStore(organizeStore),
	})
	if err != nil {
		return fmt.Errorf("wire pipeline: %w", err)
	}

	ctx := context.Background()
	// One scanner for every prompt: a fresh bufio.Scanner per prompt
	// would buffer ahead and drop the lines meant for the next one.
	input := bufio.NewScanner(cmd.InOrStdin())

	if _, err := organiser.Projection(ctx); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return errors.New("no scan artifacts found, run 'docfold scan' first")
		}
		return fmt.Errorf("load projection: %w", err)
	}

	analysis, err := organiser.Analyse(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	cmd.Println("=== Structure Analysis ===")
	cmd.Println(analysis)
	cmd.Println()

	if !organizeYes {
		if err := runQA(ctx, cmd, organiser, analysis, input); err != nil {
			return err
		}
		if !confirm(cmd, input, "Generate an organisation plan? [y/N]: ") {
			cmd.Println("Stopped before planning. Nothing was moved.")
			return nil
		}
	}
	organiser.EndConversation()

	plan, err := organiser.Propose(ctx)
	if err != nil {
		return fmt.Errorf("plan request failed: %w", err)
	}

	cmd.Println("=== Proposed Structure ===")
	cmd.Print(plan.Tree().Render())
	cmd.Println()
	cmd.Println("=== Rationale ===")
	cmd.Println(plan.Rationale)
	cmd.Println()

	report, err := organiser.Validate(ctx, plan)
	if err != nil {
		return fmt.Errorf("plan rejected: %w", err)
	}
	for _, path := range report.Unmapped {
		cmd.Printf("Warning: %s is not covered by the plan and stays in place\n", path)
	}
	for _, op := range report.Renamed {
		cmd.Printf("Note: %s will be renamed to %s to avoid a collision\n", op.Destination, op.ResolvedDestination)
	}
	if len(report.MoveSet.Ops) == 0 {
		cmd.Println("Nothing to move, the files already match the proposal.")
		return nil
	}
	cmd.Printf("%d moves ready under %s\n", len(report.MoveSet.Ops), destRoot)

	confirmed := organizeYes
	if !confirmed {
		confirmed = confirmExact(cmd, input, "Apply these moves? Type 'yes' to confirm: ", "yes")
	}

	execReport, err := organiser.Execute(ctx, report.MoveSet, confirmed)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	if !confirmed {
		cmd.Println("Not confirmed. Nothing was moved.")
		return nil
	}

	cmd.Printf("Moved %d of %d files", execReport.Succeeded, len(report.MoveSet.Ops))
	if execReport.Skipped > 0 {
		cmd.Printf(" (%d skipped)", execReport.Skipped)
	}
	cmd.Println()
	for _, failure := range execReport.Failed {
		cmd.Printf("Failed: %s (%v)\n", failure.Op.Source, failure.Err)
	}

	if len(execReport.Failed) > 0 && !organizeYes {
		if confirm(cmd, input, "Some moves failed. Roll back the completed ones? [y/N]: ") {
			rollback, err := organiser.Rollback(ctx)
			if err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			cmd.Printf("Rolled back %d moves", rollback.Succeeded)
			if len(rollback.Failed) > 0 {
				cmd.Printf(", %d could not be restored", len(rollback.Failed))
			}
			cmd.Println()
		}
	}

	printKPIReport(cmd, organiser.Metrics())
	return nil
}

// runQA holds the question and answer session. On a real terminal it
// opens the interactive view; otherwise it reads questions line by
// line, stopping at the first empty one.
func runQA(ctx context.Context, cmd *cobra.Command, organiser driving.Organiser, analysis string, input *bufio.Scanner) error {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return tui.RunQA(ctx, organiser, analysis)
	}

	for {
		cmd.Print("Question (press Enter to continue): ")
		if !input.Scan() {
			return input.Err()
		}
		question := strings.TrimSpace(input.Text())
		if question == "" {
			return nil
		}
		answer, err := organiser.Ask(ctx, question)
		if err != nil {
			return fmt.Errorf("question failed: %w", err)
		}
		cmd.Println(answer)
		cmd.Println()
	}
}

// confirm reads a single line and accepts y/yes, case-insensitive.
func confirm(cmd *cobra.Command, input *bufio.Scanner, prompt string) bool {
	cmd.Print(prompt)
	if !input.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(input.Text()))
	return answer == "y" || answer == "yes"
}

// confirmExact requires the exact word. Used for the execution gate,
// where a stray keypress must not count as consent.
func confirmExact(cmd *cobra.Command, input *bufio.Scanner, prompt, want string) bool {
	cmd.Print(prompt)
	if !input.Scan() {
		return false
	}
	return strings.TrimSpace(input.Text()) == want
}

// resolveDestRoot prefers the flag, then the config store.
func resolveDestRoot(flag string) string {
	if flag != "" {
		return flag
	}
	if configStore != nil {
		return configStore.GetString("dest.root")
	}
	return ""
}
