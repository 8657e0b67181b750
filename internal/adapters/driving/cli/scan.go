package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	scanWatch   bool
	scanWorkers int
	scanStore   string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan and summarise documents under a directory",
	Long: `Walks the directory, extracts text from every supported document,
selects the most relevant sentences via embedding ranking, and writes
two artifacts: the full record set and the reduced projection that
feeds the organize step.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "keep re-processing files as they change")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "summarisation workers (default from config)")
	scanCmd.Flags().StringVar(&scanStore, "store", "", "record store backend: memory or sqlite")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if buildOrganiser == nil {
		return errors.New("organiser not configured")
	}

	organiser, err := buildOrganiser(PipelineOptions{
		Workers: resolveWorkers(scanWorkers),
		Store:   resolveStore(scanStore),
	})
	if err != nil {
		return fmt.Errorf("wire pipeline: %w", err)
	}

	ctx := context.Background()
	summary, err := organiser.Scan(ctx, args[0])
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	cmd.Printf("Scan complete (run %s)\n", summary.RunID)
	cmd.Printf("  Discovered: %d\n", summary.Discovered)
	cmd.Printf("  Extracted:  %d\n", summary.Extracted)
	cmd.Printf("  Summarised: %d\n", summary.Summarised)
	cmd.Printf("  Failed:     %d\n", summary.Failed)
	cmd.Printf("  Records:    %s\n", summary.RecordsPath)
	cmd.Printf("  Projection: %s\n", summary.ProjectionPath)

	printKPIReport(cmd, organiser.Metrics())

	if !scanWatch {
		return nil
	}

	cmd.Println()
	cmd.Println("Watching for changes, Ctrl+C to stop.")
	watchCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if err := organiser.Watch(watchCtx, args[0]); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}

// resolveWorkers prefers the flag, then the config store.
func resolveWorkers(flag int) int {
	if flag > 0 {
		return flag
	}
	if configStore != nil {
		return configStore.GetInt("scan.workers")
	}
	return 0
}

// resolveStore prefers the flag, then the config store, then memory.
func resolveStore(flag string) string {
	if flag != "" {
		return flag
	}
	if configStore != nil {
		if backend := configStore.GetString("store.backend"); backend != "" {
			return backend
		}
	}
	return "memory"
}
