package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/core/domain"
)

// stageOrder fixes the KPI report's stage listing to pipeline order.
var stageOrder = []domain.Stage{
	domain.StageScan,
	domain.StageExtract,
	domain.StageEmbed,
	domain.StagePlan,
	domain.StageValidate,
	domain.StageExecute,
}

// printKPIReport renders the run's metrics ledger snapshot.
func printKPIReport(cmd *cobra.Command, r domain.MetricsReport) {
	cmd.Println()
	cmd.Println("=== KPI Report ===")
	cmd.Printf("Elapsed: %s\n", r.Elapsed.Round(time.Millisecond))

	if discovered := r.Count(domain.CounterFilesDiscovered); discovered > 0 {
		cmd.Printf("Extraction: %d/%d succeeded (%.0f%%)\n",
			r.Count(domain.CounterExtracted), discovered,
			r.Rate(domain.CounterExtracted, domain.CounterFilesDiscovered))
		cmd.Printf("Summaries:  %d/%d records (%.0f%%)\n",
			r.Count(domain.CounterSummarised), discovered,
			r.Rate(domain.CounterSummarised, domain.CounterFilesDiscovered))
	}

	if planned := r.Count(domain.CounterMovesPlanned); planned > 0 {
		cmd.Printf("Moves: %d planned, %d succeeded, %d failed, %d skipped\n",
			planned,
			r.Count(domain.CounterMovesSucceeded),
			r.Count(domain.CounterMovesFailed),
			r.Count(domain.CounterMovesSkipped))
		if n := r.Count(domain.CounterCollisionsRenamed); n > 0 {
			cmd.Printf("Collisions renamed: %d\n", n)
		}
		if n := r.Count(domain.CounterUnmappedRecords); n > 0 {
			cmd.Printf("Records left in place: %d\n", n)
		}
		if n := r.Count(domain.CounterDirsCreated); n > 0 {
			cmd.Printf("Directories created: %d\n", n)
		}
	}

	if r.APICalls > 0 {
		avg := r.APILatency / time.Duration(r.APICalls)
		cmd.Printf("API: %d calls, avg latency %s, ~%d tokens\n",
			r.APICalls, avg.Round(time.Millisecond), r.Tokens)
		if n := r.Count(domain.CounterPlanRetries); n > 0 {
			cmd.Printf("Plan retries: %d\n", n)
		}
	}

	for _, stage := range stageOrder {
		if d, ok := r.Stages[stage]; ok {
			cmd.Printf("  %-9s %s\n", string(stage)+":", d.Round(time.Millisecond))
		}
	}
}
