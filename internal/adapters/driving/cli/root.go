// Package cli implements the docfold command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/core/ports/driving"
	"github.com/docfold/docfold/internal/logger"
)

const version = "0.1.0"

// PipelineOptions carries the wiring choices a command resolved from
// its flags and the config store.
type PipelineOptions struct {
	// DestRoot is the destination root for organize runs. Empty for
	// scan-only pipelines.
	DestRoot string

	// Workers is the summarisation concurrency. Zero means default.
	Workers int

	// Store selects the record store backend: "memory" or "sqlite".
	Store string
}

// OrganiserBuilder wires a pipeline for one command invocation.
type OrganiserBuilder func(opts PipelineOptions) (driving.Organiser, error)

var (
	buildOrganiser OrganiserBuilder
	configStore    driven.ConfigStore
	verboseFlag    bool
)

// SetOrganiserBuilder sets the pipeline factory used by scan and
// organize.
func SetOrganiserBuilder(b OrganiserBuilder) {
	buildOrganiser = b
}

// SetConfigStore sets the configuration store used by the commands.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

var rootCmd = &cobra.Command{
	Use:   "docfold",
	Short: "AI-assisted document organiser",
	Long: `docfold scans a directory of documents, summarises them with
embedding-ranked sentence selection, asks an LLM for a better folder
structure, and applies the reorganisation after your confirmation.

Typical workflow:
  docfold scan ~/Documents/inbox
  docfold organize --dest ~/Documents/organised`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
