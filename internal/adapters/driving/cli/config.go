package cli

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View and change docfold settings.

Keys use dot notation, for example:
  llm.provider            openai or ollama
  llm.model               model name for plan generation
  embedding.provider      openai or ollama
  embedding.model         model name for summarisation
  scan.workers            summarisation concurrency
  store.backend           memory or sqlite
  dest.root               default destination root for organize
  summary.max_sentences   sentences kept per document
  summary.min_similarity  relevance floor for summary selection`,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	value, ok := configStore.Get(args[0])
	if !ok {
		cmd.Printf("%s is not set\n", args[0])
		return nil
	}
	cmd.Printf("%v\n", value)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	key, raw := args[0], args[1]
	if err := configStore.Set(key, parseConfigValue(raw)); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", key, raw)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}
	cmd.Println(configStore.Path())
	return nil
}

// parseConfigValue keeps TOML types sensible: numbers and the words
// true/false are stored typed, everything else as a string.
func parseConfigValue(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if raw == "true" || raw == "false" {
		return raw == "true"
	}
	return raw
}
