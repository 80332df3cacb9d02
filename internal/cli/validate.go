package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/config"
	"github.com/fjglira/bugzero/internal/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the bugzero.yaml configuration file",
	Long: `Loads the configuration file, checks it for missing required fields and
invalid values, and tries to load the translation table it points to.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		log.Debugf("Loaded config: %+v", cfg)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Configuration file %q is valid.\n", cfgFile)

		table, err := source.LoadTable(cfg.Translation)
		if err != nil {
			log.WithError(err).Warn("Translation table cannot be loaded")
			fmt.Fprintf(out, "Translation table %s: not usable\n", cfg.Translation.Path)
			return nil
		}
		fmt.Fprintf(out, "Translation table %s: %d command(s)\n", cfg.Translation.Path, table.Len())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
