package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/source"
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Save a test case in another format (.xlsx, .yaml, .csv)",
	Long: `Loads a test case from any supported source and writes it to out. Steps
are renumbered from 1 in the output.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, _, err := buildRunner(cfg, false)
		if err != nil {
			return err
		}
		tc, err := r.LoadCase(args[0])
		if err != nil {
			return err
		}
		if err := source.SaveTestCase(args[1], tc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d step(s) to %s\n", len(tc.Steps), args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
