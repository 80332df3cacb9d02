package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/translation"
)

var checkCmd = &cobra.Command{
	Use:   "check <case>...",
	Short: "Check test cases against the translation table",
	Long: `Reports steps whose command is unknown, that lack a locator the command
needs, or that lack a value the command needs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, _, err := buildRunner(cfg, false)
		if err != nil {
			return err
		}
		table, err := r.LoadTable()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		problems := 0
		for _, path := range args {
			tc, err := r.LoadCase(path)
			if err != nil {
				return err
			}
			errs := translation.ValidateCase(tc, table)
			if len(errs) == 0 {
				fmt.Fprintf(out, "%s: OK (%d steps)\n", path, len(tc.Steps))
				continue
			}
			for _, e := range errs {
				fmt.Fprintln(out, e)
			}
			problems += len(errs)
		}
		if problems > 0 {
			return fmt.Errorf("%d problem(s) found", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
