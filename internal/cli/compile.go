package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile <case>",
	Short: "Print the actions a test case compiles to, without running them",
	Args:  cobra.ExactArgs(1),
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
		plan, err := r.Prepare(table, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Test case: %s (%s)\n", plan.Case.Name, plan.Case.Source)
		for i, a := range plan.Actions {
			fmt.Fprintf(out, "%3d. [step %d] %s\n", i+1, a.StepNumber, a.Text)
		}
		if len(plan.Skipped) > 0 {
			fmt.Fprintln(out, "Skipped (command not in translation table):")
			for _, step := range plan.Skipped {
				fmt.Fprintf(out, "  step %d: %s\n", step.Number, step.Command)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
