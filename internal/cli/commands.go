package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the commands of the translation table",
	Args:  cobra.NoArgs,
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

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "COMMAND\tTEMPLATE")
		for _, name := range table.Commands() {
			tmpl, _ := table.Resolve(name)
			fmt.Fprintf(tw, "%s\t%s\n", name, tmpl)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
