package cli

import (
	"github.com/spf13/cobra"

	"github.com/fjglira/bugzero/internal/history"
	"github.com/fjglira/bugzero/internal/metrics"
	"github.com/fjglira/bugzero/internal/render"
	"github.com/fjglira/bugzero/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve past run reports over HTTP",
	Long: `Serves the run history: GET /runs lists runs as JSON, GET /runs/{id}
renders one run as HTML and GET /runs/{id}/{format} in any report format.
/metrics reports the run and step counts of the stored history together
with Go runtime and process metrics.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		writer, err := render.NewWriter(cfg.Report)
		if err != nil {
			return err
		}
		rec := metrics.New()
		rec.RegisterRuntime()
		srv := server.New(store, writer, rec, log)
		if err := srv.SeedMetrics(cmd.Context()); err != nil {
			return err
		}
		return srv.ListenAndServe(cmd.Context(), serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "127.0.0.1:8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
