package mctoolscmd

import (
	"github.com/spf13/cobra"

	"github.com/OwenCochell/mctools/worker"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the monitor and serve its metrics",
	Long: `Run probes every configured target on its interval and serves the results
as prometheus metrics on /metrics. Send SIGHUP to hand the metrics listener over
to a new process when hot swap is enabled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return worker.RunMonitor(mainConfigPath(), version)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
