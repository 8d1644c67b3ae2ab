package mctoolscmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/worker"
)

// target flags, used instead of the config when a host is given
var (
	statusTarget = config.DefaultTargetConfig()
	statusWait   time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every target once and print a table",
	Example: `  mcmonitor status
  mcmonitor status --host play.example.com --protocol query
  mcmonitor status --host 127.0.0.1 --protocol rcon --password secret --command list`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, workers, err := statusTargets()
		if err != nil {
			return err
		}
		monitor, err := worker.NewMonitor(targets, workers)
		if err != nil {
			return err
		}
		defer monitor.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), statusWait)
		defer cancel()
		renderResults(cmd.OutOrStdout(), monitor.ProbeOnce(ctx))
		return nil
	},
}

func statusTargets() ([]config.Target, int, error) {
	if statusTarget.Host == "" {
		cfg, targets, err := worker.LoadTargets(mainConfigPath())
		return targets, cfg.Workers, err
	}
	if statusTarget.Name == "" {
		statusTarget.Name = statusTarget.Host
	}
	target, err := config.NewTarget(statusTarget, worker.DefaultInterval)
	if err != nil {
		return nil, 0, err
	}
	return []config.Target{target}, 1, nil
}

func renderResults(w io.Writer, results []worker.Result) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader([]string{"Target", "Protocol", "State", "Players", "Version", "Latency", "Info"})
	tw.SetBorder(true)
	tw.SetAutoWrapText(false)

	for _, res := range results {
		players := "-"
		latency := "-"
		info := res.MOTD
		if res.Output != "" {
			info = res.Output
		}
		if res.Err != nil {
			info = res.Err.Error()
		} else {
			players = fmt.Sprintf("%d/%d", res.Online, res.Max)
			latency = res.Latency.Round(time.Millisecond).String()
		}
		tw.Append([]string{
			res.Target,
			res.Protocol,
			res.State.String(),
			players,
			res.Version,
			latency,
			strings.ReplaceAll(info, "\n", " "),
		})
	}
	tw.Render()
}

func init() {
	flags := statusCmd.Flags()
	flags.StringVar(&statusTarget.Host, "host", "", "probe this host instead of the configured targets")
	flags.IntVar(&statusTarget.Port, "port", 0, "port, the protocol's default when zero")
	flags.StringVar(&statusTarget.Name, "name", "", "name shown in the table, the host when empty")
	flags.StringVar(&statusTarget.Protocol, "protocol", statusTarget.Protocol, "ping, query or rcon")
	flags.StringVar(&statusTarget.Password, "password", "", "rcon password")
	flags.StringVar(&statusTarget.Command, "command", "", "rcon command, list when empty")
	flags.StringVar(&statusTarget.Format, "format", statusTarget.Format, "replace, remove or raw")
	flags.StringVar(&statusTarget.Timeout, "timeout", "5s", "timeout of a single probe")
	flags.DurationVar(&statusWait, "wait", time.Minute, "how long to wait for all probes")
	rootCmd.AddCommand(statusCmd)
}
