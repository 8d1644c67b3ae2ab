package mctoolscmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/OwenCochell/mctools/config"
	"github.com/OwenCochell/mctools/conn"
	"github.com/OwenCochell/mctools/core"
	"github.com/OwenCochell/mctools/rcon"
)

var rconClient = config.DefaultClientConfig()

var rconCmd = &cobra.Command{
	Use:   "rcon [command]",
	Short: "Run a single command over RCON and print its output",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, err := rconClient.TimeoutDuration()
		if err != nil {
			return err
		}
		mode, err := rconClient.FormatMode()
		if err != nil {
			return err
		}
		client := rcon.NewClient(rconClient.Host, rconClient.Port,
			rcon.WithTransportOptions(
				conn.WithTimeout(timeout),
				conn.WithProxyProtocol(rconClient.SendProxyProtocol),
			),
			rcon.WithLogger(core.ComponentLogger("rcon")),
			rcon.WithFormatMode(mode),
		)
		defer client.Stop()

		if err := client.Authenticate(cmd.Context(), rconClient.Password); err != nil {
			return err
		}
		out, err := client.Command(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	flags := rconCmd.Flags()
	flags.StringVar(&rconClient.Host, "host", rconClient.Host, "server host")
	flags.IntVar(&rconClient.Port, "port", rcon.DefaultPort, "rcon port")
	flags.StringVar(&rconClient.Password, "password", "", "rcon password")
	flags.StringVar(&rconClient.Format, "format", rconClient.Format, "replace, remove or raw")
	flags.StringVar(&rconClient.Timeout, "timeout", "10s", "connection timeout")
	flags.BoolVar(&rconClient.SendProxyProtocol, "proxy-protocol", false, "send a PROXY protocol header after connecting")
	rootCmd.AddCommand(rconCmd)
}
