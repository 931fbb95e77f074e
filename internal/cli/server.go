package cli

import (
	"github.com/spf13/cobra"
)

func heartbeatCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Print the server heartbeat in nanoseconds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			beat, err := client.Heartbeat(cmd.Context())
			if err != nil {
				return err
			}
			return rt.print(map[string]int64{"heartbeat": beat})
		},
	}
}

func versionCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the Chroma server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			v, err := client.Version(cmd.Context())
			if err != nil {
				return err
			}
			return rt.print(map[string]string{"version": v})
		},
	}
}

func resetCmd(rt *runtime) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every collection and embedding on the server",
		Long: `Reset wipes the database. The server must run with ALLOW_RESET=TRUE.
Pass --yes to confirm.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return cmd.Help()
			}
			client, err := rt.client(cmd)
			if err != nil {
				return err
			}
			ok, err := client.Reset(cmd.Context())
			if err != nil {
				return err
			}
			return rt.print(map[string]bool{"reset": ok})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}
