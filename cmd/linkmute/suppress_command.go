package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"linkmute/internal/ipc"
)

func newSuppressCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "suppress",
		Short: "Ask the daemon to re-check and disable the interface now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Suppress(reason)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				} else if resp.Triggered {
					fmt.Fprintln(stdout, "Suppression triggered")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "manual", "Trigger reason recorded in the daemon log")
	return cmd
}
