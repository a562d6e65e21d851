package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func addPeerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add-peer <ALIAS> <ADDR:PORT>",
		Short: "Save a peer address under an alias",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.saveAlias(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s as %q\n", args[1], args[0])
			return nil
		},
	}
}

func listPeersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list-peers",
		Short: "Print saved peers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.peers()
			if err != nil {
				return err
			}
			list := store.List()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No saved peers.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ALIAS\tADDRESS")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Addr)
			}
			return tw.Flush()
		},
	}
}

func removePeerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-peer <ALIAS>",
		Short: "Delete a saved peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.peers()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", args[0])
			return nil
		},
	}
}
