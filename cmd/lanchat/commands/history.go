package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TheusHen/lanchat/lanchat/history"
)

func historyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <FILE>",
		Short: "Print a transcript recorded with --record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := history.ReadFile(args[0])
			con := newConsole(cmd.OutOrStdout())
			for _, e := range entries {
				con.entry(e)
			}
			if err != nil {
				a.log.Warn("transcript damaged", zap.String("path", args[0]), zap.Error(err))
				return err
			}
			return nil
		},
	}
}
