package commands

import (
	"github.com/spf13/cobra"

	"github.com/TheusHen/lanchat/lanchat"
)

func connectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect <ALIAS|ADDR:PORT>",
		Short: "Chat with a saved or explicit peer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.peers()
			if err != nil {
				return err
			}
			addr, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			return a.dialAndChat(cmd, addr, newLineSource(cmd.InOrStdin()))
		},
	}
	cmd.Flags().StringVar(&a.record, "record", "", "write an LZ4-compressed transcript to this file")
	return cmd
}

func (a *app) dialAndChat(cmd *cobra.Command, addr string, src *lineSource) error {
	ctx := cmd.Context()
	con := newConsole(cmd.OutOrStdout())

	p, err := lanchat.NewPeer(a.cfg, a.log)
	if err != nil {
		return err
	}
	con.infof("Connecting to %s (%s)...", addr, a.cfg.Transport)
	conn, err := p.Dial(ctx, addr)
	if err != nil {
		return err
	}
	rec, err := a.openTranscript()
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer a.closeTranscript(rec)
	_, err = a.runChat(ctx, con, conn, src, rec)
	return err
}
