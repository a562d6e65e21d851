package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TheusHen/lanchat/lanchat"
	"github.com/TheusHen/lanchat/lanchat/discovery"
)

func listenCmd(a *app) *cobra.Command {
	var noAnnounce bool
	cmd := &cobra.Command{
		Use:   "listen <ADDR:PORT>",
		Short: "Wait for peers and chat with one at a time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			con := newConsole(cmd.OutOrStdout())

			p, err := lanchat.NewPeer(a.cfg, a.log)
			if err != nil {
				return err
			}
			if err := p.Listen(args[0]); err != nil {
				return err
			}
			defer p.Close()
			con.infof("Listening on %s (%s)", p.ListenAddr(), a.cfg.Transport)

			if !noAnnounce {
				ann := &discovery.Announcer{
					Port:     p.ListenPort(),
					Target:   fmt.Sprintf("255.255.255.255:%d", a.cfg.DiscoveryPort),
					Interval: a.cfg.BeaconInterval,
					Logger:   a.log,
				}
				go func() {
					if err := ann.Run(ctx); err != nil {
						a.log.Warn("presence announcements stopped", zap.Error(err))
					}
				}()
			}

			rec, err := a.openTranscript()
			if err != nil {
				return err
			}
			defer a.closeTranscript(rec)

			src := newLineSource(cmd.InOrStdin())
			for {
				con.infof("Waiting for a peer...")
				conn, err := p.Accept(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					if errors.Is(err, lanchat.ErrHandshakeFailed) {
						a.log.Warn("dropping connection", zap.Error(err))
						continue
					}
					return err
				}
				localEnd, err := a.runChat(ctx, con, conn, src, rec)
				if localEnd || ctx.Err() != nil || src.Exhausted() {
					return nil
				}
				if err != nil {
					a.log.Debug("waiting for the next peer", zap.Error(err))
				}
			}
		},
	}
	cmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "do not broadcast presence beacons")
	cmd.Flags().StringVar(&a.record, "record", "", "write an LZ4-compressed transcript of every chat to this file")
	return cmd
}
