package commands

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TheusHen/lanchat/lanchat/discovery"
	"github.com/TheusHen/lanchat/lanchat/discovery/memory"
)

func discoverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find peers on the local network and chat with one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			con := newConsole(cmd.OutOrStdout())
			src := newLineSource(cmd.InOrStdin())

			store := memory.New()
			browseCtx, stopBrowse := context.WithCancel(ctx)
			defer stopBrowse()
			browseErr := make(chan error, 1)
			go func() {
				addr := net.JoinHostPort("", strconv.Itoa(a.cfg.DiscoveryPort))
				browseErr <- discovery.Browse(browseCtx, addr, store, a.log)
			}()

			con.infof("Searching for peers...")
			found, err := waitForPeers(ctx, store, a.cfg.BrowseWindow, browseErr, con)
			if err != nil {
				return err
			}
			stopBrowse()

			for i, info := range found {
				con.infof("%d) %s", i+1, info.Addr)
			}
			choice, err := pick(ctx, con, src, len(found))
			if err != nil {
				return err
			}
			target := found[choice].Addr.String()

			con.ask("Save as alias (leave empty to skip): ")
			alias, err := src.ReadLine(ctx)
			if err != nil {
				return err
			}
			if alias = strings.TrimSpace(alias); alias != "" {
				if err := a.saveAlias(alias, target); err != nil {
					a.log.Warn("alias not saved", zap.String("alias", alias), zap.Error(err))
					con.errorf("Alias not saved: %v", err)
				} else {
					con.infof("Saved %s as %q", target, alias)
				}
			}
			return a.dialAndChat(cmd, target, src)
		},
	}
	cmd.Flags().StringVar(&a.record, "record", "", "write an LZ4-compressed transcript to this file")
	return cmd
}

// waitForPeers polls the store every window until at least one peer shows up.
func waitForPeers(ctx context.Context, store *memory.Store, window time.Duration, browseErr <-chan error, con *console) ([]discovery.AddrInfo, error) {
	ticker := time.NewTicker(window)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-browseErr:
			if err == nil {
				err = ctx.Err()
			}
			return nil, fmt.Errorf("listening for beacons: %w", err)
		case <-ticker.C:
			found, err := store.List()
			if err != nil {
				return nil, err
			}
			if len(found) > 0 {
				return found, nil
			}
			con.infof("No peers found yet, still searching...")
		}
	}
}

func pick(ctx context.Context, con *console, src *lineSource, n int) (int, error) {
	for {
		con.ask(fmt.Sprintf("Select a peer [1-%d]: ", n))
		line, err := src.ReadLine(ctx)
		if err != nil {
			return 0, err
		}
		i, err := strconv.Atoi(strings.TrimSpace(line))
		if err == nil && i >= 1 && i <= n {
			return i - 1, nil
		}
		con.errorf("Please enter a number between 1 and %d.", n)
	}
}

func (a *app) saveAlias(alias, addr string) error {
	store, err := a.peers()
	if err != nil {
		return err
	}
	if err := store.Add(alias, addr); err != nil {
		return err
	}
	return store.Save()
}
