package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/TheusHen/lanchat/lanchat"
	"github.com/TheusHen/lanchat/lanchat/peers"
)

// app is the state shared by all subcommands, filled in by the root
// command's PersistentPreRunE.
type app struct {
	v      *viper.Viper
	cfg    lanchat.Config
	log    *zap.Logger
	record string

	store *peers.Store
}

func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	def := lanchat.DefaultConfig()

	root := &cobra.Command{
		Use:           "lanchat",
		Short:         "Encrypted peer-to-peer chat on the local network",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default ~/.config/lanchat/config.yaml)")
	flags.String("transport", def.Transport, "byte stream transport: tcp or quic")
	flags.String("peers-file", "", "alias file (default ~/.p2p-chat.json)")
	flags.String("log-level", def.LogLevel, "log level: debug, info, warn, error")
	flags.Bool("acks", def.SendAcks, "acknowledge every received message")
	flags.Uint32("max-frame", def.MaxFrameSize, "reject inbound frames larger than this many bytes (0 = unlimited)")
	flags.Int("discovery-port", def.DiscoveryPort, "UDP port for presence beacons")
	flags.Duration("beacon-interval", def.BeaconInterval, "time between presence beacons")
	flags.Duration("browse-window", def.BrowseWindow, "how long discover listens before listing peers")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		listenCmd(a),
		connectCmd(a),
		discoverCmd(a),
		addPeerCmd(a),
		listPeersCmd(a),
		removePeerCmd(a),
		historyCmd(a),
	)
	return root
}

func (a *app) load(stderr io.Writer) error {
	v := a.v
	if f := v.GetString("config"); f != "" {
		v.SetConfigFile(f)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.config/lanchat")
	}
	v.SetEnvPrefix("LANCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := lanchat.DefaultConfig()
	cfg.Transport = v.GetString("transport")
	cfg.PeersFile = v.GetString("peers-file")
	cfg.LogLevel = v.GetString("log-level")
	cfg.SendAcks = v.GetBool("acks")
	cfg.MaxFrameSize = v.GetUint32("max-frame")
	cfg.DiscoveryPort = v.GetInt("discovery-port")
	cfg.BeaconInterval = v.GetDuration("beacon-interval")
	cfg.BrowseWindow = v.GetDuration("browse-window")
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// newLogger writes human-readable logs to w; chat text goes to stdout.
func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(zapcore.AddSync(w)), lvl)
	return zap.New(core), nil
}

// peers loads the alias file once. A corrupt file is reported and replaced
// by an empty store so chatting still works.
func (a *app) peers() (*peers.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.cfg.PeersFile
	if path == "" {
		p, err := peers.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	s, err := peers.Load(path)
	if errors.Is(err, peers.ErrCorrupt) {
		a.log.Warn("ignoring unreadable peers file", zap.String("path", path), zap.Error(err))
		s, err = peers.New(path), nil
	}
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}
