package commands

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/TheusHen/lanchat/lanchat/history"
	"github.com/TheusHen/lanchat/lanchat/protocol"
	"github.com/TheusHen/lanchat/lanchat/session"
)

// openTranscript opens the --record file once for the whole command, so
// every chat the command runs lands in the same transcript. It returns nil
// when recording is off.
func (a *app) openTranscript() (*history.Recorder, error) {
	if a.record == "" {
		return nil, nil
	}
	return history.Create(a.record)
}

func (a *app) closeTranscript(rec *history.Recorder) {
	if rec == nil {
		return
	}
	if err := rec.Close(); err != nil {
		a.log.Warn("transcript incomplete", zap.String("path", a.record), zap.Error(err))
	}
}

// runChat drives one established connection on the console. It reports
// whether the local user ended the chat, as opposed to the peer leaving.
// rec may be nil.
func (a *app) runChat(ctx context.Context, con *console, conn *session.Conn, src *lineSource, rec *history.Recorder) (localEnd bool, err error) {
	con.infof("Connected to %s", conn.RemoteAddr())
	con.infof("Session fingerprint: %s", conn.Fingerprint())
	con.infof("Type a message and press Enter. %s to leave.", session.QuitCommand)

	var sink session.Sink = con
	if rec != nil {
		sink = session.MultiSink{con, rec}
	}

	// Released as soon as the chat winds down. Lines typed after that go to
	// the next reader.
	in := src.borrow()
	defer in.Close()

	con.prompt()
	opts := session.ChatOptions{
		SendAcks: a.cfg.SendAcks,
		OnClose:  func() { _ = in.Close() },
	}
	err = conn.Chat(ctx, in, sink, opts)
	switch {
	case err == nil:
		con.infof("Chat ended.")
		return true, nil
	case errors.Is(err, protocol.ErrConnectionClosed):
		con.infof("Peer disconnected.")
		return false, nil
	case errors.Is(err, context.Canceled):
		return true, nil
	default:
		a.log.Warn("chat aborted", zap.String("conn", conn.ID().String()), zap.Error(err))
		con.errorf("Chat aborted: %v", err)
		return false, err
	}
}
