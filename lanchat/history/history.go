// Package history records chat transcripts as LZ4-compressed JSON lines.
//
// A Recorder is a session.Sink, so it can sit next to the console in a
// session.MultiSink. Every entry is flushed as its own LZ4 block, so a
// transcript cut short by a crash still reads back up to the last message.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/TheusHen/lanchat/lanchat/session"
	"github.com/pierrec/lz4/v4"
)

var (
	ErrClosed  = errors.New("history: recorder closed")
	ErrCorrupt = errors.New("history: corrupt transcript")
)

// Entry is one recorded line.
type Entry struct {
	Time      time.Time `json:"time"`
	Direction string    `json:"direction"`
	Text      string    `json:"text"`
}

type Recorder struct {
	mu     sync.Mutex
	out    io.WriteCloser
	zw     *lz4.Writer
	enc    *json.Encoder
	err    error
	closed bool
}

// Create truncates or creates path (mode 0600) and records into it.
func Create(path string) (*Recorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return NewRecorder(f), nil
}

// NewRecorder records into w. Close closes w.
func NewRecorder(w io.WriteCloser) *Recorder {
	zw := lz4.NewWriter(w)
	_ = zw.Apply(lz4.CompressionLevelOption(lz4.Fast))
	return &Recorder{out: w, zw: zw, enc: json.NewEncoder(zw)}
}

// Deliver appends m. The first write error is kept and reported by Err and
// Close; later messages are dropped.
func (r *Recorder) Deliver(m session.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}
	e := Entry{Time: m.Time, Direction: m.Direction.String(), Text: m.Text}
	if err := r.enc.Encode(e); err != nil {
		r.err = err
		return
	}
	r.err = r.zw.Flush()
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.closed = true
	zerr := r.zw.Close()
	cerr := r.out.Close()
	switch {
	case r.err != nil:
		return r.err
	case zerr != nil:
		return zerr
	default:
		return cerr
	}
}

// Read decodes a transcript. On a damaged or truncated stream it returns
// the entries decoded so far together with an ErrCorrupt error.
func Read(rd io.Reader) ([]Entry, error) {
	dec := json.NewDecoder(lz4.NewReader(rd))
	var out []Entry
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = append(out, e)
	}
}

func ReadFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
