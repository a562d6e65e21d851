package commands

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// lineSource owns the single reader of stdin. Chats and prompts borrow it
// in turn, so a chat that ended while its input goroutine was blocked does
// not swallow the next line typed.
type lineSource struct {
	lines chan string
	done  chan struct{}
	err   error
}

func newLineSource(r io.Reader) *lineSource {
	s := &lineSource{lines: make(chan string), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadString('\n')
			if line != "" {
				s.lines <- line
			}
			if err != nil {
				if err != io.EOF {
					s.err = err
				}
				return
			}
		}
	}()
	return s
}

// ReadLine returns the next line without its newline, or io.EOF once the
// input is exhausted.
func (s *lineSource) ReadLine(ctx context.Context) (string, error) {
	select {
	case line := <-s.lines:
		return strings.TrimRight(line, "\r\n"), nil
	case <-s.done:
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Exhausted reports whether the input has ended.
func (s *lineSource) Exhausted() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// borrow returns a reader for one chat. Closing it makes pending and later
// reads return io.EOF without consuming input.
func (s *lineSource) borrow() *borrowed {
	return &borrowed{src: s, closed: make(chan struct{})}
}

type borrowed struct {
	src    *lineSource
	closed chan struct{}
	once   sync.Once
	buf    string
}

// Read serves the rest of a partly read line first, so a line is never
// split across readers. Otherwise a closed reader takes no new line, even
// when one is ready.
func (b *borrowed) Read(p []byte) (int, error) {
	if b.buf == "" {
		select {
		case <-b.closed:
			return 0, io.EOF
		default:
		}
		select {
		case line := <-b.src.lines:
			b.buf = line
		case <-b.src.done:
			if b.src.err != nil {
				return 0, b.src.err
			}
			return 0, io.EOF
		case <-b.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, b.buf)
	b.buf = b.buf[n:]
	return n, nil
}

func (b *borrowed) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}
