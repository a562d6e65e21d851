package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
)

const lengthSize = 4

var (
	ErrConnectionClosed  = errors.New("protocol: connection closed")
	ErrFrameTooLarge     = errors.New("protocol: frame payload too large")
	ErrUnexpectedMessage = errors.New("protocol: unexpected message")
)

// WriteFrame writes the length prefix and payload as a single buffer,
// retrying short writes until the whole frame is out. Writing to a closed
// stream yields ErrConnectionClosed.
func WriteFrame(w io.Writer, payload []byte) error {
	if uint64(len(payload)) > math.MaxUint32 {
		return ErrFrameTooLarge
	}
	buf := make([]byte, lengthSize+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[lengthSize:], payload)
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return closedErr(err)
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		buf = buf[n:]
	}
	return nil
}

// ReadFrame reads one frame. A stream that ends anywhere inside a frame
// yields ErrConnectionClosed and never a partial payload. limit bounds the
// accepted payload length; zero means unlimited.
func ReadFrame(r io.Reader, limit uint32) ([]byte, error) {
	var lenBuf [lengthSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, closedErr(err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if limit > 0 && n > limit {
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, limit)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, closedErr(err)
	}
	return payload, nil
}

// WriteMessage encodes m and writes it as one frame.
func WriteMessage(w io.Writer, m Message) error {
	b, err := Encode(m)
	if err != nil {
		return err
	}
	return WriteFrame(w, b)
}

// ReadMessage reads one frame and decodes it.
func ReadMessage(r io.Reader, limit uint32) (Message, error) {
	b, err := ReadFrame(r, limit)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

func closedErr(err error) error {
	switch {
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return ErrConnectionClosed
	case errors.Is(err, io.ErrClosedPipe), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %v", ErrConnectionClosed, err)
	default:
		return err
	}
}
