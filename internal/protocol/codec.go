// Package protocol implements the framed wire format shared by the backend
// stores, the frontend routers, and the client: a 4-byte big-endian length
// prefix followed by a UTF-8 JSON object payload.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrameBytes bounds payload allocation against hostile or buggy
// peers. Stores may configure a different limit.
const DefaultMaxFrameBytes = 4 << 20

// ErrFraming marks malformed or oversized frames. The dispatcher is allowed
// to close the connection when it sees this.
var ErrFraming = errors.New("framing error")

const lenPrefixSize = 4

// WriteFrame writes one length-prefixed payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var prefix [lenPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one length-prefixed payload. It returns io.EOF unwrapped
// when the connection closes cleanly between frames, and ErrFraming when the
// declared length is zero or exceeds maxBytes.
func ReadFrame(r io.Reader, maxBytes int) ([]byte, error) {
	var prefix [lenPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: short header read: %v", ErrFraming, err)
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n == 0 || int64(n) > int64(maxBytes) {
		return nil, fmt.Errorf("%w: invalid payload length %d", ErrFraming, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: short payload read: %v", ErrFraming, err)
	}
	return payload, nil
}

// Encode marshals v and writes it as one frame.
func Encode(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return WriteFrame(w, payload)
}

// Decode reads one frame and unmarshals it into v. A payload that is not a
// well-formed JSON object is a framing error.
func Decode(r io.Reader, maxBytes int, v any) error {
	payload, err := ReadFrame(r, maxBytes)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: invalid json payload: %v", ErrFraming, err)
	}
	return nil
}
