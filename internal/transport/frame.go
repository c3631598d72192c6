package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Frames are [uint32 big-endian length][UTF-8 JSON payload]. The 4-byte
// prefix caps a payload at ^uint32(0) bytes; anything observed on this
// channel is far below that.

const frameHeaderLen = 4

var errFrameTooLarge = errors.New("frame exceeds uint32 length prefix")

// writeFrame writes the length prefix and payload as a single Write call so
// concurrent senders never interleave partial frames.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > int(^uint32(0)) {
		return errFrameTooLarge
	}
	buf := make([]byte, frameHeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[frameHeaderLen:], payload)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// frameBuffer reassembles frames from arbitrarily chunked reads. Feed appends
// received bytes; Next pops the earliest complete payload, or nil when more
// bytes are needed.
type frameBuffer struct {
	buf      []byte
	expected int // -1 while waiting for a header
}

func newFrameBuffer() *frameBuffer {
	return &frameBuffer{expected: -1}
}

func (fb *frameBuffer) Feed(chunk []byte) {
	fb.buf = append(fb.buf, chunk...)
}

func (fb *frameBuffer) Next() []byte {
	if fb.expected < 0 {
		if len(fb.buf) < frameHeaderLen {
			return nil
		}
		fb.expected = int(binary.BigEndian.Uint32(fb.buf[:frameHeaderLen]))
		fb.buf = fb.buf[frameHeaderLen:]
	}
	if len(fb.buf) < fb.expected {
		return nil
	}
	payload := fb.buf[:fb.expected]
	fb.buf = fb.buf[fb.expected:]
	fb.expected = -1
	return payload
}
