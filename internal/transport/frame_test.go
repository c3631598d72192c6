package transport

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"command":"git","action":"clone_repo"}`)

	require.NoError(t, writeFrame(&buf, payload))

	raw := buf.Bytes()
	require.GreaterOrEqual(t, len(raw), frameHeaderLen)
	assert.Equal(t, uint32(len(payload)), binary.BigEndian.Uint32(raw[:frameHeaderLen]))
	assert.Equal(t, payload, raw[frameHeaderLen:])
}

func TestWriteFrameSingleWrite(t *testing.T) {
	// The header and payload must land in one Write call so concurrent
	// senders never interleave partial frames.
	w := &countingWriter{}
	require.NoError(t, writeFrame(w, []byte(`{}`)))
	assert.Equal(t, 1, w.calls)
}

type countingWriter struct {
	calls int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.calls++
	return len(p), nil
}

func TestFrameBufferSplitHeader(t *testing.T) {
	payload := []byte(`{"result":"success"}`)
	var wire bytes.Buffer
	require.NoError(t, writeFrame(&wire, payload))
	raw := wire.Bytes()

	fb := newFrameBuffer()
	// First two bytes of the header alone must not produce a frame.
	fb.Feed(raw[:2])
	assert.Nil(t, fb.Next())

	fb.Feed(raw[2:])
	assert.Equal(t, payload, fb.Next())
	assert.Nil(t, fb.Next())
}

func TestFrameBufferMultipleFramesPerChunk(t *testing.T) {
	var wire bytes.Buffer
	first := []byte(`{"action":"clone_repo"}`)
	second := []byte(`{"action":"read_py_files"}`)
	require.NoError(t, writeFrame(&wire, first))
	require.NoError(t, writeFrame(&wire, second))

	fb := newFrameBuffer()
	fb.Feed(wire.Bytes())

	assert.Equal(t, first, fb.Next())
	assert.Equal(t, second, fb.Next())
	assert.Nil(t, fb.Next())
}

func TestFrameBufferLargePayloadChunked(t *testing.T) {
	// A 10 MiB payload arriving in 4096-byte reads must reassemble exactly.
	payload := bytes.Repeat([]byte("x"), 10<<20)
	var wire bytes.Buffer
	require.NoError(t, writeFrame(&wire, payload))
	raw := wire.Bytes()

	fb := newFrameBuffer()
	var got []byte
	for off := 0; off < len(raw); off += 4096 {
		end := off + 4096
		if end > len(raw) {
			end = len(raw)
		}
		fb.Feed(raw[off:end])
		if p := fb.Next(); p != nil {
			got = p
		}
	}
	require.NotNil(t, got)
	assert.Equal(t, len(payload), len(got))
	assert.True(t, bytes.Equal(payload, got))
}

func TestFrameBufferEmptyPayload(t *testing.T) {
	var wire bytes.Buffer
	require.NoError(t, writeFrame(&wire, []byte{}))

	fb := newFrameBuffer()
	fb.Feed(wire.Bytes())
	got := fb.Next()
	require.NotNil(t, got)
	assert.Len(t, got, 0)
}
