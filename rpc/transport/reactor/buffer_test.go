package reactor

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"testing"
)

func frame(t testing.TB, body []byte) []byte {
	t.Helper()
	f, err := codec.Encode(body)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return f
}

func drainAll(b *ConnBuffer) [][]byte {
	var out [][]byte
	for body := range b.DrainFrames() {
		out = append(out, append([]byte(nil), body...))
	}
	b.Compact()
	return out
}

// TestPartialDeliveryAnySplit splits one frame at every boundary
func TestPartialDeliveryAnySplit(t *testing.T) {
	body := []byte("SET key some-value")
	wire := frame(t, body)

	for split := 1; split < len(wire); split++ {
		b := NewConnBuffer(0)

		if err := b.OnBytesReceived(wire[:split]); err != nil {
			t.Fatalf("split=%d: first chunk rejected: %v", split, err)
		}
		if got := drainAll(b); len(got) != 0 {
			t.Fatalf("split=%d: decoded %d frames from a partial frame", split, len(got))
		}
		if b.Buffered() != split || b.ReadOffset() != 0 {
			t.Fatalf("split=%d: partial frame not retained (buffered=%d, offset=%d)", split, b.Buffered(), b.ReadOffset())
		}

		if err := b.OnBytesReceived(wire[split:]); err != nil {
			t.Fatalf("split=%d: second chunk rejected: %v", split, err)
		}
		got := drainAll(b)
		if len(got) != 1 || !bytes.Equal(got[0], body) {
			t.Fatalf("split=%d: got %q, want exactly one %q", split, got, body)
		}
		if b.Buffered() != 0 || b.WriteMark() != 0 {
			t.Errorf("split=%d: buffer not empty after draining (buffered=%d, mark=%d)", split, b.Buffered(), b.WriteMark())
		}
	}
}

// TestPartialDeliveryByteByByte delivers a frame one byte per call
func TestPartialDeliveryByteByByte(t *testing.T) {
	body := bytes.Repeat([]byte("ab"), 300)
	wire := frame(t, body)
	b := NewConnBuffer(0)

	var got [][]byte
	for i := range wire {
		if err := b.OnBytesReceived(wire[i : i+1]); err != nil {
			t.Fatalf("byte %d rejected: %v", i, err)
		}
		got = append(got, drainAll(b)...)
	}

	if len(got) != 1 || !bytes.Equal(got[0], body) {
		t.Fatalf("expected one frame of %d bytes, got %d frames", len(body), len(got))
	}
}

// TestDrainPipelined tests N concatenated frames delivered at once
func TestDrainPipelined(t *testing.T) {
	var wire []byte
	var want [][]byte
	for i := 0; i < 50; i++ {
		body := []byte(fmt.Sprintf("request-%d", i))
		want = append(want, body)
		wire = append(wire, frame(t, body)...)
	}

	b := NewConnBuffer(0)
	if err := b.OnBytesReceived(wire); err != nil {
		t.Fatalf("OnBytesReceived: %v", err)
	}

	got := drainAll(b)
	if len(got) != len(want) {
		t.Fatalf("got %d frames, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("frame %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

// TestDrainFramesResumes tests that a fresh drain continues where the last one stopped
func TestDrainFramesResumes(t *testing.T) {
	first := frame(t, []byte("one"))
	second := frame(t, []byte("two"))
	b := NewConnBuffer(0)

	_ = b.OnBytesReceived(append(first, second[:3]...))
	if got := drainAll(b); len(got) != 1 || string(got[0]) != "one" {
		t.Fatalf("first drain: %q", got)
	}

	_ = b.OnBytesReceived(second[3:])
	if got := drainAll(b); len(got) != 1 || string(got[0]) != "two" {
		t.Fatalf("second drain: %q", got)
	}
}

// TestOnBytesReceivedBufferFull tests the hard capacity of the read buffer
func TestOnBytesReceivedBufferFull(t *testing.T) {
	b := NewConnBuffer(0)

	if err := b.OnBytesReceived(make([]byte, codec.MaxFrameLen)); err != nil {
		t.Fatalf("a full frame must fit: %v", err)
	}
	if err := b.OnBytesReceived([]byte{0}); !errors.Is(err, ErrBufferFull) {
		t.Fatalf("expected ErrBufferFull, got %v", err)
	}
	if b.WriteMark() != codec.MaxFrameLen {
		t.Errorf("rejected chunk changed the write mark to %d", b.WriteMark())
	}
}

// TestCompactAfterDrainedPrefix reproduces the 2x2050 byte fragmentation case on the buffer level
func TestCompactAfterDrainedPrefix(t *testing.T) {
	body := bytes.Repeat([]byte{'q'}, 2050)
	wire := append(frame(t, body), frame(t, body)...) // 4108 bytes

	b := NewConnBuffer(0)
	n := copy(b.ReadSpace(), wire)
	if n != codec.MaxFrameLen {
		t.Fatalf("read space is %d bytes, want %d", n, codec.MaxFrameLen)
	}
	b.Commit(n)

	got := drainAll(b)
	if len(got) != 1 {
		t.Fatalf("first read decoded %d frames, want 1", len(got))
	}
	if b.ReadOffset() != 0 || b.Buffered() != 4100-2054 {
		t.Fatalf("partial frame not compacted: offset=%d buffered=%d", b.ReadOffset(), b.Buffered())
	}

	n = copy(b.ReadSpace(), wire[n:])
	if n != 8 {
		t.Fatalf("copied %d remaining bytes, want 8", n)
	}
	b.Commit(n)

	got = drainAll(b)
	if len(got) != 1 || !bytes.Equal(got[0], body) {
		t.Fatalf("second frame not decoded correctly")
	}
	if b.Buffered() != 0 {
		t.Errorf("%d bytes left after second frame", b.Buffered())
	}
}

// TestInvalidFrameClosesBuffer tests the oversize rejection
func TestInvalidFrameClosesBuffer(t *testing.T) {
	b := NewConnBuffer(0)
	_ = b.OnBytesReceived(binary.LittleEndian.AppendUint32(nil, codec.MaxBodyLen+1))

	if got := drainAll(b); len(got) != 0 {
		t.Fatalf("invalid header yielded %d frames", len(got))
	}
	if b.State() != StateClosed {
		t.Errorf("state = %s, want closed (nothing to flush)", b.State())
	}
	if !errors.Is(b.Reason(), ErrInvalidFrame) {
		t.Errorf("reason = %v, want ErrInvalidFrame", b.Reason())
	}
}

// TestInvalidFrameAfterValidFrame tests that frames before the violation are still yielded
func TestInvalidFrameAfterValidFrame(t *testing.T) {
	b := NewConnBuffer(0)
	wire := append(frame(t, []byte("ok")), binary.LittleEndian.AppendUint32(nil, 5000)...)
	wire = append(wire, frame(t, []byte("never"))...)
	_ = b.OnBytesReceived(wire)

	var got [][]byte
	for body := range b.DrainFrames() {
		got = append(got, append([]byte(nil), body...))
		if err := b.EnqueueResponse(body); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	if len(got) != 1 || string(got[0]) != "ok" {
		t.Fatalf("got %q, want only \"ok\"", got)
	}
	if b.State() != StateClosing {
		t.Fatalf("state = %s, want closing while a response is pending", b.State())
	}
	if b.Interest() != Writable {
		t.Errorf("interest = %s, want writable only", b.Interest())
	}
}

// TestWritableInterestFollowsBuffer tests the Writable invariant through partial flushes
func TestWritableInterestFollowsBuffer(t *testing.T) {
	body := []byte("response body")
	total := codec.HeaderLen + len(body)

	for k := 1; k < total; k++ {
		b := NewConnBuffer(0)
		if b.Interest()&Writable != 0 {
			t.Fatal("new buffer must not be writable")
		}

		if err := b.EnqueueResponse(body); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		if b.Interest()&Writable == 0 {
			t.Fatal("enqueue did not set Writable")
		}

		var sent []byte
		sent = append(sent, b.Pending()[:k]...)
		b.AdvanceAfterFlush(k)
		if b.Interest()&Writable == 0 {
			t.Fatalf("k=%d: Writable cleared with %d bytes pending", k, len(b.Pending()))
		}

		sent = append(sent, b.Pending()...)
		b.AdvanceAfterFlush(len(b.Pending()))

		if b.Interest()&Writable != 0 {
			t.Fatalf("k=%d: Writable still set after full flush", k)
		}
		if !bytes.Equal(sent, frame(t, body)) {
			t.Fatalf("k=%d: flushed bytes differ from the framed response", k)
		}
	}
}

// TestEnqueueAfterPartialFlush tests reclaiming flushed bytes when queuing more responses
func TestEnqueueAfterPartialFlush(t *testing.T) {
	b := NewConnBuffer(0)
	_ = b.EnqueueResponse([]byte("first"))
	b.AdvanceAfterFlush(3)

	_ = b.EnqueueResponse([]byte("second"))

	want := append(frame(t, []byte("first"))[3:], frame(t, []byte("second"))...)
	if !bytes.Equal(b.Pending(), want) {
		t.Fatalf("pending = %q, want %q", b.Pending(), want)
	}
}

// TestEnqueueLimits tests oversized responses and the write backlog limit
func TestEnqueueLimits(t *testing.T) {
	b := NewConnBuffer(codec.MaxFrameLen + 10)

	if err := b.EnqueueResponse(make([]byte, codec.MaxBodyLen+1)); !errors.Is(err, codec.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}
	if len(b.Pending()) != 0 || b.Interest()&Writable != 0 {
		t.Fatal("rejected response changed the write buffer")
	}

	if err := b.EnqueueResponse(make([]byte, codec.MaxBodyLen)); err != nil {
		t.Fatalf("a full frame must fit: %v", err)
	}
	if err := b.EnqueueResponse(make([]byte, 7)); !errors.Is(err, ErrWriteBacklogFull) {
		t.Fatalf("expected ErrWriteBacklogFull, got %v", err)
	}
}

// TestClosingWaitsForFlush tests Closing -> Closed once the write buffer drains
func TestClosingWaitsForFlush(t *testing.T) {
	b := NewConnBuffer(0)
	_ = b.EnqueueResponse([]byte("bye"))

	b.MarkClosing(ErrPeerClosed)
	if b.State() != StateClosing {
		t.Fatalf("state = %s, want closing", b.State())
	}
	if b.Interest() != Writable {
		t.Fatalf("interest = %s, want writable only", b.Interest())
	}

	b.AdvanceAfterFlush(2)
	if b.State() != StateClosing {
		t.Fatalf("closed before the buffer was flushed")
	}

	b.AdvanceAfterFlush(len(b.Pending()))
	if b.State() != StateClosed {
		t.Fatalf("state = %s, want closed", b.State())
	}
	if !errors.Is(b.Reason(), ErrPeerClosed) {
		t.Errorf("reason = %v", b.Reason())
	}
}

// TestAbortDropsPending tests the hard close path
func TestAbortDropsPending(t *testing.T) {
	b := NewConnBuffer(0)
	_ = b.EnqueueResponse([]byte("lost"))

	b.Abort(errors.New("boom"))
	if b.State() != StateClosed || b.Interest() != 0 || len(b.Pending()) != 0 {
		t.Fatalf("abort left state=%s interest=%s pending=%d", b.State(), b.Interest(), len(b.Pending()))
	}

	// the first reason wins
	b.Abort(errors.New("second"))
	if b.Reason().Error() != "boom" {
		t.Errorf("reason = %v", b.Reason())
	}
}
