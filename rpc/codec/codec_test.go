package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

// TestRoundTrip checks that every encodable body decodes back to itself
func TestRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 7, 255, 2050, MaxBodyLen - 1, MaxBodyLen}

	for _, size := range sizes {
		body := bytes.Repeat([]byte{'x'}, size)

		frame, err := Encode(body)
		if err != nil {
			t.Fatalf("Encode(%d bytes) failed: %v", size, err)
		}
		if len(frame) != HeaderLen+size {
			t.Fatalf("Encode(%d bytes) produced %d bytes", size, len(frame))
		}

		got, next, status := TryDecode(frame, 0)
		if status != Complete {
			t.Fatalf("TryDecode(%d bytes) status = %s, want complete", size, status)
		}
		if next != HeaderLen+size {
			t.Errorf("TryDecode(%d bytes) next = %d, want %d", size, next, HeaderLen+size)
		}
		if !bytes.Equal(got, body) {
			t.Errorf("TryDecode(%d bytes) returned a different body", size)
		}
	}
}

// TestEncodeRejectsOversizedBody tests the MaxBodyLen boundary on the encoding side
func TestEncodeRejectsOversizedBody(t *testing.T) {
	_, err := Encode(make([]byte, MaxBodyLen+1))
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	dst := []byte("keep")
	out, err := AppendFrame(dst, make([]byte, MaxBodyLen+1))
	if err == nil {
		t.Fatal("AppendFrame accepted an oversized body")
	}
	if !bytes.Equal(out, []byte("keep")) {
		t.Errorf("AppendFrame modified dst on failure: %q", out)
	}
}

// TestTryDecodeIncomplete tests every truncation point of a single frame
func TestTryDecodeIncomplete(t *testing.T) {
	frame, _ := Encode([]byte("hello world"))

	for cut := 0; cut < len(frame); cut++ {
		body, next, status := TryDecode(frame[:cut], 0)
		if status != Incomplete {
			t.Fatalf("cut=%d: status = %s, want incomplete", cut, status)
		}
		if next != 0 || body != nil {
			t.Fatalf("cut=%d: incomplete decode consumed bytes (next=%d)", cut, next)
		}
	}
}

// TestTryDecodeInvalid tests that a header above MaxBodyLen is rejected before any body arrives
func TestTryDecodeInvalid(t *testing.T) {
	header := binary.LittleEndian.AppendUint32(nil, MaxBodyLen+1)

	_, next, status := TryDecode(header, 0)
	if status != Invalid {
		t.Fatalf("status = %s, want invalid", status)
	}
	if next != 0 {
		t.Errorf("invalid decode advanced offset to %d", next)
	}
}

// TestTryDecodePipelined tests decoding several frames that share one buffer
func TestTryDecodePipelined(t *testing.T) {
	var buf []byte
	bodies := [][]byte{[]byte("a"), {}, []byte("heloooo"), bytes.Repeat([]byte{'z'}, 300)}
	for _, b := range bodies {
		buf, _ = AppendFrame(buf, b)
	}

	off := 0
	for i, want := range bodies {
		got, next, status := TryDecode(buf, off)
		if status != Complete {
			t.Fatalf("frame %d: status = %s", i, status)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("frame %d: got %q, want %q", i, got, want)
		}
		off = next
	}

	if _, _, status := TryDecode(buf, off); status != Incomplete {
		t.Errorf("decoding past the last frame returned %s", status)
	}
}

// TestTryDecodeBodyCapacity makes sure a decoded body cannot be appended into the next frame
func TestTryDecodeBodyCapacity(t *testing.T) {
	var buf []byte
	buf, _ = AppendFrame(buf, []byte("ab"))
	buf, _ = AppendFrame(buf, []byte("cd"))

	body, _, _ := TryDecode(buf, 0)
	_ = append(body, 'X')

	second, _, _ := TryDecode(buf, HeaderLen+2)
	if string(second) != "cd" {
		t.Errorf("appending to the first body clobbered the second frame: %q", second)
	}
}

func BenchmarkTryDecode(b *testing.B) {
	frame, _ := Encode(bytes.Repeat([]byte{'x'}, 512))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = TryDecode(frame, 0)
	}
}
