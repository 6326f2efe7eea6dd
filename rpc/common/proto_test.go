package common

import (
	"bytes"
	"errors"
	"testing"
)

func TestRequestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		wire string
	}{
		{"ping", NewPingRequest(), "PING"},
		{"keys", NewKeysRequest(), "KEYS"},
		{"set", NewSetRequest("user:1", []byte("Ada Lovelace")), "SET user:1 Ada Lovelace"},
		{"set empty value", NewSetRequest("k", nil), "SET k "},
		{"get", NewGetRequest("user:1"), "GET user:1"},
		{"delete", NewDeleteRequest("user:1"), "DEL user:1"},
		{"has", NewHasRequest("user:1"), "HAS user:1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wire, err := AppendRequest(nil, tc.msg)
			if err != nil {
				t.Fatalf("AppendRequest: %v", err)
			}
			if string(wire) != tc.wire {
				t.Fatalf("wire = %q, want %q", wire, tc.wire)
			}

			parsed, err := ParseRequest(wire)
			if err != nil {
				t.Fatalf("ParseRequest: %v", err)
			}
			if parsed.MsgType != tc.msg.MsgType || parsed.Key != tc.msg.Key || !bytes.Equal(parsed.Value, tc.msg.Value) {
				t.Fatalf("parsed = %+v, want %+v", parsed, tc.msg)
			}
		})
	}
}

func TestParseRequestLenient(t *testing.T) {
	msg, err := ParseRequest([]byte("  set\tkey  two  spaces "))
	if err != nil {
		t.Fatal(err)
	}
	if msg.MsgType != MsgTKVSet || msg.Key != "key" || string(msg.Value) != " two  spaces " {
		t.Fatalf("parsed = %+v (value %q)", msg, msg.Value)
	}

	msg, err = ParseRequest([]byte("get k\n"))
	if err != nil || msg.MsgType != MsgTKVGet || msg.Key != "k" {
		t.Fatalf("parsed = %+v, err = %v", msg, err)
	}
}

func TestParseRequestErrors(t *testing.T) {
	for _, body := range []string{
		"",
		"   ",
		"FLY me",
		"PING now",
		"KEYS *",
		"GET",
		"GET a b",
		"DEL",
		"SET",
		"SET key",
	} {
		if msg, err := ParseRequest([]byte(body)); err == nil {
			t.Errorf("ParseRequest(%q) = %+v, expected an error", body, msg)
		}
	}
}

func TestParseRequestDoesNotAlias(t *testing.T) {
	body := []byte("SET k value")
	msg, err := ParseRequest(body)
	if err != nil {
		t.Fatal(err)
	}
	copy(body, "XXXXXXXXXXX")
	if msg.Key != "k" || string(msg.Value) != "value" {
		t.Fatalf("message changed with the request buffer: %+v", msg)
	}
}

func TestAppendRequestInvalidKey(t *testing.T) {
	for _, key := range []string{"", "two words", "tab\tkey", "new\nline"} {
		if _, err := AppendRequest(nil, NewGetRequest(key)); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
	if _, err := AppendRequest(nil, NewNilResponse()); err == nil {
		t.Error("expected an error for a response type")
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := []struct {
		msg  *Message
		wire string
	}{
		{NewSuccessResponse(nil), "OK"},
		{NewSuccessResponse([]byte("hello world")), "OK hello world"},
		{NewSuccessResponse([]byte{}), "OK "},
		{NewBoolResponse(true), "OK 1"},
		{NewBoolResponse(false), "OK 0"},
		{NewNilResponse(), "NIL"},
		{NewPongResponse(), "PONG"},
		{NewErrorResponse("unknown command"), "ERR unknown command"},
	}

	for _, tc := range tests {
		wire := AppendResponse(nil, tc.msg)
		if string(wire) != tc.wire {
			t.Errorf("wire = %q, want %q", wire, tc.wire)
			continue
		}

		parsed, err := ParseResponse(wire)
		if err != nil {
			t.Errorf("ParseResponse(%q): %v", wire, err)
			continue
		}
		if parsed.MsgType != tc.msg.MsgType || parsed.Err != tc.msg.Err || !bytes.Equal(parsed.Value, tc.msg.Value) {
			t.Errorf("parsed %q = %+v, want %+v", wire, parsed, tc.msg)
		}
	}
}

func TestParseResponseMalformed(t *testing.T) {
	for _, body := range []string{"", "ok", "OKAY", "ERR", "nil", "heloooo"} {
		if _, err := ParseResponse([]byte(body)); err == nil {
			t.Errorf("ParseResponse(%q): expected an error", body)
		}
	}
}
