package common

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
)

// Request and response bodies of the kv handler are plain text:
//
//	PING                -> PONG
//	SET <key> <value>   -> OK
//	GET <key>           -> OK <value> | NIL
//	DEL <key>           -> OK 1 | OK 0
//	HAS <key>           -> OK 1 | OK 0
//	KEYS                -> OK <count>
//	anything else       -> ERR <reason>
//
// Verbs are case-insensitive. A key is a run of non-space bytes; the value is
// the raw rest of the body after the single separator following the key.

// ErrInvalidKey is returned for keys that are empty or contain whitespace
var ErrInvalidKey = errors.New("invalid key: must be non-empty and must not contain whitespace")

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single request or response of the kv protocol.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType

	// Request fields
	Key string // Used for: Set, Get, Del, Has

	// Shared fields
	Value []byte // Used for: Set (request), Get (response), Del/Has/Keys (response)

	// Response only fields
	Err string // Empty if no error, otherwise contains the error message
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewPingRequest creates a new Ping request
func NewPingRequest() *Message {
	return &Message{MsgType: MsgTPing}
}

// NewSetRequest creates a new Set request
func NewSetRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTKVSet,
		Key:     key,
		Value:   value,
	}
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVGet,
		Key:     key,
	}
}

// NewDeleteRequest creates a new Delete request
func NewDeleteRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVDelete,
		Key:     key,
	}
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTKVHas,
		Key:     key,
	}
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{MsgType: MsgTKVKeys}
}

// NewSuccessResponse creates an OK response with an optional value
func NewSuccessResponse(value []byte) *Message {
	return &Message{
		MsgType: MsgTSuccess,
		Value:   value,
	}
}

// NewBoolResponse creates the OK 1 / OK 0 response of Del and Has
func NewBoolResponse(ok bool) *Message {
	if ok {
		return NewSuccessResponse([]byte("1"))
	}
	return NewSuccessResponse([]byte("0"))
}

// NewNilResponse creates the response for a missing key
func NewNilResponse() *Message {
	return &Message{MsgType: MsgTNil}
}

// NewPongResponse creates the response to a Ping
func NewPongResponse() *Message {
	return &Message{MsgType: MsgTPong}
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// ValidateKey checks that key can be sent as one token of a request
func ValidateKey(key string) error {
	if key == "" || strings.IndexFunc(key, isSpace) >= 0 {
		return ErrInvalidKey
	}
	return nil
}

// AppendRequest appends the text form of a request to dst
func AppendRequest(dst []byte, m *Message) ([]byte, error) {
	switch m.MsgType {
	case MsgTPing, MsgTKVKeys:
		return append(dst, m.MsgType.Verb()...), nil
	case MsgTKVGet, MsgTKVDelete, MsgTKVHas:
		if err := ValidateKey(m.Key); err != nil {
			return dst, err
		}
		dst = append(dst, m.MsgType.Verb()...)
		dst = append(dst, ' ')
		return append(dst, m.Key...), nil
	case MsgTKVSet:
		if err := ValidateKey(m.Key); err != nil {
			return dst, err
		}
		dst = append(dst, m.MsgType.Verb()...)
		dst = append(dst, ' ')
		dst = append(dst, m.Key...)
		dst = append(dst, ' ')
		return append(dst, m.Value...), nil
	default:
		return dst, fmt.Errorf("message type %s is not a request", m.MsgType)
	}
}

// AppendResponse appends the text form of a response to dst
func AppendResponse(dst []byte, m *Message) []byte {
	switch m.MsgType {
	case MsgTSuccess:
		dst = append(dst, "OK"...)
		if m.Value != nil {
			dst = append(dst, ' ')
			dst = append(dst, m.Value...)
		}
		return dst
	case MsgTNil:
		return append(dst, "NIL"...)
	case MsgTPong:
		return append(dst, "PONG"...)
	default:
		dst = append(dst, "ERR "...)
		return append(dst, m.Err...)
	}
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// ParseRequest parses a request body. The key and value of the returned
// message do not alias body.
func ParseRequest(body []byte) (*Message, error) {
	verb, rest := nextToken(body)
	if len(verb) == 0 {
		return nil, errors.New("empty request")
	}

	t := verbType(verb)
	switch t {
	case MsgTPing, MsgTKVKeys:
		if len(bytes.TrimSpace(rest)) != 0 {
			return nil, fmt.Errorf("%s takes no arguments", t.Verb())
		}
		return &Message{MsgType: t}, nil

	case MsgTKVGet, MsgTKVDelete, MsgTKVHas:
		key, tail := nextToken(rest)
		if len(key) == 0 || len(bytes.TrimSpace(tail)) != 0 {
			return nil, fmt.Errorf("%s takes exactly one key", t.Verb())
		}
		return &Message{MsgType: t, Key: string(key)}, nil

	case MsgTKVSet:
		key, tail := nextToken(rest)
		if len(key) == 0 || len(tail) == 0 {
			return nil, errors.New("SET requires a key and a value")
		}
		// drop the single separator after the key, the rest is the value
		value := append([]byte{}, tail[1:]...)
		return &Message{MsgType: t, Key: string(key), Value: value}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", verb)
	}
}

// ParseResponse parses a response body
func ParseResponse(body []byte) (*Message, error) {
	switch {
	case bytes.Equal(body, []byte("OK")):
		return NewSuccessResponse(nil), nil
	case bytes.HasPrefix(body, []byte("OK ")):
		return NewSuccessResponse(append([]byte{}, body[3:]...)), nil
	case bytes.Equal(body, []byte("NIL")):
		return NewNilResponse(), nil
	case bytes.Equal(body, []byte("PONG")):
		return NewPongResponse(), nil
	case bytes.HasPrefix(body, []byte("ERR ")):
		return NewErrorResponse(string(body[4:])), nil
	default:
		return nil, fmt.Errorf("malformed response %q", truncate(body, 64))
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPing:
		return "ping"
	case MsgTKVSet:
		return "set"
	case MsgTKVGet:
		return "get"
	case MsgTKVDelete:
		return "delete"
	case MsgTKVHas:
		return "has"
	case MsgTKVKeys:
		return "keys"
	case MsgTSuccess:
		return "success"
	case MsgTNil:
		return "nil"
	case MsgTPong:
		return "pong"
	case MsgTError:
		return "error"
	default:
		return "unknown"
	}
}

// Verb returns the wire verb of a request type (empty for responses)
func (t MessageType) Verb() string {
	switch t {
	case MsgTPing:
		return "PING"
	case MsgTKVSet:
		return "SET"
	case MsgTKVGet:
		return "GET"
	case MsgTKVDelete:
		return "DEL"
	case MsgTKVHas:
		return "HAS"
	case MsgTKVKeys:
		return "KEYS"
	default:
		return ""
	}
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	MsgTUnknown MessageType = iota

	// Responses

	MsgTSuccess // OK with an optional value
	MsgTNil     // Key not found
	MsgTPong    // Answer to a ping
	MsgTError   // Indicates an error occurred

	// Requests

	MsgTPing     // Liveness check
	MsgTKVSet    // Set a key-value pair
	MsgTKVGet    // Get a value by key
	MsgTKVDelete // Delete a key-value pair
	MsgTKVHas    // Check if a key exists
	MsgTKVKeys   // Count the keys
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func verbType(verb []byte) MessageType {
	for _, t := range []MessageType{MsgTPing, MsgTKVSet, MsgTKVGet, MsgTKVDelete, MsgTKVHas, MsgTKVKeys} {
		if bytes.EqualFold(verb, []byte(t.Verb())) {
			return t
		}
	}
	return MsgTUnknown
}

// nextToken skips leading whitespace and splits off the next token. rest
// starts at the whitespace byte that ended the token.
func nextToken(b []byte) (token, rest []byte) {
	start := 0
	for start < len(b) && isSpace(rune(b[start])) {
		start++
	}
	end := start
	for end < len(b) && !isSpace(rune(b[end])) {
		end++
	}
	return b[start:end], b[end:]
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
