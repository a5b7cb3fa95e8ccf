package mcpserver

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// maxMessageSize bounds a single stdio line, matching teacher
// internal/mcp/transport.go's enlarged scanner buffer.
const maxMessageSize = 1024 * 1024

// Transport is a newline-delimited JSON-RPC 2.0 reader/writer over stdio.
type Transport struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewTransport wraps stdin/stdout (or test readers/writers) as a Transport.
func NewTransport(in io.Reader, out io.Writer) *Transport {
	return &Transport{in: in, out: out}
}

// ReadMessage blocks for the next newline-delimited JSON message, returning
// io.EOF once the input stream closes.
func (t *Transport) ReadMessage() (Message, error) {
	if t.scanner == nil {
		t.scanner = bufio.NewScanner(t.in)
		buf := make([]byte, 0, 64*1024)
		t.scanner.Buffer(buf, maxMessageSize)
	}
	if !t.scanner.Scan() {
		if err := t.scanner.Err(); err != nil {
			return Message{}, err
		}
		return Message{}, io.EOF
	}
	var msg Message
	if err := json.Unmarshal(t.scanner.Bytes(), &msg); err != nil {
		return Message{}, fmt.Errorf("malformed JSON-RPC message: %w", err)
	}
	return msg, nil
}

// WriteMessage marshals m and writes it as a single newline-terminated line.
func (t *Transport) WriteMessage(m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = t.out.Write(data)
	return err
}

// WriteError is a convenience wrapper around WriteMessage for error replies.
func (t *Transport) WriteError(id interface{}, code int, message string) error {
	return t.WriteMessage(NewErrorMessage(id, code, message))
}

// WriteResult is a convenience wrapper around WriteMessage for success replies.
func (t *Transport) WriteResult(id interface{}, result interface{}) error {
	return t.WriteMessage(NewResultMessage(id, result))
}
