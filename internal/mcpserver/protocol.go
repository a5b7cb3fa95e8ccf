// Package mcpserver implements the stdio JSON-RPC 2.0 transport and
// request dispatch for CortexAST's MCP surface, grounded directly on
// teacher `internal/mcp/{protocol,transport,handler}.go`, simplified from
// the teacher's multi-repo/multi-engine server to a single resolved repo
// root (internal/reporoot resolves it once at startup).
package mcpserver

import "encoding/json"

// JSON-RPC 2.0 standard error codes.
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603
)

// Message is a JSON-RPC 2.0 request, response, or notification.
type Message struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewErrorMessage builds an error response correlated to id.
func NewErrorMessage(id interface{}, code int, message string) Message {
	return Message{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
}

// NewErrorMessageWithData builds an error response carrying structured data
// (used to surface a cortexerrors.CortexError's recoveryHint/alternatives).
func NewErrorMessageWithData(id interface{}, code int, message string, data interface{}) Message {
	return Message{Jsonrpc: "2.0", ID: id, Error: &RPCError{Code: code, Message: message, Data: data}}
}

// NewResultMessage builds a success response correlated to id.
func NewResultMessage(id interface{}, result interface{}) Message {
	return Message{Jsonrpc: "2.0", ID: id, Result: result}
}

// NewNotificationMessage builds a server-initiated notification (no id).
func NewNotificationMessage(method string, params interface{}) Message {
	raw, _ := json.Marshal(params)
	return Message{Jsonrpc: "2.0", Method: method, Params: raw}
}

// IsRequest reports whether m expects a response.
func IsRequest(m Message) bool {
	return m.Method != "" && m.ID != nil
}

// IsNotification reports whether m is a one-way notification.
func IsNotification(m Message) bool {
	return m.Method != "" && m.ID == nil
}

// IsResponse reports whether m is a response to an earlier request.
func IsResponse(m Message) bool {
	return m.Method == "" && (m.Result != nil || m.Error != nil)
}
