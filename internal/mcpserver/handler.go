package mcpserver

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cortexast/internal/cortexerrors"
	"cortexast/internal/router"
)

// InitializeResult is the "initialize" response body, per the MCP handshake.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ToolSchema is one tools/list entry.
type ToolSchema struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema interface{} `json:"inputSchema"`
}

func (s *Server) handleMessage(msg Message) *Message {
	switch {
	case IsRequest(msg):
		return s.handleRequest(msg)
	case IsNotification(msg):
		s.handleNotification(msg)
		return nil
	default:
		resp := NewErrorMessage(msg.ID, InvalidRequest, "message is neither a request nor a notification")
		return &resp
	}
}

func (s *Server) handleRequest(msg Message) *Message {
	s.logger.Debug("handling request", map[string]interface{}{"method": msg.Method, "id": msg.ID})

	var resp Message
	switch msg.Method {
	case "initialize":
		resp = s.handleInitialize(msg)
	case "tools/list":
		resp = s.handleListTools(msg)
	case "tools/call":
		resp = s.handleCallTool(msg)
	default:
		resp = NewErrorMessage(msg.ID, MethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
	return &resp
}

func (s *Server) handleNotification(msg Message) {
	s.logger.Debug("handling notification", map[string]interface{}{"method": msg.Method})
}

func (s *Server) handleInitialize(msg Message) Message {
	s.logger.Info("initializing", map[string]interface{}{"method": msg.Method})
	result := InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{Name: "cortexast", Version: s.version},
	}
	return NewResultMessage(msg.ID, result)
}

func (s *Server) handleListTools(msg Message) Message {
	defs := router.Definitions()
	tools := make([]ToolSchema, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, ToolSchema{
			Name:        d.Name,
			Description: d.Description,
			InputSchema: actionInputSchema(d.Actions),
		})
	}
	return NewResultMessage(msg.ID, map[string]interface{}{"tools": tools})
}

// actionInputSchema builds a loose JSON Schema accepting an "action" enum
// plus arbitrary further parameters, since each action's parameter set
// varies (symbol_name, target_dir, path, query, ...).
func actionInputSchema(actions []string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":                 "object",
		"additionalProperties": true,
	}
	if len(actions) > 0 {
		schema["properties"] = map[string]interface{}{
			"action": map[string]interface{}{"type": "string", "enum": actions},
		}
	}
	return schema
}

func (s *Server) handleCallTool(msg Message) Message {
	var call struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(msg.Params, &call); err != nil {
		return NewErrorMessage(msg.ID, InvalidParams, "expected {name, arguments}")
	}
	if call.Arguments == nil {
		call.Arguments = map[string]interface{}{}
	}

	requestID := uuid.NewString()
	s.logger.Info("calling tool", map[string]interface{}{"tool": call.Name, "params": call.Arguments, "requestId": requestID})

	start := time.Now()
	result, err := s.router.Dispatch(call.Name, call.Arguments)
	s.logger.LogToolCall(call.Name, requestID, time.Since(start), err)
	if err != nil {
		return NewErrorMessageWithData(msg.ID, InternalError, err.Error(), toolErrorData(err))
	}

	return NewResultMessage(msg.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": result.Text},
		},
	})
}

// toolErrorData surfaces a CortexError's recoveryHint/alternatives as
// structured error data rather than losing them in a flattened message.
func toolErrorData(err error) interface{} {
	var ce *cortexerrors.CortexError
	if e, ok := err.(*cortexerrors.CortexError); ok {
		ce = e
	}
	if ce == nil {
		return nil
	}
	return map[string]interface{}{
		"code":         ce.Code,
		"recoveryHint": ce.RecoveryHint,
		"alternatives": ce.Alternatives,
	}
}
