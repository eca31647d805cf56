package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

const (
	MethodToolsList = "tools.list"
	MethodChatSend  = "chat.send"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type listParams struct {
	Category string `json:"category"`
}

type chatRequest struct {
	Message *string `json:"message"`
	Params  *struct {
		Message *string `json:"message"`
	} `json:"params"`
}

func (r chatRequest) text() (string, bool) {
	if r.Message != nil {
		return *r.Message, true
	}
	if r.Params != nil && r.Params.Message != nil {
		return *r.Params.Message, true
	}
	return "", false
}

func (s *Server) jsonRPC(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusOK, rpcFail(nil, codeParseError, "could not read request body", nil))
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		c.JSON(http.StatusOK, rpcFail(nil, codeInvalidRequest, "batch requests are not supported", nil))
		return
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.JSON(http.StatusOK, rpcFail(nil, codeParseError, "parse error", nil))
		return
	}
	if req.JSONRPC != "2.0" || strings.TrimSpace(req.Method) == "" {
		c.JSON(http.StatusOK, rpcFail(req.ID, codeInvalidRequest, "invalid request", nil))
		return
	}

	c.JSON(http.StatusOK, s.dispatchRPC(c, req))
}

func (s *Server) dispatchRPC(c *gin.Context, req rpcRequest) rpcResponse {
	ctx := c.Request.Context()

	switch req.Method {
	case MethodToolsList:
		var p listParams
		if err := decodeParams(req.Params, &p); err != nil {
			return rpcFail(req.ID, codeInvalidParams, "params must be an object", nil)
		}
		res := s.list(p.Category)
		if !res.OK() {
			return rpcFail(req.ID, codeInvalidParams, res.Message, res)
		}
		return rpcOK(req.ID, res)

	case MethodChatSend:
		var p struct {
			Message *string `json:"message"`
		}
		if err := decodeParams(req.Params, &p); err != nil || p.Message == nil {
			return rpcFail(req.ID, codeInvalidParams, "params.message is required", nil)
		}
		return rpcOK(req.ID, s.deps.Chat.Reply(chatx.WithChannel(ctx, chatx.ChannelAPI), *p.Message))
	}

	id := contractx.ToolID(req.Method)
	if _, err := s.deps.Catalog.Lookup(id); err != nil {
		res := contractx.FromError(id, err)
		return rpcFail(req.ID, codeMethodNotFound, "method not found", res)
	}

	params := map[string]any{}
	if err := decodeParams(req.Params, &params); err != nil {
		res := contractx.Failure(id, contractx.KindValidation, "params must be an object")
		return rpcFail(req.ID, codeInvalidParams, res.Message, res)
	}
	return rpcOK(req.ID, s.deps.Dispatcher.CallByID(ctx, id, params))
}

// decodeParams accepts absent or null params and otherwise requires an
// object.
func decodeParams(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '{' {
		return errParamsNotObject
	}
	return json.Unmarshal(raw, v)
}

func (s *Server) list(category string) contractx.QueryResult {
	cats, err := parseCategories(category)
	if err != nil {
		return contractx.FromError(MethodToolsList, err)
	}
	return toolx.ListResult(s.deps.Catalog, cats...)
}

func rpcOK(id json.RawMessage, result any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", Result: result, ID: id}
}

func rpcFail(id json.RawMessage, code int, message string, data any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: message, Data: data}, ID: id}
}
