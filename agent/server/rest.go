package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

var errParamsNotObject = errors.New("params must be a JSON object")

const invalidChatReply = "No entendí el mensaje. Envía un texto con tu consulta."

func parseCategories(raw string) ([]contractx.Category, error) {
	var out []contractx.Category
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		switch cat := contractx.Category(part); cat {
		case contractx.CategoryInventory, contractx.CategoryCRM, contractx.CategoryHelp:
			out = append(out, cat)
		default:
			return nil, fmt.Errorf("%w: unknown category %q", contractx.ErrValidation, part)
		}
	}
	return out, nil
}

// statusFor maps a QueryResult to the HTTP status of the REST surface.
func statusFor(res contractx.QueryResult) int {
	if res.OK() {
		return http.StatusOK
	}
	switch res.ErrorKind {
	case contractx.KindToolNotFound:
		return http.StatusNotFound
	case contractx.KindValidation:
		return http.StatusBadRequest
	case contractx.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

func (s *Server) listTools(c *gin.Context) {
	res := s.list(c.Query("category"))
	c.JSON(statusFor(res), res)
}

type toolDetail struct {
	contractx.ToolSummary
	Params map[string]any `json:"params_schema"`
}

func (s *Server) describeTool(c *gin.Context) {
	id := contractx.ToolID(c.Param("id"))
	d, err := s.deps.Catalog.Lookup(id)
	if err != nil {
		res := contractx.FromError(id, err)
		c.JSON(statusFor(res), res)
		return
	}
	c.JSON(http.StatusOK, toolDetail{ToolSummary: d.Summary(), Params: d.JSONSchema()})
}

func (s *Server) callTool(c *gin.Context) {
	id := contractx.ToolID(c.Param("id"))

	body, err := c.GetRawData()
	if err != nil {
		res := contractx.Failure(id, contractx.KindValidation, "could not read request body")
		c.JSON(statusFor(res), res)
		return
	}
	params := map[string]any{}
	if err := decodeParams(body, &params); err != nil {
		res := contractx.Failure(id, contractx.KindValidation, errParamsNotObject.Error())
		c.JSON(statusFor(res), res)
		return
	}

	res := s.deps.Dispatcher.CallByID(c.Request.Context(), id, params)
	c.JSON(statusFor(res), res)
}

func (s *Server) sendMessage(c *gin.Context) {
	body, err := c.GetRawData()
	var req chatRequest
	if err == nil {
		err = json.Unmarshal(bytes.TrimSpace(body), &req)
	}
	text, ok := req.text()
	if err != nil || !ok {
		c.JSON(http.StatusBadRequest, chatx.Response{Success: false, Response: invalidChatReply})
		return
	}

	resp := s.deps.Chat.Reply(chatx.WithChannel(c.Request.Context(), chatx.ChannelWeb), text)
	c.JSON(http.StatusOK, resp)
}
