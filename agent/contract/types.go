package contract

import (
	"encoding/json"
	"fmt"
)

type ToolID string

const (
	ToolProductCount          ToolID = "productCount"
	ToolInventorySummary      ToolID = "inventorySummary"
	ToolSearchProducts        ToolID = "searchProducts"
	ToolSearchByCategory      ToolID = "searchByCategory"
	ToolLowStock              ToolID = "lowStock"
	ToolSearchQuotations      ToolID = "searchQuotations"
	ToolCRMSummary            ToolID = "crmSummary"
	ToolOpenOpportunityCount  ToolID = "openOpportunityCount"
	ToolOpportunitiesByStage  ToolID = "opportunitiesByStage"
	ToolPipelineSummary       ToolID = "pipelineSummary"
	ToolListOpenOpportunities ToolID = "listOpenOpportunities"
	ToolSearchByStage         ToolID = "searchByStage"
	ToolLeadInfo              ToolID = "leadInfo"
	ToolCreateOpportunity     ToolID = "createOpportunity"
	ToolHelp                  ToolID = "help"
)

type Category string

const (
	CategoryInventory Category = "inventory"
	CategoryCRM       Category = "crm"
	CategoryHelp      Category = "help"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

type ErrorKind string

const (
	KindToolNotFound ErrorKind = "ToolNotFound"
	KindDataAccess   ErrorKind = "DataAccessError"
	KindValidation   ErrorKind = "ValidationError"
	KindConflict     ErrorKind = "ConflictError"
)

// QueryResult is the uniform outcome of every tool call. A success carries a
// payload; an error carries a kind and a message, never both.
type QueryResult struct {
	Status    Status
	Tool      ToolID
	Payload   any
	ErrorKind ErrorKind
	Message   string
}

func Success(tool ToolID, payload any) QueryResult {
	return QueryResult{Status: StatusSuccess, Tool: tool, Payload: payload}
}

func Failure(tool ToolID, kind ErrorKind, message string) QueryResult {
	return QueryResult{Status: StatusError, Tool: tool, ErrorKind: kind, Message: message}
}

func FromError(tool ToolID, err error) QueryResult {
	return Failure(tool, KindOf(err), err.Error())
}

func (r QueryResult) OK() bool {
	return r.Status == StatusSuccess
}

// MarshalJSON flattens the payload next to the status field. Keys come out
// sorted, so the same result always serializes to the same bytes.
func (r QueryResult) MarshalJSON() ([]byte, error) {
	out := map[string]json.RawMessage{}

	if r.Status == StatusError {
		out["error_kind"] = mustRaw(r.ErrorKind)
		out["message"] = mustRaw(r.Message)
	} else if r.Payload != nil {
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for tool=%s: %w", r.Tool, err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("payload for tool=%s is not an object: %w", r.Tool, err)
		}
	}

	status := r.Status
	if status == "" {
		status = StatusSuccess
	}
	out["status"] = mustRaw(status)
	if r.Tool != "" {
		out["tool"] = mustRaw(r.Tool)
	}
	return json.Marshal(out)
}

func mustRaw(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
