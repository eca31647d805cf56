package contract

import "context"

// Dispatcher is the single entry point used by every transport.
type Dispatcher interface {
	Handle(ctx context.Context, text string) QueryResult
	CallByID(ctx context.Context, id ToolID, params map[string]any) QueryResult
}

// Insighter adds a short commentary to a successful result. Failures are
// expected and must not affect the reply.
type Insighter interface {
	Insight(ctx context.Context, question string, result QueryResult) (string, error)
}

// Router maps text the rule table did not understand onto a catalog tool.
type Router interface {
	Route(ctx context.Context, text string) (RouteDecision, error)
}

type RouteDecision struct {
	Tool   ToolID         `json:"tool,omitempty"`
	Params map[string]any `json:"params,omitempty"`
	Reply  string         `json:"reply,omitempty"`
}
