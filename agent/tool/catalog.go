package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

// Handler executes a tool. It must return a QueryResult for every input.
type Handler func(ctx context.Context, params Params) contractx.QueryResult

type ParamType string

const (
	TypeString  ParamType = "string"
	TypeNumber  ParamType = "number"
	TypeInteger ParamType = "integer"
)

type Param struct {
	Name     string
	Type     ParamType
	Desc     string
	Required bool
	Minimum  *float64
	Maximum  *float64
	Enum     []string
}

type Descriptor struct {
	ID          contractx.ToolID
	Category    contractx.Category
	Title       string
	Description string
	Params      []Param
	Mutating    bool
	Handler     Handler
}

// JSONSchema describes the accepted params as a JSON Schema object.
func (d Descriptor) JSONSchema() map[string]any {
	props := map[string]any{}
	required := []string{}
	for _, p := range d.Params {
		prop := map[string]any{
			"type":        string(p.Type),
			"description": p.Desc,
		}
		if p.Minimum != nil {
			prop["minimum"] = *p.Minimum
		}
		if p.Maximum != nil {
			prop["maximum"] = *p.Maximum
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// ToolInfo exposes the descriptor as a function tool for chat models.
func (d Descriptor) ToolInfo() *schema.ToolInfo {
	params := make(map[string]*schema.ParameterInfo, len(d.Params))
	for _, p := range d.Params {
		info := &schema.ParameterInfo{
			Desc:     p.Desc,
			Required: p.Required,
			Enum:     p.Enum,
		}
		switch p.Type {
		case TypeNumber:
			info.Type = schema.Number
		case TypeInteger:
			info.Type = schema.Integer
		default:
			info.Type = schema.String
		}
		params[p.Name] = info
	}
	return &schema.ToolInfo{
		Name:        string(d.ID),
		Desc:        d.Description,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

func (d Descriptor) Summary() contractx.ToolSummary {
	return contractx.ToolSummary{
		ID:          d.ID,
		Category:    d.Category,
		Title:       d.Title,
		Description: d.Description,
		Mutating:    d.Mutating,
	}
}

type entry struct {
	desc   Descriptor
	schema *gojsonschema.Schema
}

// Catalog is the registry of tools. Register everything at startup and call
// Freeze; lookups after that need no locking.
type Catalog struct {
	order   []contractx.ToolID
	entries map[contractx.ToolID]*entry
	frozen  bool
}

func NewCatalog() *Catalog {
	return &Catalog{entries: map[contractx.ToolID]*entry{}}
}

func (c *Catalog) Register(d Descriptor) error {
	if c.frozen {
		return fmt.Errorf("catalog is frozen: cannot register tool=%s", d.ID)
	}
	if strings.TrimSpace(string(d.ID)) == "" {
		return errors.New("tool id is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool=%s has no handler", d.ID)
	}
	if _, exists := c.entries[d.ID]; exists {
		return fmt.Errorf("tool=%s is already registered", d.ID)
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(d.JSONSchema()))
	if err != nil {
		return fmt.Errorf("compile params schema for tool=%s: %w", d.ID, err)
	}

	d.Params = append([]Param(nil), d.Params...)
	c.entries[d.ID] = &entry{desc: d, schema: compiled}
	c.order = append(c.order, d.ID)
	return nil
}

func (c *Catalog) MustRegister(d Descriptor) {
	if err := c.Register(d); err != nil {
		panic(err)
	}
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IDs() []contractx.ToolID {
	return append([]contractx.ToolID(nil), c.order...)
}

func (c *Catalog) Lookup(id contractx.ToolID) (Descriptor, error) {
	e, ok := c.entries[id]
	if !ok {
		ids := make([]string, 0, len(c.order))
		for _, known := range c.order {
			ids = append(ids, string(known))
		}
		return Descriptor{}, fmt.Errorf("%w: %q is not a registered tool (available: %s)",
			contractx.ErrToolNotFound, id, strings.Join(ids, ", "))
	}
	return e.desc, nil
}

// List returns descriptors in registration order, optionally restricted to
// the given categories.
func (c *Catalog) List(categories ...contractx.Category) []Descriptor {
	want := map[contractx.Category]bool{}
	for _, cat := range categories {
		want[cat] = true
	}
	out := make([]Descriptor, 0, len(c.order))
	for _, id := range c.order {
		d := c.entries[id].desc
		if len(want) > 0 && !want[d.Category] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ToolInfos returns the model-facing tools, leaving out help.
func (c *Catalog) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(c.order))
	for _, d := range c.List(contractx.CategoryInventory, contractx.CategoryCRM) {
		infos = append(infos, d.ToolInfo())
	}
	return infos
}

func (c *Catalog) Validate(id contractx.ToolID, params Params) error {
	e, ok := c.entries[id]
	if !ok {
		_, err := c.Lookup(id)
		return err
	}
	if params == nil {
		params = Params{}
	}

	res, err := e.schema.Validate(gojsonschema.NewGoLoader(map[string]any(params)))
	if err != nil {
		return fmt.Errorf("%w: params for tool=%s: %v", contractx.ErrValidation, id, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, re := range res.Errors() {
			msgs = append(msgs, re.String())
		}
		return fmt.Errorf("%w: params for tool=%s: %s", contractx.ErrValidation, id, strings.Join(msgs, "; "))
	}
	return nil
}

// Execute looks the tool up, validates params and runs it. Failures come
// back as error results, never as Go errors.
func (c *Catalog) Execute(ctx context.Context, id contractx.ToolID, params Params) contractx.QueryResult {
	d, err := c.Lookup(id)
	if err != nil {
		return contractx.FromError(id, err)
	}
	if err := c.Validate(id, params); err != nil {
		return contractx.FromError(id, err)
	}
	if params == nil {
		params = Params{}
	}
	return d.Handler(ctx, params)
}
