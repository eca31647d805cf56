package tool

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Params are the arguments of a tool call, as decoded from JSON.
type Params map[string]any

func (p Params) String(key, fallback string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return strings.TrimSpace(s)
}

func (p Params) Float(key string, fallback float64) float64 {
	v, ok := p[key]
	if !ok || v == nil {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return fallback
}

func (p Params) Int(key string, fallback int) int {
	f := p.Float(key, float64(fallback))
	return int(f)
}

// Min and Max build schema bounds for Param.
func Min(v float64) *float64 { return &v }
func Max(v float64) *float64 { return &v }
