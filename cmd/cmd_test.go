package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("LLM_ENABLED", "false")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestParseParams(t *testing.T) {
	params, err := parseParams(`{"threshold":3,"term":"silla"}`, []string{"threshold=4", "active=true", "name=Mesa grande"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"threshold": float64(4),
		"term":      "silla",
		"active":    true,
		"name":      "Mesa grande",
	}, params)

	_, err = parseParams(`[1]`, nil)
	assert.Error(t, err)
	_, err = parseParams("", []string{"novalue"})
	assert.Error(t, err)
	_, err = parseParams("", []string{"=x"})
	assert.Error(t, err)
}

func TestToolsCommand(t *testing.T) {
	out, err := run(t, "tools")
	require.NoError(t, err)
	assert.Contains(t, out, "lowStock")
	assert.Contains(t, out, "createOpportunity")
	assert.Contains(t, out, "name*")
	assert.Contains(t, strings.ToLower(out), "15 tools")

	out, err = run(t, "tools", "--category", "crm")
	require.NoError(t, err)
	assert.Contains(t, out, "pipelineSummary")
	assert.NotContains(t, out, "lowStock")
}

func TestCallCommand(t *testing.T) {
	out, err := run(t, "call", "lowStock", "--set", "threshold=4")
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "success", res["status"])

	out, err = run(t, "call", "nope")
	assert.Error(t, err)
	assert.Contains(t, out, "ToolNotFound")
}

func TestAskCommand(t *testing.T) {
	out, err := run(t, "ask", "--no-llm", "cuantos", "productos", "hay")
	require.NoError(t, err)
	assert.Contains(t, out, "Hay 5 productos activos en el inventario.")

	out, err = run(t, "ask", "--no-llm", "--json", "resumen", "del", "crm")
	require.NoError(t, err)
	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, float64(3), res["open_opportunities"])
}

func TestMigrateMemory(t *testing.T) {
	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "memory driver")
}

func TestSeedRejectsMemory(t *testing.T) {
	_, err := run(t, "seed")
	assert.Error(t, err)
}
