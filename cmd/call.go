package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

func newCallCmd() *cobra.Command {
	var (
		rawParams string
		sets      []string
	)

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Run one catalog tool and print its structured result",
		Example: `  erp-insight-agent call lowStock --set threshold=4
  erp-insight-agent call createOpportunity --params '{"name":"Mesas","customer":"Globex"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParams(rawParams, sets)
			if err != nil {
				return err
			}

			s, err := loadSettings()
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), s, buildOptions{})
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			res := a.dispatcher.CallByID(cmd.Context(), contractx.ToolID(args[0]), params)
			raw, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			if !res.OK() {
				return fmt.Errorf("%s failed: %s", res.Tool, res.ErrorKind)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rawParams, "params", "", "params as a JSON object")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "single param as key=value (numbers and booleans are detected)")
	return cmd
}

// parseParams merges a JSON object with key=value pairs; pairs win.
func parseParams(raw string, sets []string) (map[string]any, error) {
	params := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			return nil, fmt.Errorf("--params must be a JSON object: %w", err)
		}
	}
	for _, kv := range sets {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("--set %q must look like key=value", kv)
		}
		params[key] = scalar(value)
	}
	return params, nil
}

func scalar(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}
