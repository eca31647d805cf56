package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	chatx "github.com/tanpawarit/erp-insight-agent/agent/chat"
	formatx "github.com/tanpawarit/erp-insight-agent/agent/format"
)

func newAskCmd() *cobra.Command {
	var (
		asJSON bool
		noLLM  bool
	)

	cmd := &cobra.Command{
		Use:   "ask <message...>",
		Short: "Answer one chat message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			a, err := buildApp(cmd.Context(), s, buildOptions{withLLM: !noLLM, styleHint: string(formatx.StyleText)})
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			ctx := chatx.WithChannel(cmd.Context(), chatx.ChannelCLI)
			resp := a.chat.Reply(ctx, strings.Join(args, " "))

			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := json.MarshalIndent(resp.Result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(raw))
				return nil
			}
			fmt.Fprintln(out, resp.Response)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the structured result instead of the narrative")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the optional language model helpers")
	return cmd
}
