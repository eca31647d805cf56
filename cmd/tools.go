package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
	enginex "github.com/tanpawarit/erp-insight-agent/agent/engine"
	storex "github.com/tanpawarit/erp-insight-agent/agent/store"
	toolx "github.com/tanpawarit/erp-insight-agent/agent/tool"
)

func newToolsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the query catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The catalog does not depend on data, so an empty store is enough.
			eng, err := enginex.New(storex.NewMemoryStore(), enginex.DefaultConfig())
			if err != nil {
				return err
			}
			cat, err := enginex.BuildCatalog(eng)
			if err != nil {
				return err
			}

			var cats []contractx.Category
			if category != "" {
				cats = append(cats, contractx.Category(category))
			}
			renderTools(cmd, cat.List(cats...))
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list tools of this category (inventory, crm, help)")
	return cmd
}

func renderTools(cmd *cobra.Command, descs []toolx.Descriptor) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Category", "Params", "Description"})
	for _, d := range descs {
		params := ""
		for i, p := range d.Params {
			if i > 0 {
				params += ", "
			}
			params += p.Name
			if p.Required {
				params += "*"
			}
		}
		t.AppendRow(table.Row{d.ID, d.Category, params, d.Description})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d tools", len(descs))})
	t.Render()
}
