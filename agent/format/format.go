package format

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

type Style string

const (
	StyleText     Style = "text"
	StyleMarkdown Style = "markdown"
	StyleHTML     Style = "html"
)

type Config struct {
	Style string `default:"markdown" validate:"oneof=text markdown html"`
}

// Formatter renders QueryResults for people. Output depends only on the
// result, so the same result always renders the same way.
type Formatter struct {
	style Style
}

func New(cfg Config) *Formatter {
	style := Style(strings.ToLower(strings.TrimSpace(cfg.Style)))
	switch style {
	case StyleText, StyleMarkdown, StyleHTML:
	default:
		style = StyleMarkdown
	}
	return &Formatter{style: style}
}

func (f *Formatter) Style() Style {
	return f.style
}

// Structured is the machine form: the flat QueryResult JSON with sorted keys.
func Structured(r contractx.QueryResult) ([]byte, error) {
	return json.Marshal(r)
}

// Money renders an amount with two decimals and thousands separators.
func Money(v float64, currency string) string {
	amount := humanize.FormatFloat("#,###.##", v)
	switch strings.ToUpper(currency) {
	case "", "USD":
		return "$" + amount
	case "EUR":
		return amount + " €"
	default:
		return amount + " " + currency
	}
}

// Qty renders a quantity without trailing zeros.
func Qty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func percent(v float64) string {
	return Qty(v) + "%"
}

type doc struct {
	style Style
	parts []string
}

func (d *doc) line(format string, args ...any) {
	s := fmt.Sprintf(format, args...)
	if d.style == StyleHTML {
		s = "<p>" + html.EscapeString(s) + "</p>"
	}
	d.parts = append(d.parts, s)
}

func (d *doc) list(items []string) {
	if len(items) == 0 {
		return
	}
	var b strings.Builder
	switch d.style {
	case StyleHTML:
		b.WriteString("<ul>")
		for _, it := range items {
			b.WriteString("<li>" + html.EscapeString(it) + "</li>")
		}
		b.WriteString("</ul>")
	default:
		for i, it := range items {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- " + it)
		}
	}
	d.parts = append(d.parts, b.String())
}

func (d *doc) table(header table.Row, rows []table.Row, footer table.Row, numeric ...int) {
	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	if footer != nil {
		t.AppendFooter(footer)
	}
	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, col := range numeric {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight, AlignFooter: text.AlignRight})
	}
	t.SetColumnConfigs(configs)

	switch d.style {
	case StyleMarkdown:
		d.parts = append(d.parts, t.RenderMarkdown())
	case StyleHTML:
		d.parts = append(d.parts, t.RenderHTML())
	default:
		t.SetStyle(table.StyleLight)
		d.parts = append(d.parts, t.Render())
	}
}

func (d *doc) String() string {
	sep := "\n\n"
	if d.style == StyleHTML {
		sep = "\n"
	}
	return strings.Join(d.parts, sep)
}
