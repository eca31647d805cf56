package format

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	contractx "github.com/tanpawarit/erp-insight-agent/agent/contract"
)

// Narrative renders r as a short explanation followed by a table. Errors
// become one polite sentence without the underlying message.
func (f *Formatter) Narrative(r contractx.QueryResult) string {
	d := &doc{style: f.style}
	if !r.OK() {
		d.line("%s", ErrorSentence(r.ErrorKind))
		return d.String()
	}

	switch p := r.Payload.(type) {
	case contractx.ProductCount:
		d.line("Hay %d productos activos en el inventario.", p.TotalProducts)
	case contractx.InventorySummary:
		inventorySummary(d, p)
	case contractx.ProductSearch:
		productSearch(d, p)
	case contractx.LowStock:
		lowStock(d, p)
	case contractx.QuotationSearch:
		quotationSearch(d, p)
	case contractx.CRMSummary:
		d.line("CRM: %d oportunidades abiertas, %d ganadas y %d perdidas (%d en total).",
			p.OpenOpportunities, p.WonOpportunities, p.LostOpportunities, p.TotalOpportunities)
		d.line("Ingreso esperado de las abiertas: %s.", Money(p.TotalExpectedRevenue, p.Currency))
	case contractx.OpenOpportunityCount:
		d.line("Hay %d oportunidades abiertas.", p.OpenOpportunities)
	case contractx.OpportunitiesByStage:
		opportunitiesByStage(d, p)
	case contractx.PipelineSummary:
		pipelineSummary(d, p)
	case contractx.OpenOpportunities:
		openOpportunities(d, p)
	case contractx.StageSearch:
		stageSearch(d, p)
	case contractx.LeadInfo:
		leadInfo(d, p)
	case contractx.OpportunityCreated:
		opportunityCreated(d, p)
	case contractx.Help:
		help(d, p)
	case contractx.ToolList:
		toolList(d, p)
	default:
		raw, err := json.Marshal(r)
		if err != nil {
			d.line("%s", ErrorSentence(contractx.KindDataAccess))
			break
		}
		d.line("%s", string(raw))
	}
	return d.String()
}

// ErrorSentence is the chat-facing text for an error kind.
func ErrorSentence(kind contractx.ErrorKind) string {
	switch kind {
	case contractx.KindToolNotFound:
		return "Lo siento, no conozco esa consulta. Escribe «ayuda» para ver lo que puedo responder."
	case contractx.KindValidation:
		return "Lo siento, algún dato de la consulta no es válido. Revisa los valores e inténtalo de nuevo."
	case contractx.KindConflict:
		return "Ya existe un registro activo con esos datos, así que no he creado uno nuevo."
	default:
		return "Lo siento, no pude consultar los datos en este momento. Inténtalo de nuevo en unos minutos."
	}
}

func inventorySummary(d *doc, p contractx.InventorySummary) {
	d.line("Inventario: %d productos activos con %s unidades en stock.", p.TotalProducts, Qty(p.TotalStockQuantity))
	if len(p.LowStockProducts) == 0 {
		d.line("Ningún producto tiene stock bajo (hasta %s unidades).", Qty(p.LowStockThreshold))
		return
	}
	d.line("Productos con stock bajo (hasta %s unidades):", Qty(p.LowStockThreshold))
	rows := make([]table.Row, 0, len(p.LowStockProducts))
	for _, it := range p.LowStockProducts {
		rows = append(rows, table.Row{it.ID, it.Name, Qty(it.QtyAvailable)})
	}
	d.table(table.Row{"ID", "Producto", "Stock"}, rows, nil, 1, 3)
}

func productSearch(d *doc, p contractx.ProductSearch) {
	subject := fmt.Sprintf("«%s»", p.Term)
	if p.Category != "" {
		subject = fmt.Sprintf("la categoría «%s»", p.Category)
	}
	if p.Count == 0 {
		d.line("No encontré productos para %s.", subject)
		return
	}
	d.line("Encontré %d productos para %s:", p.Count, subject)
	rows := make([]table.Row, 0, len(p.Products))
	for _, h := range p.Products {
		rows = append(rows, table.Row{
			h.Name, h.Category, Qty(h.QtyAvailable),
			Money(h.ListPrice, p.Currency), Money(h.StockValue, p.Currency), stockLabel(h.StockStatus),
		})
	}
	d.table(table.Row{"Producto", "Categoría", "Stock", "Precio", "Valor", "Estado"}, rows, nil, 3, 4, 5)
}

func stockLabel(s contractx.StockStatus) string {
	switch s {
	case contractx.StockOut:
		return "Sin stock"
	case contractx.StockLow:
		return "Stock bajo"
	default:
		return "Disponible"
	}
}

func lowStock(d *doc, p contractx.LowStock) {
	if p.Count == 0 {
		d.line("No hay productos con stock por debajo de %s unidades.", Qty(p.Threshold))
		return
	}
	d.line("%d productos tienen stock por debajo de %s unidades:", p.Count, Qty(p.Threshold))
	rows := make([]table.Row, 0, len(p.Products))
	for _, it := range p.Products {
		rows = append(rows, table.Row{
			it.Name, Qty(it.QtyAvailable), Qty(it.SuggestedRestock),
			Money(it.ListPrice, p.Currency), Money(it.RestockValue, p.Currency),
		})
	}
	d.table(table.Row{"Producto", "Stock", "Reponer", "Precio", "Costo"}, rows,
		table.Row{"Total", "", "", "", Money(p.TotalRestockValue, p.Currency)}, 2, 3, 4, 5)
	d.line("Costo total de reposición: %s.", Money(p.TotalRestockValue, p.Currency))
}

func quotationSearch(d *doc, p contractx.QuotationSearch) {
	if len(p.MatchedProducts) == 0 {
		d.line("No encontré productos para «%s».", p.Term)
		return
	}
	if p.Count == 0 {
		d.line("No hay cotizaciones abiertas con productos que coincidan con «%s».", p.Term)
		return
	}
	d.line("%d cotizaciones abiertas incluyen productos que coinciden con «%s»:", p.Count, p.Term)
	rows := []table.Row{}
	for _, q := range p.Quotations {
		for _, l := range q.Lines {
			rows = append(rows, table.Row{
				q.Name, q.Customer, q.State, q.DateOrder, l.Product,
				Qty(l.Quantity), Qty(l.QtyAvailable), coverageLabel(l.StockStatus),
			})
		}
	}
	d.table(table.Row{"Cotización", "Cliente", "Estado", "Fecha", "Producto", "Cantidad", "Disponible", "Cobertura"}, rows, nil, 6, 7)
}

func coverageLabel(s contractx.LineStockStatus) string {
	switch s {
	case contractx.LineStockSufficient:
		return "Suficiente"
	case contractx.LineStockPartial:
		return "Parcial"
	default:
		return "Sin stock"
	}
}

func opportunitiesByStage(d *doc, p contractx.OpportunitiesByStage) {
	if p.TotalStages == 0 {
		d.line("No hay oportunidades activas en ninguna etapa.")
		return
	}
	d.line("Oportunidades activas en %d etapas:", p.TotalStages)
	rows := make([]table.Row, 0, len(p.Stages))
	for _, b := range p.Stages {
		rows = append(rows, table.Row{b.StageName, b.Count, Money(b.ExpectedRevenue, p.Currency)})
	}
	d.table(table.Row{"Etapa", "Oportunidades", "Ingreso esperado"}, rows, nil, 2, 3)
}

func pipelineSummary(d *doc, p contractx.PipelineSummary) {
	if p.TotalOpportunities == 0 {
		d.line("No hay oportunidades activas en el pipeline.")
		return
	}
	d.line("Pipeline: %d oportunidades en %d etapas por %s (ticket promedio %s).",
		p.TotalOpportunities, p.TotalStages, Money(p.TotalRevenue, p.Currency), Money(p.AverageDeal, p.Currency))
	rows := make([]table.Row, 0, len(p.Stages))
	for _, st := range p.Stages {
		rows = append(rows, table.Row{st.Stage, st.Count, Money(st.Revenue, p.Currency), Money(st.AverageDeal, p.Currency)})
	}
	d.table(table.Row{"Etapa", "Cantidad", "Ingreso", "Promedio"}, rows,
		table.Row{"Total", p.TotalOpportunities, Money(p.TotalRevenue, p.Currency), Money(p.AverageDeal, p.Currency)}, 2, 3, 4)
}

func openOpportunities(d *doc, p contractx.OpenOpportunities) {
	if p.Count == 0 {
		d.line("No hay oportunidades abiertas.")
		return
	}
	d.line("%d oportunidades abiertas por %s:", p.Count, Money(p.TotalRevenue, p.Currency))
	rows := make([]table.Row, 0, len(p.Opportunities))
	for _, o := range p.Opportunities {
		rows = append(rows, table.Row{
			o.Name, o.Customer, o.Stage, percent(o.Probability),
			Money(o.ExpectedRevenue, p.Currency), Money(o.WeightedRevenue, p.Currency),
		})
	}
	d.table(table.Row{"Oportunidad", "Cliente", "Etapa", "Prob.", "Ingreso", "Ponderado"}, rows, nil, 4, 5, 6)
}

func stageSearch(d *doc, p contractx.StageSearch) {
	if len(p.MatchedStages) == 0 {
		d.line("No existe una etapa que coincida con «%s».", p.Stage)
		return
	}
	if p.Count == 0 {
		d.line("No hay registros activos en la etapa %s.", p.MatchedStages[0])
		return
	}
	d.line("%d registros en la etapa %s:", p.Count, p.MatchedStages[0])
	rows := make([]table.Row, 0, len(p.Records))
	for _, r := range p.Records {
		rows = append(rows, table.Row{r.Name, recordType(r.Type), r.Stage})
	}
	d.table(table.Row{"Nombre", "Tipo", "Etapa"}, rows, nil)
}

func recordType(t string) string {
	if t == "lead" {
		return "Lead"
	}
	return "Oportunidad"
}

func leadInfo(d *doc, p contractx.LeadInfo) {
	if p.Count == 0 {
		d.line("No encontré leads ni oportunidades para «%s».", p.Term)
		return
	}
	d.line("Encontré %d registros:", p.Count)
	rows := make([]table.Row, 0, len(p.Records))
	for _, r := range p.Records {
		rows = append(rows, table.Row{
			r.Name, recordType(r.Type), r.Customer, r.Stage, r.Email, r.Phone, Money(r.ExpectedRevenue, p.Currency),
		})
	}
	d.table(table.Row{"Nombre", "Tipo", "Cliente", "Etapa", "Email", "Teléfono", "Ingreso"}, rows, nil, 7)
}

func opportunityCreated(d *doc, p contractx.OpportunityCreated) {
	o := p.Opportunity
	msg := fmt.Sprintf("He creado %s «%s» (id %d)", article(o.Type), o.Name, o.ID)
	if o.Customer != "" {
		msg += " para " + o.Customer
	}
	if o.Stage != "" {
		msg += " en la etapa " + o.Stage
	}
	d.line("%s.", msg)
	if o.ExpectedRevenue > 0 {
		d.line("Ingreso esperado: %s.", Money(o.ExpectedRevenue, p.Currency))
	}
}

func article(t string) string {
	if t == "lead" {
		return "el lead"
	}
	return "la oportunidad"
}

func help(d *doc, p contractx.Help) {
	d.line("%s", p.Message)
	for _, c := range p.Categories {
		d.line("%s:", c.Title)
		d.list(c.Examples)
	}
}

func toolList(d *doc, p contractx.ToolList) {
	d.line("%d consultas disponibles:", p.Count)
	rows := make([]table.Row, 0, len(p.Tools))
	for _, t := range p.Tools {
		rows = append(rows, table.Row{t.ID, t.Category, t.Title})
	}
	d.table(table.Row{"ID", "Categoría", "Título"}, rows, nil)
}
