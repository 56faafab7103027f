package export

import (
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

const dateFormat = "02/01/2006"

var (
	titleStyle  = props.Text{Size: 16, Style: fontstyle.Bold}
	headerStyle = props.Text{Size: 9, Style: fontstyle.Bold}
	bodyStyle   = props.Text{Size: 9}
	rightBody   = props.Text{Size: 9, Align: align.Right}
	rightHeader = props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
)

// QuotePDF renders doc as an A4 PDF.
func QuotePDF(doc QuoteDocument) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(6, doc.Issuer.Name, titleStyle),
		text.NewCol(6, "DEVIS "+doc.Number, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRows(parties(doc)...)
	m.AddRows(line.NewRow(4))
	m.AddRows(meta(doc)...)
	m.AddRows(itemTable(doc)...)
	m.AddRows(rateTable(doc)...)
	m.AddRows(totals(doc)...)
	m.AddRows(footer(doc)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate quote pdf: %w", err)
	}
	return out.GetBytes(), nil
}

func partyLines(p Party) []string {
	var lines []string
	if p.Address != "" {
		lines = append(lines, strings.Split(p.Address, "\n")...)
	}
	for _, s := range []string{p.Email, p.Phone} {
		if s != "" {
			lines = append(lines, s)
		}
	}
	if p.SIRET != "" {
		lines = append(lines, "SIRET "+p.SIRET)
	}
	if p.VATNumber != "" {
		lines = append(lines, "TVA "+p.VATNumber)
	}
	return lines
}

func parties(doc QuoteDocument) []core.Row {
	issuer := partyLines(doc.Issuer)
	client := append([]string{doc.Client.Name}, partyLines(doc.Client)...)
	rows := []core.Row{
		row.New(6).Add(
			text.NewCol(6, "Émetteur", headerStyle),
			text.NewCol(6, "Client", headerStyle),
		),
	}
	n := max(len(issuer), len(client))
	for i := 0; i < n; i++ {
		rows = append(rows, row.New(5).Add(
			text.NewCol(6, at(issuer, i), bodyStyle),
			text.NewCol(6, at(client, i), bodyStyle),
		))
	}
	return rows
}

func meta(doc QuoteDocument) []core.Row {
	rows := []core.Row{}
	if doc.Title != "" {
		rows = append(rows, text.NewRow(8, doc.Title, props.Text{Size: 11, Style: fontstyle.Bold}))
	}
	valid := "-"
	if doc.ValidUntil != nil {
		valid = doc.ValidUntil.Format(dateFormat)
	}
	rows = append(rows, row.New(6).Add(
		text.NewCol(4, "Date : "+doc.IssueDate.Format(dateFormat), bodyStyle),
		text.NewCol(4, "Valable jusqu'au : "+valid, bodyStyle),
		text.NewCol(4, "Statut : "+doc.Status, rightBody),
	))
	return append(rows, line.NewRow(4))
}

func itemTable(doc QuoteDocument) []core.Row {
	rows := []core.Row{
		row.New(7).Add(
			text.NewCol(5, "Description", headerStyle),
			text.NewCol(1, "Qté", rightHeader),
			text.NewCol(2, "Prix unit. HT", rightHeader),
			text.NewCol(2, "TVA", rightHeader),
			text.NewCol(2, "Total HT", rightHeader),
		),
	}
	for _, l := range doc.Lines {
		rows = append(rows, row.New(6).Add(
			text.NewCol(5, l.Description, bodyStyle),
			text.NewCol(1, l.Quantity.String(), rightBody),
			text.NewCol(2, amount(l.UnitPrice, doc.Currency), rightBody),
			text.NewCol(2, percent(l.VATRate), rightBody),
			text.NewCol(2, amount(l.LineTotal, doc.Currency), rightBody),
		))
	}
	return append(rows, line.NewRow(4))
}

func rateTable(doc QuoteDocument) []core.Row {
	if len(doc.Rates) == 0 {
		return nil
	}
	rows := []core.Row{
		row.New(6).Add(
			col.New(6),
			text.NewCol(2, "Taux", rightHeader),
			text.NewCol(2, "Base HT", rightHeader),
			text.NewCol(2, "TVA", rightHeader),
		),
	}
	for _, r := range doc.Rates {
		rows = append(rows, row.New(5).Add(
			col.New(6),
			text.NewCol(2, percent(r.Rate), rightBody),
			text.NewCol(2, amount(r.Base, doc.Currency), rightBody),
			text.NewCol(2, amount(r.Tax, doc.Currency), rightBody),
		))
	}
	return rows
}

func totals(doc QuoteDocument) []core.Row {
	t := doc.Totals
	pairs := [][2]string{
		{"Total HT", amount(t.TotalExclTax, doc.Currency)},
		{"Total TVA", amount(t.TotalTax, doc.Currency)},
		{"Total TTC", amount(t.TotalInclTax, doc.Currency)},
	}
	rows := []core.Row{row.New(4)}
	for i, p := range pairs {
		style := rightBody
		if i == len(pairs)-1 {
			style = rightHeader
		}
		rows = append(rows, row.New(6).Add(
			col.New(8),
			text.NewCol(2, p[0], style),
			text.NewCol(2, p[1], style),
		))
	}
	return rows
}

func footer(doc QuoteDocument) []core.Row {
	var rows []core.Row
	if doc.Notes != "" {
		rows = append(rows, row.New(6), text.NewRow(10, doc.Notes, bodyStyle))
	}
	if doc.Conditions != "" {
		rows = append(rows,
			text.NewRow(6, "Conditions", headerStyle),
			text.NewRow(10, doc.Conditions, bodyStyle),
		)
	}
	return rows
}

func amount(d decimal.Decimal, currency string) string {
	return d.StringFixed(2) + " " + currency
}

func percent(d decimal.Decimal) string {
	return d.String() + " %"
}

func at(lines []string, i int) string {
	if i < len(lines) {
		return lines[i]
	}
	return ""
}
