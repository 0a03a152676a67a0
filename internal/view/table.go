package view

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/bassista/go_fuel/internal/entity"
)

// Column is one displayed field of a list view.
type Column struct {
	Field string `json:"field"`
	Title string `json:"title"`
	// Sum marks numeric columns that get a total under the table.
	Sum bool `json:"sum,omitempty"`
}

// Table is the list layout for one entity kind.
type Table struct {
	Kind    entity.Kind
	Columns []Column
}

// Page is one rendered state of a list view.
type Page struct {
	Kind    entity.Kind       `json:"kind"`
	Query   string            `json:"query,omitempty"`
	Columns []Column          `json:"columns"`
	Rows    entity.Collection `json:"rows"`
	Count   int               `json:"count"`
	Totals  map[string]string `json:"totals,omitempty"`
}

func col(field, title string) Column { return Column{Field: field, Title: title} }
func sum(field, title string) Column { return Column{Field: field, Title: title, Sum: true} }

var defaultColumns = map[entity.Kind][]Column{
	entity.KindCustomer:    {col("id", "ID"), col("name", "Name"), col("phone", "Phone"), col("address", "Address"), col("notes", "Notes")},
	entity.KindSupplier:    {col("id", "ID"), col("name", "Name"), col("phone", "Phone"), col("address", "Address"), col("notes", "Notes")},
	entity.KindWorker:      {col("id", "ID"), col("name", "Name"), col("phone", "Phone"), col("role", "Role"), sum("salary", "Salary")},
	entity.KindPump:        {col("id", "ID"), col("name", "Name"), col("fuel_type", "Fuel"), col("tank_id", "Tank"), col("status", "Status")},
	entity.KindTank:        {col("id", "ID"), col("name", "Name"), col("fuel_type", "Fuel"), sum("capacity", "Capacity"), sum("quantity", "Quantity")},
	entity.KindTransaction: {col("id", "ID"), col("date", "Date"), col("type", "Type"), col("party", "Party"), sum("amount", "Amount"), col("notes", "Notes")},
}

// DefaultTable returns the built-in layout for kind.
func DefaultTable(kind entity.Kind) Table {
	cols, ok := defaultColumns[kind]
	if !ok {
		cols = []Column{col("id", "ID"), col("name", "Name")}
	}
	return Table{Kind: kind, Columns: slices.Clone(cols)}
}

// Rows returns the records matching the free-text query, in collection order.
func (t Table) Rows(c entity.Collection, query string) entity.Collection {
	rows := entity.Collection{}
	for r := range entity.Filter(c, entity.MatchText(query)) {
		rows = append(rows, r)
	}
	return rows
}

// Totals sums every Sum column over rows. Cells that are not numbers are skipped.
func (t Table) Totals(rows entity.Collection) map[string]decimal.Decimal {
	var totals map[string]decimal.Decimal
	for _, c := range t.Columns {
		if !c.Sum {
			continue
		}
		if totals == nil {
			totals = map[string]decimal.Decimal{}
		}
		total := decimal.Zero
		for _, r := range rows {
			d, err := decimal.NewFromString(strings.TrimSpace(entity.Text(r[c.Field])))
			if err != nil {
				continue
			}
			total = total.Add(d)
		}
		totals[c.Field] = total
	}
	return totals
}

// Page filters c and computes the totals of what is shown.
func (t Table) Page(c entity.Collection, query string) Page {
	rows := t.Rows(c, query)
	p := Page{
		Kind:    t.Kind,
		Query:   strings.TrimSpace(query),
		Columns: t.Columns,
		Rows:    rows,
		Count:   len(rows),
	}
	if totals := t.Totals(rows); totals != nil {
		p.Totals = make(map[string]string, len(totals))
		for field, d := range totals {
			p.Totals[field] = d.String()
		}
	}
	return p
}

// Render writes rows as an aligned text table, with a totals line when the
// layout has Sum columns.
func (t Table) Render(w io.Writer, rows entity.Collection) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	titles := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		titles[i] = strings.ToUpper(c.Title)
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))

	cells := make([]string, len(t.Columns))
	for _, r := range rows {
		for i, c := range t.Columns {
			cells[i] = cellText(r[c.Field])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	if totals := t.Totals(rows); totals != nil {
		for i, c := range t.Columns {
			switch {
			case c.Sum:
				cells[i] = totals[c.Field].String()
			case i == 0:
				cells[i] = "TOTAL"
			default:
				cells[i] = ""
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// cellText keeps each cell on one line so the columns stay aligned.
func cellText(v any) string {
	s := entity.Text(v)
	if s == "" {
		return "-"
	}
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(s)
}
