package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gluedb/executor"
	"gluedb/value"
)

// resultFormat is an enum type representing the available ways to print a
// Payload, the same table/json/summary split the migration CLI's Formatter
// offers for a schema diff.
type resultFormat string

const (
	formatTable   resultFormat = "table"
	formatJSON    resultFormat = "json"
	formatSummary resultFormat = "summary"
)

func parseResultFormat(name string) (resultFormat, error) {
	f := resultFormat(strings.ToLower(strings.TrimSpace(name)))
	switch f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatSummary:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s; use 'table', 'json', or 'summary'", name)
	}
}

func formatPayload(p executor.Payload, format resultFormat) (string, error) {
	switch format {
	case formatJSON:
		return formatPayloadJSON(p)
	case formatSummary:
		return formatPayloadSummary(p), nil
	default:
		return formatPayloadTable(p), nil
	}
}

func formatPayloadSummary(p executor.Payload) string {
	if p.Statement == "SELECT" {
		return fmt.Sprintf("%s: %d row(s)", p.Statement, len(p.Rows))
	}
	return fmt.Sprintf("%s: %d row(s) affected", p.Statement, p.Affected)
}

func formatPayloadJSON(p executor.Payload) (string, error) {
	rows := make([][]any, len(p.Rows))
	for i, row := range p.Rows {
		r := make([]any, len(row))
		for j, v := range row {
			r[j] = jsonableValue(v)
		}
		rows[i] = r
	}
	out := struct {
		Statement string `json:"statement"`
		Labels    []string `json:"labels,omitempty"`
		Rows      [][]any  `json:"rows,omitempty"`
		Affected  int      `json:"affected,omitempty"`
	}{Statement: p.Statement, Labels: p.Labels, Rows: rows, Affected: p.Affected}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return string(b), nil
}

func jsonableValue(v value.Value) any {
	if v.IsNull() {
		return nil
	}
	return v.String()
}

func formatPayloadTable(p executor.Payload) string {
	if p.Statement != "SELECT" {
		return formatPayloadSummary(p) + "\n"
	}
	if len(p.Labels) == 0 {
		return "(no columns)\n"
	}

	widths := make([]int, len(p.Labels))
	for i, l := range p.Labels {
		widths[i] = len(l)
	}
	cells := make([][]string, len(p.Rows))
	for i, row := range p.Rows {
		c := make([]string, len(row))
		for j, v := range row {
			s := v.String()
			if v.IsNull() {
				s = "NULL"
			}
			c[j] = s
			if len(s) > widths[j] {
				widths[j] = len(s)
			}
		}
		cells[i] = c
	}

	var sb strings.Builder
	writeRow(&sb, p.Labels, widths)
	writeSeparator(&sb, widths)
	for _, c := range cells {
		writeRow(&sb, c, widths)
	}
	fmt.Fprintf(&sb, "(%d row(s))\n", len(p.Rows))
	return sb.String()
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteByte('|')
	for i, c := range cells {
		fmt.Fprintf(sb, " %-*s |", widths[i], c)
	}
	sb.WriteByte('\n')
}

func writeSeparator(sb *strings.Builder, widths []int) {
	sb.WriteByte('|')
	for _, w := range widths {
		sb.WriteString(strings.Repeat("-", w+2))
		sb.WriteByte('|')
	}
	sb.WriteByte('\n')
}
