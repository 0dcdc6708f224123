// Package table converts domain values into rows for tabular CLI output.
package table

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/recordlink/pkg/records"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align
}

const maxCell = 48

// RecordsToTableData converts records to table format. Wide adds contact
// columns and global metadata.
func RecordsToTableData(recs []records.Record, wide bool) Data {
	headers := []string{"ID", "Kind", "Name", "Website", "Global"}
	if wide {
		headers = append(headers, "Emails", "Phones", "Quality", "Version", "Created")
	}
	rows := make([][]string, 0, len(recs))
	for _, rec := range recs {
		row := []string{
			rec.ID,
			string(rec.Kind),
			dash(displayName(rec)),
			dash(rec.Website),
			yesNo(rec.IsGlobal),
		}
		if wide {
			quality, version := "-", "-"
			if meta := rec.GlobalMetadata; meta != nil {
				quality = strconv.Itoa(meta.QualityScore)
				version = strconv.Itoa(meta.Version)
			}
			row = append(row,
				dash(truncate(strings.Join(rec.Emails, ", "))),
				dash(truncate(strings.Join(rec.Phones, ", "))),
				quality,
				version,
				formatTime(rec.CreatedAt),
			)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// ReferencesToTableData converts references to table format.
func ReferencesToTableData(refs []records.Reference) Data {
	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{
			ref.ID,
			ref.LocalID,
			ref.GlobalID,
			string(ref.Kind),
			yesNo(ref.IsActive),
			dash(truncate(ref.LocalNotes)),
		})
	}
	return Data{
		Headers: []string{"ID", "Local ID", "Global ID", "Kind", "Active", "Notes"},
		Rows:    rows,
	}
}

// AuditToTableData converts audit entries to table format.
func AuditToTableData(entries []records.AuditEntry) Data {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			formatTime(e.Timestamp),
			e.Action,
			e.EntityID,
			dash(e.TenantID),
			e.PerformedBy,
			yesNo(e.IsLive),
			dash(truncate(formatChanges(e.Changes))),
		})
	}
	return Data{
		Headers: []string{"Time", "Action", "Entity", "Tenant", "By", "Live", "Changes"},
		Rows:    rows,
	}
}

// EnrichmentLogsToTableData converts enrichment logs to table format.
func EnrichmentLogsToTableData(logs []records.EnrichmentLog) Data {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{
			formatTime(l.Timestamp),
			l.EntityID,
			dash(strings.Join(l.FieldsAdded, ", ")),
			dash(strings.Join(l.FieldsUpdated, ", ")),
			strconv.Itoa(l.Conflicts),
			strconv.FormatFloat(l.Confidence, 'f', 2, 64),
			l.ActorID,
		})
	}
	return Data{
		Headers:         []string{"Time", "Record", "Added", "Updated", "Conflicts", "Confidence", "Actor"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignDefault, AlignDefault, AlignDefault, AlignDefault, AlignRight, AlignRight, AlignDefault},
	}
}

// KeyValue builds a two column property table from ordered pairs.
func KeyValue(pairs ...[2]string) Data {
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], dash(p[1])})
	}
	return Data{Headers: []string{"Property", "Value"}, Rows: rows}
}

func displayName(rec records.Record) string {
	if rec.Name != "" {
		return rec.Name
	}
	return rec.OfficialName
}

func formatChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	keys := make([]string, 0, len(changes))
	for k := range changes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, changes[k]))
	}
	return strings.Join(parts, " ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func truncate(s string) string {
	if len(s) > maxCell {
		return s[:maxCell-3] + "..."
	}
	return s
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
