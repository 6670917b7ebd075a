package lightning

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"sfextract-backend/lib/dom"

	"go.opentelemetry.io/otel/codes"
)

const (
	rowIdAttr        = "data-row-key-value"
	cellLabelAttr    = "data-label"
	linkRecordIdAttr = "data-recordid"

	listCellSelector    = "td, th"
	labeledCellSelector = "td[data-label], th[data-label]"
	editButtonSelector  = `button[title^="Edit "]`
	cellOutputSelector  = ".uiOutputText, .uiOutputDate, .outputLookupLink"
	recordLinkSelector  = "a[data-recordid]"
)

// The legacy renderer's list cells carry no machine-readable column label;
// the only place the column name survives is the inline edit button's
// accessible title, "Edit <Label>: ...".
var editTitleRegex = regexp.MustCompile(`Edit (.*?):`)
var editNoiseRegex = regexp.MustCompile(`Edit .*`)

// ListStrategy extracts one record per table row. Task lists render in the
// legacy generation and need the edit-button workaround; every other kind
// exposes a per-cell label attribute.
type ListStrategy struct {
	Doc  dom.Document
	Opts Options
}

func (s ListStrategy) Extract(ctx context.Context, object ObjectKind, mapping map[string]string, schema []string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "ListStrategy.Extract")
	defer span.End()

	err := waitForListRows(ctx, s.Doc, s.Opts.timeout())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list rows never appeared")
		return nil, err
	}

	var records []Record
	for _, row := range s.Doc.Query(listRowSelector) {
		rowId, _ := row.Attr(rowIdAttr)

		var rawLabels map[string]string
		if object == Task {
			rawLabels, rowId = s.readLegacyRow(row, rowId)
		} else {
			rawLabels = s.readRow(row)
		}

		record := normalize(object, applyMapping(ctx, rawLabels, mapping), schema, rowId)
		if record.Id == "" {
			slog.WarnContext(ctx, "list row has no identity", "object", string(object))
		}
		// rows with zero matched fields are still emitted (all null) so
		// the output row count matches the page
		records = append(records, record)
	}
	return records, nil
}

func (s ListStrategy) readRow(row dom.Node) map[string]string {
	rawLabels := map[string]string{}
	for _, cell := range row.Query(labeledCellSelector) {
		label, _ := cell.Attr(cellLabelAttr)
		if label == "" {
			continue
		}
		if text := strings.TrimSpace(cell.Text()); text != "" {
			rawLabels[label] = text
		}
	}
	return rawLabels
}

func (s ListStrategy) readLegacyRow(row dom.Node, rowId string) (map[string]string, string) {
	rawLabels := map[string]string{}
	for _, cell := range row.Query(listCellSelector) {
		if buttons := cell.Query(editButtonSelector); len(buttons) > 0 {
			title, _ := buttons[0].Attr("title")
			if match := editTitleRegex.FindStringSubmatch(title); match != nil {
				label := strings.TrimSpace(match[1])
				if label != "" {
					rawLabels[label] = s.legacyCellValue(cell, title)
				}
			}
		}

		if rowId == "" {
			if links := cell.Query(recordLinkSelector); len(links) > 0 {
				rowId, _ = links[0].Attr(linkRecordIdAttr)
			}
		}
	}
	return rawLabels, rowId
}

// legacyCellValue prefers the cell's dedicated output element; failing
// that, the full cell text minus the edit button's title.
func (s ListStrategy) legacyCellValue(cell dom.Node, title string) string {
	if outputs := cell.Query(cellOutputSelector); len(outputs) > 0 {
		return strings.TrimSpace(outputs[0].Text())
	}
	value := strings.TrimSpace(strings.Replace(cell.Text(), title, "", 1))
	return strings.TrimSpace(editNoiseRegex.ReplaceAllString(value, ""))
}
