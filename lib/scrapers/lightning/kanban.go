package lightning

import (
	"context"
	"regexp"
	"strings"

	"sfextract-backend/lib/dom"

	"go.opentelemetry.io/otel/codes"
)

const (
	kanbanCardSelector   = ".pipelineViewCard"
	stageHeaderSelector  = ".stageHeaderLabel"
	columnHeaderSelector = ".runtime_sales_pipelineboardPipelineViewColumnHeader"
	primaryFieldSelector = ".primaryDisplayField a"
	lookupLinkSelector   = "a.forceOutputLookup"

	amountSelector        = ".sfaOpportunityDealMotionAmount"
	genericAmountSelector = ".uiOutputNumber"
	closeDateSelector     = ".sfaOpportunityDealMotionCloseDate .uiOutputDate"
	genericDateSelector   = ".uiOutputDate"
)

// Record identities embedded in card link hrefs are 15 or 18 character
// alphanumeric tokens between path separators.
var hrefRecordIdRegex = regexp.MustCompile(`/([a-zA-Z0-9]{15,18})(/|$)`)

// KanbanStrategy extracts one record per card on a pipeline board. The
// column header supplies the stage/status value for every card in it.
//
// Owner fields are deliberately not read from kanban cards: no reliable
// marker for them exists on the board, so they stay null here.
type KanbanStrategy struct {
	Doc  dom.Document
	Opts Options
}

func (s KanbanStrategy) Extract(ctx context.Context, object ObjectKind, mapping map[string]string, schema []string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "KanbanStrategy.Extract")
	defer span.End()

	err := waitForKanbanColumns(ctx, s.Doc, s.Opts.timeout())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "kanban columns never appeared")
		return nil, err
	}

	var records []Record
	for _, column := range s.Doc.Query(kanbanColumnSelector) {
		stage := columnStage(column)
		for _, card := range column.Query(kanbanCardSelector) {
			records = append(records, s.extractCard(object, schema, card, stage))
		}
	}
	return records, nil
}

func columnStage(column dom.Node) string {
	if headers := column.Query(stageHeaderSelector); len(headers) > 0 {
		return strings.TrimSpace(headers[0].Text())
	}
	if headers := column.Query(columnHeaderSelector); len(headers) > 0 {
		return strings.TrimSpace(headers[0].Text())
	}
	return ""
}

func (s KanbanStrategy) extractCard(object ObjectKind, schema []string, card dom.Node, stage string) Record {
	raw := map[string]string{}

	var nameEl dom.Node
	id := ""
	if names := card.Query(primaryFieldSelector); len(names) > 0 {
		nameEl = names[0]
		raw["name"] = strings.TrimSpace(nameEl.Text())

		if href, ok := nameEl.Attr("href"); ok {
			if match := hrefRecordIdRegex.FindStringSubmatch(href); match != nil {
				id = match[1]
			}
		}
		// the legacy generation puts the identity on the link itself
		if id == "" {
			id, _ = nameEl.Attr(linkRecordIdAttr)
		}
	}

	// the column header lands in stage and/or status, but only when the
	// kind's schema declares the field
	if stage != "" {
		if schemaHas(schema, "stage") {
			raw["stage"] = stage
		}
		if schemaHas(schema, "status") {
			raw["status"] = stage
		}
	}

	if amounts := firstMatch(card, amountSelector, genericAmountSelector); len(amounts) > 0 {
		raw["amount"] = strings.TrimSpace(amounts[0].Text())
	}
	if dates := firstMatch(card, closeDateSelector, genericDateSelector); len(dates) > 0 {
		raw["closeDate"] = strings.TrimSpace(dates[0].Text())
	}

	if object == Task {
		if dates := card.Query(genericDateSelector); len(dates) > 0 {
			raw["dueDate"] = strings.TrimSpace(dates[0].Text())
		}
		if name, ok := raw["name"]; ok {
			raw["subject"] = name
		}
	}

	// any non-primary relationship anchor mirrors into every
	// relationship-shaped field the kind defines; the last one wins
	for _, link := range card.Query(lookupLinkSelector) {
		if nameEl != nil && link == nameEl {
			continue
		}
		text := strings.TrimSpace(link.Text())
		raw["accountName"] = text
		raw["relatedTo"] = text
		raw["associatedAccount"] = text
	}

	return normalize(object, raw, schema, id)
}

func firstMatch(card dom.Node, selectors ...string) []dom.Node {
	for _, selector := range selectors {
		if found := card.Query(selector); len(found) > 0 {
			return found
		}
	}
	return nil
}
