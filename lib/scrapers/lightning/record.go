package lightning

import (
	"context"
	"log/slog"
	"strings"

	"sfextract-backend/lib/dom"

	"go.opentelemetry.io/otel/codes"
)

// Selector pairs for a label/value item container, one per renderer
// generation. The modern renderer additionally has a slot-based fallback
// shape for items that don't carry the test-id classes.
const (
	fieldLabelSelector = ".test-id__field-label"
	fieldValueSelector = ".test-id__field-value"

	fallbackLabelSelector = "span[title]"
	fallbackValueSelector = "slot slot"
)

// RecordStrategy extracts the single record a detail page renders.
type RecordStrategy struct {
	Doc  dom.Document
	Opts Options
}

func (s RecordStrategy) Extract(ctx context.Context, object ObjectKind, mapping map[string]string, schema []string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "RecordStrategy.Extract")
	defer span.End()

	// fields may be parked outside the DOM until the detail tab is
	// active; switching is best-effort, the waiter below does the real
	// synchronization
	if activator, ok := s.Doc.(dom.DetailTabActivator); ok {
		err := activator.ActivateDetailTab(ctx)
		if err != nil {
			slog.WarnContext(ctx, "failed to activate detail tab", "err", err)
		}
	}

	err := waitForRecordLayout(ctx, s.Doc, s.Opts.timeout())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "record layout never appeared")
		return nil, err
	}

	raw := map[string]string{}
	for _, item := range s.Doc.Query(recordItemSelector) {
		// parallel tab layouts keep invisible duplicate containers
		// around; reading them would overwrite fresh values with
		// stale ones
		if !item.Visible() {
			continue
		}
		s.readItem(ctx, item, mapping, raw, true)
	}
	for _, item := range s.Doc.Query(legacyRecordItemSelector) {
		if !item.Visible() {
			continue
		}
		s.readItem(ctx, item, mapping, raw, false)
	}

	path := ""
	pageUrl := ""
	if s.Opts.PageURL != nil {
		path = s.Opts.PageURL.Path
		pageUrl = s.Opts.PageURL.String()
	}

	record := normalize(object, raw, schema, recordIdFromPath(path))
	record.Url = pageUrl
	return []Record{record}, nil
}

func (s RecordStrategy) readItem(ctx context.Context, item dom.Node, mapping map[string]string, out map[string]string, allowFallback bool) {
	labels := item.Query(fieldLabelSelector)
	values := item.Query(fieldValueSelector)
	if len(labels) > 0 && len(values) > 0 {
		s.assign(ctx, mapping, out, labels[0].Text(), values[0].Text())
		return
	}

	if !allowFallback {
		return
	}
	labels = item.Query(fallbackLabelSelector)
	values = item.Query(fallbackValueSelector)
	if len(labels) > 0 && len(values) > 0 {
		s.assign(ctx, mapping, out, labels[0].Text(), values[0].Text())
	}
}

func (s RecordStrategy) assign(ctx context.Context, mapping map[string]string, out map[string]string, label, value string) {
	label = strings.TrimSpace(label)
	key, ok := mapping[label]
	if !ok {
		logUnmappedLabel(ctx, mapping, label)
		return
	}
	out[key] = strings.TrimSpace(value)
}
