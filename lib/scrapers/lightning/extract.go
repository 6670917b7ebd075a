package lightning

import (
	"context"
	"net/url"
	"time"

	"sfextract-backend/lib/dom"
)

// Strategy extracts raw records for one view kind. Implementations walk the
// DOM with a prioritized sequence of selectors, reconcile labels against the
// kind's mapping table and normalize onto the schema. Extraction suspends on
// the view's readiness waiter and fails with ElementsNotFound when the page
// never materializes.
type Strategy interface {
	Extract(ctx context.Context, object ObjectKind, mapping map[string]string, schema []string) ([]Record, error)
}

type Options struct {
	// Timeout bounds the readiness wait; DefaultTimeout when zero.
	Timeout time.Duration
	// PageURL is the current location. Record views derive identity and
	// the source url from it.
	PageURL *url.URL
}

func (o Options) timeout() time.Duration {
	if o.Timeout <= 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

// StrategyForView selects the extraction strategy matching a resolved view
// kind.
func StrategyForView(doc dom.Document, view ViewKind, opts Options) Strategy {
	switch view {
	case ViewRecord:
		return RecordStrategy{Doc: doc, Opts: opts}
	case ViewList:
		return ListStrategy{Doc: doc, Opts: opts}
	case ViewKanban:
		return KanbanStrategy{Doc: doc, Opts: opts}
	}
	return nil
}
