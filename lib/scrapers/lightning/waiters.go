package lightning

import (
	"context"
	"fmt"
	"time"

	"sfextract-backend/lib/dom"
)

// DefaultTimeout bounds how long a readiness waiter blocks for the page to
// materialize the subtree a strategy reads.
const DefaultTimeout = 10 * time.Second

var ElementsNotFound = fmt.Errorf("expected page elements never appeared")
var WrongView = fmt.Errorf("detected kanban board instead of list rows")

// Selectors for the markers each view kind materializes. The record layout
// has one selector per renderer generation.
const (
	recordItemSelector       = "records-record-layout-item"
	legacyRecordItemSelector = ".forcePageBlockItem"
	listRowSelector          = "tbody tr"
	kanbanColumnSelector     = ".runtime_sales_pipelineboardPipelineViewColumn"
)

// await blocks until check reports done or fails, re-running it on every
// DOM mutation. The immediate check before subscribing avoids waiting on a
// page that is already rendered.
func await(ctx context.Context, doc dom.Document, timeout time.Duration, check func() (bool, error)) error {
	done, err := check()
	if done || err != nil {
		return err
	}

	mutations, release := doc.Watch()
	defer release()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-mutations:
			done, err := check()
			if done || err != nil {
				return err
			}
		case <-timer.C:
			return ElementsNotFound
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func waitForRecordLayout(ctx context.Context, doc dom.Document, timeout time.Duration) error {
	return await(ctx, doc, timeout, func() (bool, error) {
		if len(doc.Query(recordItemSelector)) > 0 {
			return true, nil
		}
		if len(doc.Query(legacyRecordItemSelector)) > 0 {
			return true, nil
		}
		return false, nil
	})
}

// waitForListRows fails fast with WrongView when the kanban marker shows up
// first: list and kanban are mutually exclusive render targets for the same
// URL shape, so waiting out the timeout would only delay the bad news.
func waitForListRows(ctx context.Context, doc dom.Document, timeout time.Duration) error {
	return await(ctx, doc, timeout, func() (bool, error) {
		if len(doc.Query(kanbanColumnSelector)) > 0 {
			return false, WrongView
		}
		if len(doc.Query(listRowSelector)) > 0 {
			return true, nil
		}
		return false, nil
	})
}

func waitForKanbanColumns(ctx context.Context, doc dom.Document, timeout time.Duration) error {
	return await(ctx, doc, timeout, func() (bool, error) {
		return len(doc.Query(kanbanColumnSelector)) > 0, nil
	})
}
