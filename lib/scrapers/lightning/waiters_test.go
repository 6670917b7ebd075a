package lightning

import (
	"context"
	"testing"
	"time"

	"sfextract-backend/lib/dom/gqdom"

	"github.com/stretchr/testify/require"
)

func TestAwaitAlreadyRendered(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body><records-record-layout-item></records-record-layout-item></body></html>")
	require.NoError(t, err)

	// no mutation ever fires; the immediate check must be enough
	err = waitForRecordLayout(context.Background(), doc, 50*time.Millisecond)
	require.NoError(t, err)
}

func TestAwaitWakesOnMutation(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body><p>loading...</p></body></html>")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		doc.SetHTML("<html><body><table><tbody><tr><td data-label=\"Name\">Jane</td></tr></tbody></table></body></html>")
	}()

	err = waitForListRows(context.Background(), doc, 5*time.Second)
	require.NoError(t, err)
}

func TestAwaitTimesOut(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body></body></html>")
	require.NoError(t, err)

	err = waitForKanbanColumns(context.Background(), doc, 50*time.Millisecond)
	require.ErrorIs(t, err, ElementsNotFound)
}

func TestAwaitHonorsContext(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body></body></html>")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = waitForRecordLayout(ctx, doc, 5*time.Second)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAwaitWrongViewOnLateKanban(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body><p>loading...</p></body></html>")
	require.NoError(t, err)

	go func() {
		time.Sleep(20 * time.Millisecond)
		doc.SetHTML("<html><body>" + kanbanBoardHtml + "</body></html>")
	}()

	err = waitForListRows(context.Background(), doc, 5*time.Second)
	require.ErrorIs(t, err, WrongView)
}
