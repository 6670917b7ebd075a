package extractor

import (
	"context"
	"net/url"
	"testing"
	"time"

	"sfextract-backend/lib/dom/gqdom"
	"sfextract-backend/lib/kv/memkv"
	"sfextract-backend/lib/scrapers/lightning"
	"sfextract-backend/lib/telemetry"
	"sfextract-backend/services/recordstore"

	"github.com/stretchr/testify/require"
)

const leadRecordHtml = `
<html><body>
<records-record-layout-item>
	<div class="test-id__field-label">Lead Name</div>
	<div class="test-id__field-value">Jane Doe</div>
</records-record-layout-item>
<records-record-layout-item>
	<div class="test-id__field-label">Email</div>
	<div class="test-id__field-value">jane@example.com</div>
</records-record-layout-item>
</body></html>`

func setup(t testing.TB, html, rawUrl string) (Service, recordstore.Service, func()) {
	cleanup := telemetry.SetupForTesting(t, "test:services/extractor")

	doc, err := gqdom.ParseString(html)
	require.NoError(t, err)
	pageUrl, err := url.Parse(rawUrl)
	require.NoError(t, err)

	store := recordstore.NewService(memkv.NewStore())
	service := NewService(ServiceOptions{
		Doc:         doc,
		PageURL:     pageUrl,
		Store:       store,
		WaitTimeout: 50 * time.Millisecond,
	})
	return service, store, cleanup
}

func TestExtractRecordPage(t *testing.T) {
	service, store, cleanup := setup(
		t, leadRecordHtml,
		"https://org.lightning.force.com/lightning/r/record-mode/Lead/00Q5f000001LxyzEAC/view",
	)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	pageCtx := service.PageContext()
	require.NotNil(t, pageCtx)
	require.Equal(t, lightning.Lead, pageCtx.Object)
	require.Equal(t, lightning.ViewRecord, pageCtx.View)

	result, err := service.Extract(ctx)
	require.NoError(t, err)
	require.Equal(t, *pageCtx, result.Context)
	require.Len(t, result.Records, 1)
	require.Equal(t, "Jane Doe", result.Records[0].Field("name"))

	// persistence runs behind the result; settle before reading back
	service.Wait()

	state, err := store.State(ctx)
	require.NoError(t, err)
	require.Len(t, state.Leads, 1)
	require.Equal(t, "00Q5f000001LxyzEAC", state.Leads[0].Id)
	require.Equal(t, "jane@example.com", state.Leads[0].Field("email"))
	require.Greater(t, state.LastSync["leads"], int64(0))
}

func TestExtractUnknownContext(t *testing.T) {
	service, _, cleanup := setup(
		t, "<html><body></body></html>",
		"https://org.lightning.force.com/lightning/page/home",
	)
	defer cleanup()

	_, err := service.Extract(context.Background())
	require.ErrorIs(t, err, UnknownContext)
}

func TestExtractUnsupportedObject(t *testing.T) {
	// the path classifies fine but no mapping table exists for the kind
	service, _, cleanup := setup(
		t, "<html><body></body></html>",
		"https://org.lightning.force.com/lightning/o/listing-mode/Case/list",
	)
	defer cleanup()

	_, err := service.Extract(context.Background())
	require.ErrorIs(t, err, UnsupportedObject)
}

func TestExtractPropagatesWaitFailure(t *testing.T) {
	// a record path whose layout never renders
	service, store, cleanup := setup(
		t, "<html><body><p>loading...</p></body></html>",
		"https://org.lightning.force.com/lightning/r/record-mode/Lead/00Q5f000001LxyzEAC/view",
	)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	_, err := service.Extract(ctx)
	require.ErrorIs(t, err, lightning.ElementsNotFound)

	// nothing was written
	service.Wait()
	state, err := store.State(ctx)
	require.NoError(t, err)
	require.Len(t, state.Leads, 0)
	require.EqualValues(t, 0, state.LastSync["leads"])
}
