package lightning

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"sfextract-backend/lib/dom/gqdom"

	"github.com/stretchr/testify/require"
)

const leadRecordHtml = `
<html><body>
<records-record-layout-item>
	<div class="test-id__field-label">Lead Name</div>
	<div class="test-id__field-value">Jane Doe</div>
</records-record-layout-item>
<div aria-hidden="true">
	<records-record-layout-item>
		<div class="test-id__field-label">Email</div>
		<div class="test-id__field-value">stale@example.com</div>
	</records-record-layout-item>
</div>
<records-record-layout-item>
	<div class="test-id__field-label">Email</div>
	<div class="test-id__field-value">jane@example.com</div>
</records-record-layout-item>
<records-record-layout-item>
	<span title="Phone">Phone</span>
	<slot><slot>555-0100</slot></slot>
</records-record-layout-item>
<records-record-layout-item>
	<div class="test-id__field-label">Pronouns</div>
	<div class="test-id__field-value">she/her</div>
</records-record-layout-item>
</body></html>`

func TestRecordStrategy(t *testing.T) {
	doc, err := gqdom.ParseString(leadRecordHtml)
	require.NoError(t, err)

	pageUrl, err := url.Parse("https://org.lightning.force.com/lightning/r/record-mode/Lead/00Q5f000001LxyzEAC/view")
	require.NoError(t, err)

	strategy := RecordStrategy{Doc: doc, Opts: Options{PageURL: pageUrl}}
	records, err := strategy.Extract(context.Background(), Lead, FieldMappings[Lead], Schemas[Lead])
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	require.Equal(t, Lead, record.Object)
	require.Equal(t, "00Q5f000001LxyzEAC", record.Id)
	require.Equal(t, pageUrl.String(), record.Url)

	require.Equal(t, "Jane Doe", record.Field("name"))
	// the visible item wins over the aria-hidden duplicate
	require.Equal(t, "jane@example.com", record.Field("email"))
	// slot-based fallback shape
	require.Equal(t, "555-0100", record.Field("phone"))
	// "Pronouns" is not in the mapping table; the schema field stays null
	require.Nil(t, record.Fields["company"])
}

const legacyLeadRecordHtml = `
<html><body>
<div class="forcePageBlockItem">
	<div class="test-id__field-label">Company</div>
	<div class="test-id__field-value">Acme Corp</div>
</div>
<div class="forcePageBlockItem">
	<span title="Phone">Phone</span>
	<slot><slot>should not be read</slot></slot>
</div>
</body></html>`

func TestRecordStrategyLegacyRenderer(t *testing.T) {
	doc, err := gqdom.ParseString(legacyLeadRecordHtml)
	require.NoError(t, err)

	strategy := RecordStrategy{Doc: doc}
	records, err := strategy.Extract(context.Background(), Lead, FieldMappings[Lead], Schemas[Lead])
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	require.Equal(t, "", record.Id)
	require.Equal(t, "", record.Url)
	require.Equal(t, "Acme Corp", record.Field("company"))
	// the slot fallback only applies to the modern renderer
	require.Nil(t, record.Fields["phone"])
}

// tabActivatorDoc is a document whose field layout only materializes once
// the detail tab is switched to, the way a real record page parks inactive
// tab content outside the DOM.
type tabActivatorDoc struct {
	*gqdom.Document

	detailHtml string
	err        error
	activated  bool
}

func (d *tabActivatorDoc) ActivateDetailTab(ctx context.Context) error {
	d.activated = true
	if d.err != nil {
		return d.err
	}
	return d.SetHTML(d.detailHtml)
}

func TestRecordStrategyActivatesDetailTab(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body><p>related tab</p></body></html>")
	require.NoError(t, err)
	activator := &tabActivatorDoc{Document: doc, detailHtml: leadRecordHtml}

	strategy := RecordStrategy{Doc: activator, Opts: Options{Timeout: time.Second}}
	records, err := strategy.Extract(context.Background(), Lead, FieldMappings[Lead], Schemas[Lead])
	require.NoError(t, err)
	require.True(t, activator.activated)
	require.Len(t, records, 1)
	require.Equal(t, "Jane Doe", records[0].Field("name"))
}

func TestRecordStrategyToleratesActivatorFailure(t *testing.T) {
	doc, err := gqdom.ParseString(legacyLeadRecordHtml)
	require.NoError(t, err)
	activator := &tabActivatorDoc{Document: doc, err: fmt.Errorf("tab control missing")}

	// a failing tab switch is logged and extraction carries on with
	// whatever the page already renders
	strategy := RecordStrategy{Doc: activator}
	records, err := strategy.Extract(context.Background(), Lead, FieldMappings[Lead], Schemas[Lead])
	require.NoError(t, err)
	require.True(t, activator.activated)
	require.Len(t, records, 1)
	require.Equal(t, "Acme Corp", records[0].Field("company"))
}

func TestRecordStrategyTimesOut(t *testing.T) {
	doc, err := gqdom.ParseString("<html><body><p>loading...</p></body></html>")
	require.NoError(t, err)

	strategy := RecordStrategy{Doc: doc, Opts: Options{Timeout: 50 * time.Millisecond}}
	_, err = strategy.Extract(context.Background(), Lead, FieldMappings[Lead], Schemas[Lead])
	require.ErrorIs(t, err, ElementsNotFound)
}
