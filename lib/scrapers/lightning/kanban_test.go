package lightning

import (
	"context"
	"testing"

	"sfextract-backend/lib/dom/gqdom"

	"github.com/stretchr/testify/require"
)

const opportunityKanbanHtml = `
<html><body>
<div class="runtime_sales_pipelineboardPipelineViewColumn">
	<div class="stageHeaderLabel">Prospecting</div>
	<div class="pipelineViewCard">
		<div class="primaryDisplayField">
			<a class="forceOutputLookup" href="/lightning/r/Opportunity/006000000000012AAA/view">Acme Renewal</a>
		</div>
		<span class="uiOutputNumber">$50,000</span>
		<span class="uiOutputDate">6/30/2026</span>
		<a class="forceOutputLookup" href="/x">First Account</a>
		<a class="forceOutputLookup" href="/y">Acme Corp</a>
	</div>
	<div class="pipelineViewCard">
		<div class="primaryDisplayField">
			<a data-recordid="006000000000013" href="#">Globex Pilot</a>
		</div>
	</div>
</div>
<div class="runtime_sales_pipelineboardPipelineViewColumn">
	<div class="runtime_sales_pipelineboardPipelineViewColumnHeader">Closed Won</div>
	<div class="pipelineViewCard">
		<div class="primaryDisplayField">
			<a href="/lightning/r/Opportunity/006000000000014AAA/view">Initech Deal</a>
		</div>
	</div>
</div>
</body></html>`

func TestKanbanStrategy(t *testing.T) {
	doc, err := gqdom.ParseString(opportunityKanbanHtml)
	require.NoError(t, err)

	strategy := KanbanStrategy{Doc: doc}
	records, err := strategy.Extract(context.Background(), Opportunity, FieldMappings[Opportunity], Schemas[Opportunity])
	require.NoError(t, err)
	require.Len(t, records, 3)

	first := records[0]
	require.Equal(t, "006000000000012AAA", first.Id)
	require.Equal(t, "Acme Renewal", first.Field("name"))
	require.Equal(t, "Prospecting", first.Field("stage"))
	require.Equal(t, "$50,000", first.Field("amount"))
	require.Equal(t, "6/30/2026", first.Field("closeDate"))
	// the primary anchor is itself a lookup link but must not shadow the
	// relationship; of the two secondary anchors the last one wins
	require.Equal(t, "Acme Corp", first.Field("associatedAccount"))

	second := records[1]
	// href carries no id token, the link attribute is the fallback
	require.Equal(t, "006000000000013", second.Id)
	require.Equal(t, "Globex Pilot", second.Field("name"))
	require.Equal(t, "Prospecting", second.Field("stage"))
	require.Nil(t, second.Fields["amount"])

	third := records[2]
	require.Equal(t, "006000000000014AAA", third.Id)
	require.Equal(t, "Closed Won", third.Field("stage"))
	// opportunities have no status field for the column to land in
	_, ok := third.Fields["status"]
	require.False(t, ok)
}

const taskKanbanHtml = `
<html><body>
<div class="runtime_sales_pipelineboardPipelineViewColumn">
	<div class="stageHeaderLabel">In Progress</div>
	<div class="pipelineViewCard">
		<div class="primaryDisplayField">
			<a href="/lightning/r/Task/00T000000000012AAA/view">Follow up with Acme</a>
		</div>
		<span class="uiOutputDate">6/1/2026</span>
	</div>
</div>
</body></html>`

func TestKanbanStrategyTaskBoard(t *testing.T) {
	doc, err := gqdom.ParseString(taskKanbanHtml)
	require.NoError(t, err)

	strategy := KanbanStrategy{Doc: doc}
	records, err := strategy.Extract(context.Background(), Task, FieldMappings[Task], Schemas[Task])
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	require.Equal(t, "00T000000000012AAA", record.Id)
	// the card's primary text doubles as the subject on task boards
	require.Equal(t, "Follow up with Acme", record.Field("subject"))
	require.Equal(t, "In Progress", record.Field("status"))
	require.Equal(t, "6/1/2026", record.Field("dueDate"))
	// and tasks have no stage field
	_, ok := record.Fields["stage"]
	require.False(t, ok)
}
