package lightning

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	record := normalize(Lead, map[string]string{
		"name":  "Jane Doe",
		"email": "jane@example.com",
		"bogus": "dropped",
	}, Schemas[Lead], "00Q123")

	require.Equal(t, Lead, record.Object)
	require.Equal(t, "00Q123", record.Id)
	require.NotZero(t, record.ExtractedAt)

	require.Len(t, record.Fields, len(Schemas[Lead]))
	require.Equal(t, "Jane Doe", record.Field("name"))
	require.Equal(t, "jane@example.com", record.Field("email"))
	// unextracted schema fields are present and null
	value, ok := record.Fields["phone"]
	require.True(t, ok)
	require.Nil(t, value)
	// keys outside the schema never make it into the record
	_, ok = record.Fields["bogus"]
	require.False(t, ok)
}

func TestNormalizeIdempotence(t *testing.T) {
	record := normalize(Contact, map[string]string{
		"name":  "John Roe",
		"email": "john@example.com",
	}, Schemas[Contact], "003001")

	// feed the projected fields straight back through
	raw := map[string]string{}
	for key, value := range record.Fields {
		if value != nil {
			raw[key] = *value
		}
	}
	again := normalize(Contact, raw, Schemas[Contact], record.Id)

	// the timestamp moves with every extraction; everything else must not
	again.ExtractedAt = record.ExtractedAt
	if diff := cmp.Diff(record, again); diff != "" {
		t.Fatal(diff)
	}
}

func TestNormalizeRawIdWins(t *testing.T) {
	record := normalize(Opportunity, map[string]string{"id": "006fromdom"}, Schemas[Opportunity], "006frompath")
	require.Equal(t, "006fromdom", record.Id)

	record = normalize(Opportunity, map[string]string{"id": ""}, Schemas[Opportunity], "006frompath")
	require.Equal(t, "006frompath", record.Id)
}

func TestApplyMappingAliasOrder(t *testing.T) {
	// both aliases render on the same page; sorted label order makes the
	// outcome stable run to run
	mapped := applyMapping(context.Background(), map[string]string{
		"Status":      "Working",
		"Lead Status": "Open",
	}, FieldMappings[Lead])
	require.Equal(t, "Working", mapped["leadStatus"])
}
