package recordstore

import (
	"encoding/json"

	"sfextract-backend/lib/scrapers/lightning"
)

// StorageKey is the well-known document key the whole state lives under.
// Export and display tooling read the same key; the name is a compatibility
// contract.
const StorageKey = "salesforce_data"

// State is the single persisted document: one record sequence per object
// kind plus a per-kind last-synchronized timestamp (unix milliseconds).
// Within a sequence no two records share a non-empty id.
type State struct {
	Leads         []lightning.Record `json:"leads"`
	Contacts      []lightning.Record `json:"contacts"`
	Accounts      []lightning.Record `json:"accounts"`
	Opportunities []lightning.Record `json:"opportunities"`
	Tasks         []lightning.Record `json:"tasks"`
	LastSync      map[string]int64   `json:"lastSync"`
}

// NewState is the empty-state default: all sequences empty, every lastSync
// entry at epoch zero.
func NewState() State {
	state := State{
		Leads:         []lightning.Record{},
		Contacts:      []lightning.Record{},
		Accounts:      []lightning.Record{},
		Opportunities: []lightning.Record{},
		Tasks:         []lightning.Record{},
		LastSync:      map[string]int64{},
	}
	for _, kind := range lightning.ObjectKinds {
		state.LastSync[kind.PluralKey()] = 0
	}
	return state
}

// Records returns the stored sequence for an object kind.
func (s State) Records(kind lightning.ObjectKind) []lightning.Record {
	if seq := s.records(kind); seq != nil {
		return *seq
	}
	return nil
}

func (s *State) records(kind lightning.ObjectKind) *[]lightning.Record {
	switch kind {
	case lightning.Lead:
		return &s.Leads
	case lightning.Contact:
		return &s.Contacts
	case lightning.Account:
		return &s.Accounts
	case lightning.Opportunity:
		return &s.Opportunities
	case lightning.Task:
		return &s.Tasks
	}
	return nil
}

// UnmarshalJSON migrates legacy documents where lastSync was a single
// scalar instead of a per-kind mapping: the scalar seeds every kind's
// entry. Missing sequences come back as empty, never nil, so the document
// always round-trips to the full layout.
func (s *State) UnmarshalJSON(data []byte) error {
	var aux struct {
		Leads         []lightning.Record `json:"leads"`
		Contacts      []lightning.Record `json:"contacts"`
		Accounts      []lightning.Record `json:"accounts"`
		Opportunities []lightning.Record `json:"opportunities"`
		Tasks         []lightning.Record `json:"tasks"`
		LastSync      json.RawMessage    `json:"lastSync"`
	}
	err := json.Unmarshal(data, &aux)
	if err != nil {
		return err
	}

	state := NewState()
	if aux.Leads != nil {
		state.Leads = aux.Leads
	}
	if aux.Contacts != nil {
		state.Contacts = aux.Contacts
	}
	if aux.Accounts != nil {
		state.Accounts = aux.Accounts
	}
	if aux.Opportunities != nil {
		state.Opportunities = aux.Opportunities
	}
	if aux.Tasks != nil {
		state.Tasks = aux.Tasks
	}

	if len(aux.LastSync) > 0 {
		var perKind map[string]int64
		if err := json.Unmarshal(aux.LastSync, &perKind); err == nil {
			for key, at := range perKind {
				state.LastSync[key] = at
			}
		} else {
			var scalar int64
			if err := json.Unmarshal(aux.LastSync, &scalar); err != nil {
				return err
			}
			for key := range state.LastSync {
				state.LastSync[key] = scalar
			}
		}
	}

	*s = state
	return nil
}
