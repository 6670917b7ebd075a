// Package recordstore is the merge/persistence engine: it deduplicates
// newly extracted records against the stored document by identity and
// writes the whole state back under a named mutual-exclusion section.
package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"sfextract-backend/lib/kv"
	"sfextract-backend/lib/scrapers/lightning"

	"dario.cat/mergo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/recordstore")

// The lock spans the whole store, not one object kind: all five kinds live
// in a single document, so writers of different kinds still race on the
// same bytes.
const lockName = "recordstore"

type Service struct {
	backend kv.Backend
}

func NewService(backend kv.Backend) Service {
	return Service{backend: backend}
}

// State loads the current stored document, the empty default when nothing
// has been written yet.
func (s Service) State(ctx context.Context) (State, error) {
	buff, ok, err := s.backend.Get(ctx, StorageKey)
	if err != nil {
		return State{}, err
	}
	if !ok {
		return NewState(), nil
	}

	var state State
	err = json.Unmarshal(buff, &state)
	if err != nil {
		return State{}, fmt.Errorf("failed to decode stored state: %w", err)
	}
	return state, nil
}

// Save merges records of one kind into the store: load, dedupe by identity,
// bump the kind's lastSync, write everything back. The read-modify-write
// runs under the store-wide lock; concurrent saves from overlapping
// extraction runs serialize instead of losing updates.
func (s Service) Save(ctx context.Context, kind lightning.ObjectKind, records []lightning.Record) error {
	ctx, span := tracer.Start(ctx, "Save")
	defer span.End()
	span.SetAttributes(
		attribute.String("object", string(kind)),
		attribute.Int("count", len(records)),
	)

	err := s.backend.WithLock(ctx, lockName, func(ctx context.Context) error {
		state, err := s.State(ctx)
		if err != nil {
			return err
		}

		stored := state.records(kind)
		if stored == nil {
			return fmt.Errorf("unsupported object kind: %s", kind)
		}

		merged, err := mergeRecords(ctx, *stored, records)
		if err != nil {
			return err
		}
		*stored = merged
		state.LastSync[kind.PluralKey()] = time.Now().UnixMilli()

		buff, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return s.backend.Set(ctx, StorageKey, buff)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Delete removes one record of a kind by identity. The uniqueness invariant
// makes at most one record match.
func (s Service) Delete(ctx context.Context, kind lightning.ObjectKind, id string) error {
	ctx, span := tracer.Start(ctx, "Delete")
	defer span.End()

	err := s.backend.WithLock(ctx, lockName, func(ctx context.Context) error {
		state, err := s.State(ctx)
		if err != nil {
			return err
		}

		stored := state.records(kind)
		if stored == nil {
			return fmt.Errorf("unsupported object kind: %s", kind)
		}

		kept := make([]lightning.Record, 0, len(*stored))
		for _, record := range *stored {
			if record.Id != "" && record.Id == id {
				continue
			}
			kept = append(kept, record)
		}
		*stored = kept

		buff, err := json.Marshal(state)
		if err != nil {
			return err
		}
		return s.backend.Set(ctx, StorageKey, buff)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// Subscribe delivers a decoded snapshot after every write to the store,
// until release is called.
func (s Service) Subscribe(ctx context.Context) (<-chan State, func()) {
	raw, release := s.backend.Watch(StorageKey)
	out := make(chan State, 1)

	go func() {
		defer close(out)
		for buff := range raw {
			var state State
			err := json.Unmarshal(buff, &state)
			if err != nil {
				slog.WarnContext(ctx, "failed to decode store notification", "err", err)
				continue
			}
			out <- state
		}
	}()

	return out, release
}

// mergeRecords upserts incoming records over existing ones by identity.
// Records without identity cannot be deduplicated; they are held aside and
// reappended after the identified ones, existing first, in arrival order.
func mergeRecords(ctx context.Context, existing, incoming []lightning.Record) ([]lightning.Record, error) {
	byId := map[string]int{}
	var identified []lightning.Record
	var anonymous []lightning.Record

	for _, record := range existing {
		if record.Id == "" {
			anonymous = append(anonymous, record)
			continue
		}
		byId[record.Id] = len(identified)
		identified = append(identified, record)
	}

	for _, record := range incoming {
		if record.Id == "" {
			slog.WarnContext(
				ctx, "record has no identity, skipping deduplication",
				"object", string(record.Object),
			)
			anonymous = append(anonymous, record)
			continue
		}

		idx, ok := byId[record.Id]
		if !ok {
			byId[record.Id] = len(identified)
			identified = append(identified, record)
			continue
		}
		merged, err := mergeRecord(identified[idx], record)
		if err != nil {
			return nil, err
		}
		identified[idx] = merged
	}

	out := make([]lightning.Record, 0, len(identified)+len(anonymous))
	out = append(out, identified...)
	out = append(out, anonymous...)
	return out, nil
}

// mergeRecord shallow-merges incoming fields over an existing record with
// the same identity: a non-null incoming value wins, a null one preserves
// whatever an earlier extraction found.
func mergeRecord(existing, incoming lightning.Record) (lightning.Record, error) {
	fields := make(map[string]*string, len(existing.Fields))
	for key, value := range existing.Fields {
		fields[key] = value
	}
	err := mergo.Merge(&fields, incoming.Fields, mergo.WithOverride)
	if err != nil {
		return lightning.Record{}, err
	}

	merged := existing
	merged.Fields = fields
	merged.ExtractedAt = incoming.ExtractedAt
	if incoming.Url != "" {
		merged.Url = incoming.Url
	}
	return merged, nil
}
