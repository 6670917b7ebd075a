package lightning

import (
	"encoding/json"
	"sort"
)

// Record is one extracted business record, projected onto its kind's
// schema. Every schema field is present in Fields; a nil value means the
// page did not render that field. An empty Id means no identity could be
// recovered, which keeps the record out of deduplication.
type Record struct {
	Object      ObjectKind
	Id          string
	Url         string
	ExtractedAt int64
	Fields      map[string]*string
}

// Field returns the value of a schema field, or "" when null.
func (r Record) Field(key string) string {
	if v, ok := r.Fields[key]; ok && v != nil {
		return *v
	}
	return ""
}

// The persisted layout is flat: schema fields sit next to the record
// metadata. That shape is a compatibility contract with external tooling,
// so Record marshals by hand instead of through struct tags.
func (r Record) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"object":      string(r.Object),
		"extractedAt": r.ExtractedAt,
	}

	for _, key := range Schemas[r.Object] {
		out[key] = nil
		if v, ok := r.Fields[key]; ok && v != nil {
			out[key] = *v
		}
	}
	// fields outside the kind's schema (unknown kinds included) survive a
	// decode/encode round trip
	extra := make([]string, 0)
	for key := range r.Fields {
		if !schemaHas(Schemas[r.Object], key) {
			extra = append(extra, key)
		}
	}
	sort.Strings(extra)
	for _, key := range extra {
		out[key] = nil
		if v := r.Fields[key]; v != nil {
			out[key] = *v
		}
	}

	if r.Id != "" {
		out["id"] = r.Id
	} else {
		out["id"] = nil
	}
	if r.Url != "" {
		out["url"] = r.Url
	}
	return json.Marshal(out)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	rec := Record{Fields: map[string]*string{}}
	for key, value := range raw {
		switch key {
		case "object":
			var object string
			if err := json.Unmarshal(value, &object); err != nil {
				return err
			}
			rec.Object = ObjectKind(object)
		case "id":
			var id *string
			if err := json.Unmarshal(value, &id); err != nil {
				return err
			}
			if id != nil {
				rec.Id = *id
			}
		case "url":
			var pageUrl *string
			if err := json.Unmarshal(value, &pageUrl); err != nil {
				return err
			}
			if pageUrl != nil {
				rec.Url = *pageUrl
			}
		case "extractedAt":
			if err := json.Unmarshal(value, &rec.ExtractedAt); err != nil {
				return err
			}
		default:
			var field *string
			if err := json.Unmarshal(value, &field); err != nil {
				// a non-string field written by other tooling, keep
				// the record readable rather than failing the decode
				continue
			}
			rec.Fields[key] = field
		}
	}

	*r = rec
	return nil
}
