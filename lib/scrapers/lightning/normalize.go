package lightning

import "time"

// normalize projects a raw canonical-key map onto the kind's schema: every
// schema field is present afterwards, nil when the page didn't render it.
// The identity recovered by the strategy is attached unless the raw map
// already produced one. Pure, no DOM access, cannot fail.
func normalize(object ObjectKind, raw map[string]string, schema []string, identity string) Record {
	fields := make(map[string]*string, len(schema))
	for _, key := range schema {
		fields[key] = nil
		if value, ok := raw[key]; ok {
			v := value
			fields[key] = &v
		}
	}

	id := identity
	if rawId, ok := raw["id"]; ok && rawId != "" {
		id = rawId
	}

	return Record{
		Object:      object,
		Id:          id,
		ExtractedAt: time.Now().UnixMilli(),
		Fields:      fields,
	}
}
