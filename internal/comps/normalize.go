package comps

import (
	"encoding/json"
	"time"

	"github.com/starford/gebo/internal/models"
)

// timestamp layouts accepted on load, newest first. Writes always produce
// RFC 3339 with nanoseconds (the time.Time default).
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// normalizeRecord upgrades one raw store value into the canonical record
// shape. Bare-string values become a record with that string as notes;
// missing items/tags become empty sequences; a missing or unparseable
// lastEdited becomes now. The result always satisfies the full invariant
// set, so nothing downstream ever branches on shape again.
func normalizeRecord(raw json.RawMessage, now time.Time) models.Comp {
	var bare string
	if err := json.Unmarshal(raw, &bare); err == nil {
		return models.Comp{
			Notes:      bare,
			Items:      []string{},
			Tags:       []string{},
			LastEdited: now,
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// Unrecognized shape: keep the name, drop the value.
		return models.Comp{Items: []string{}, Tags: []string{}, LastEdited: now}
	}

	// Fields decode independently, so one malformed value cannot take the
	// rest of the record down with it.
	out := models.Comp{Items: []string{}, Tags: []string{}, LastEdited: now}
	if v, ok := fields["notes"]; ok {
		_ = json.Unmarshal(v, &out.Notes)
	}
	if v, ok := fields["color"]; ok {
		_ = json.Unmarshal(v, &out.Color)
	}
	if v, ok := fields["items"]; ok {
		var items []string
		if err := json.Unmarshal(v, &items); err == nil {
			out.Items = nonNil(items)
		}
	}
	if v, ok := fields["tags"]; ok {
		var tags []string
		if err := json.Unmarshal(v, &tags); err == nil {
			out.Tags = nonNil(tags)
		}
	}
	if v, ok := fields["lastEdited"]; ok {
		out.LastEdited = parseInstantRaw(v, now)
	}
	return out
}

// parseInstantRaw accepts the timestamp encodings seen in old store files:
// a string in one of timeLayouts, or a Unix-milliseconds number.
func parseInstantRaw(raw json.RawMessage, fallback time.Time) time.Time {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parseInstant(s, fallback)
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil && ms > 0 {
		return time.UnixMilli(ms).UTC()
	}
	return fallback
}

// NormalizeRaw upgrades a raw record value (object or legacy bare string)
// into the canonical shape. Exposed for the clipboard import path, which
// accepts the same shapes the store file does.
func NormalizeRaw(raw json.RawMessage, now time.Time) models.Comp {
	return normalizeRecord(raw, now)
}

// NormalizeComp applies the load-time normalization rules to an already
// structured record, used when merging imported comps.
func NormalizeComp(c models.Comp, now time.Time) models.Comp {
	c.Items = nonNil(c.Items)
	c.Tags = nonNil(c.Tags)
	if c.LastEdited.IsZero() {
		c.LastEdited = now
	}
	return c
}

func parseInstant(s string, fallback time.Time) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
