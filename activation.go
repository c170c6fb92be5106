package main

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// ZoneStatus classifies a zone's enforceability at a point in time.
type ZoneStatus string

const (
	StatusActive   ZoneStatus = "active"
	StatusSoon     ZoneStatus = "soon"
	StatusInactive ZoneStatus = "inactive"
)

// ZoneClassifier decides whether a zone is currently enforceable from its
// activation metadata. FailOpen controls the default when a zone carries no
// activation metadata at all: true treats unknown zones as enforceable so
// they still constrain routing.
type ZoneClassifier struct {
	FailOpen      bool
	SoonLookahead time.Duration
}

// NewZoneClassifier returns a classifier with the standard policy: fail-open
// and an 8 hour lookahead for "soon" zones.
func NewZoneClassifier() *ZoneClassifier {
	return &ZoneClassifier{FailOpen: true, SoonLookahead: 8 * time.Hour}
}

// activationSources is the nested activation metadata carried by a zone
// feature. Any one source saying active makes the zone active.
type activationSources struct {
	Specific  *activationSource `json:"Specific"`
	General   *activationSource `json:"General"`
	Condition *activationSource `json:"Condition"`
}

type activationSource struct {
	Properties map[string]interface{} `json:"properties"`
}

// IsActive reports whether the zone described by props is enforceable at the
// given instant. Rules are evaluated in order; the first matching rule wins.
func (c *ZoneClassifier) IsActive(props geojson.Properties, now time.Time) bool {
	switch props.MustString("activationStatus", "") {
	case string(StatusInactive):
		return false
	case string(StatusSoon):
		// Imminent enough to route around now.
		return true
	}

	if v, ok := props["active"].(bool); ok {
		return v
	}

	if strings.EqualFold(props.MustString("status", ""), "recurring") {
		if truthy(props["permanent"]) {
			return true
		}
		return withinWindow(now, props["startTime"], props["endTime"])
	}

	src, ok := parseActivationSources(props["activationSources"])
	if !ok {
		// No metadata (or unparsable metadata): policy default.
		return c.FailOpen
	}

	if src.Specific != nil {
		p := src.Specific.Properties
		if withinWindow(now, p["startTime"], p["endTime"]) {
			return true
		}
	}
	if src.General != nil {
		p := src.General.Properties
		if truthy(p["permanent"]) {
			return true
		}
		if withinWindow(now, p["startDateTime"], p["endDateTime"]) {
			return true
		}
	}
	if src.Condition != nil {
		// Active from the activation date onward; a missing or unparseable
		// date reads as already active.
		t, ok := parseTime(src.Condition.Properties["activationdate"])
		if !ok || !now.Before(t) {
			return true
		}
	}

	return false
}

// Classify extends IsActive with the "soon" state: a zone whose window opens
// in the future but within the lookahead is reported as soon.
func (c *ZoneClassifier) Classify(props geojson.Properties, now time.Time) ZoneStatus {
	if props.MustString("activationStatus", "") == string(StatusSoon) {
		return StatusSoon
	}
	if c.IsActive(props, now) {
		return StatusActive
	}

	if src, ok := parseActivationSources(props["activationSources"]); ok {
		if src.Specific != nil && startsWithin(now, c.SoonLookahead, src.Specific.Properties["startTime"]) {
			return StatusSoon
		}
		if src.General != nil && startsWithin(now, c.SoonLookahead, src.General.Properties["startDateTime"]) {
			return StatusSoon
		}
	}

	return StatusInactive
}

// parseActivationSources accepts the metadata either as a JSON-encoded string
// or as an already-parsed object. The second return is false when no usable
// metadata is present.
func parseActivationSources(v interface{}) (activationSources, bool) {
	var src activationSources

	switch raw := v.(type) {
	case nil:
		return src, false
	case string:
		if err := json.Unmarshal([]byte(raw), &src); err != nil {
			return src, false
		}
	default:
		data, err := json.Marshal(raw)
		if err != nil {
			return src, false
		}
		if err := json.Unmarshal(data, &src); err != nil {
			return src, false
		}
	}

	if src.Specific == nil && src.General == nil && src.Condition == nil {
		return src, false
	}
	return src, true
}

// withinWindow checks now against [start, end]. A bound that is missing or
// unparsable leaves the window open on that side.
func withinWindow(now time.Time, start, end interface{}) bool {
	if t, ok := parseTime(start); ok && now.Before(t) {
		return false
	}
	if t, ok := parseTime(end); ok && now.After(t) {
		return false
	}
	return true
}

// startsWithin reports whether the window's start time is in the future but
// no further out than the lookahead.
func startsWithin(now time.Time, lookahead time.Duration, start interface{}) bool {
	t, ok := parseTime(start)
	if !ok || !now.Before(t) {
		return false
	}
	return t.Sub(now) <= lookahead
}

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime parses dates permissively. Numbers are read as Unix seconds;
// anything unparsable reports false rather than an error.
func parseTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	case int64:
		return time.Unix(t, 0).UTC(), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// truthy interprets the loosely-typed flags seen in zone feeds: boolean true,
// the string "1" or "true", or a nonzero number.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "1" || strings.EqualFold(t, "true")
	case float64:
		return t != 0
	case int:
		return t != 0
	}
	return false
}
