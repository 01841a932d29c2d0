// Package intent turns clarification answers and analyzed user intent into
// concrete function selections. The normalizer canonicalizes answer maps so
// the resolver only ever sees one key schema; the resolver scores catalog
// functions with a fixed weighted-rule table.
package intent

import (
	"sort"
	"strings"
)

// Canonical answer keys. Everything downstream of the normalizer is written
// against these and nothing else.
const (
	KeyTrigger     = "trigger"
	KeyFilter      = "filter"
	KeyDestination = "destination"
	KeyAction      = "action"
	KeyPermission  = "permission"
)

// canonicalDescriptorPrefix marks a trigger value that has already been
// normalized. Re-normalizing such a value is the identity operation.
const canonicalDescriptorPrefix = "On a "

// defaultTriggerDescriptor is used when a schedule-like answer was given but
// no usable trigger value survived normalization.
const defaultTriggerDescriptor = "On a time-based trigger every hour"

// defaultActionMarker marks a generic workflow when answers exist but no
// explicit action was named.
const defaultActionMarker = "workflow"

// canonicalKeys is the key schema the resolver consumes. A raw key that is a
// canonical key in any letter case folds to the lowercase form.
var canonicalKeys = map[string]bool{
	KeyTrigger:     true,
	KeyFilter:      true,
	KeyDestination: true,
	KeyAction:      true,
	KeyPermission:  true,
}

// keyRewrites maps raw answer keys, as chosen by a provider or typed by a
// user, onto canonical keys. Canonical keys are deliberately absent: they map
// to themselves, which is what makes normalization idempotent.
var keyRewrites = map[string]string{
	"schedule":      KeyTrigger,
	"frequency":     KeyTrigger,
	"when":          KeyTrigger,
	"timing":        KeyTrigger,
	"interval":      KeyTrigger,
	"q_trigger":     KeyTrigger,
	"condition":     KeyFilter,
	"criteria":      KeyFilter,
	"match":         KeyFilter,
	"q_filter":      KeyFilter,
	"target":        KeyDestination,
	"output":        KeyDestination,
	"sheet":         KeyDestination,
	"where":         KeyDestination,
	"q_destination": KeyDestination,
	"operation":     KeyAction,
	"task":          KeyAction,
	"access":        KeyPermission,
	"scope":         KeyPermission,
}

// scheduleLikeKeys are raw keys whose presence implies the user was asked
// about scheduling, even if the value itself was unusable.
var scheduleLikeKeys = map[string]bool{
	"schedule":  true,
	"frequency": true,
	"when":      true,
	"timing":    true,
	"interval":  true,
	"q_trigger": true,
	KeyTrigger:  true,
}

// triggerPhrases maps common schedule answers to canonical trigger
// descriptors. This is the single authoritative phrase table.
var triggerPhrases = map[string]string{
	"every 15 minutes":        "On a time-based trigger every 15 minutes",
	"every hour":              "On a time-based trigger every hour",
	"hourly":                  "On a time-based trigger every hour",
	"daily":                   "On a time-based trigger daily at 9am",
	"daily at 9am":            "On a time-based trigger daily at 9am",
	"every day":               "On a time-based trigger daily at 9am",
	"when a new item arrives": "On a new-item trigger",
	"on new email":            "On a new-item trigger",
	"when an email arrives":   "On a new-item trigger",
}

// NormalizeAnswers maps an answer map with arbitrary keys onto the canonical
// schema. Unknown keys pass through unchanged. When two raw keys rewrite to
// the same canonical key, the first non-empty value in sorted raw-key order
// wins, keeping the result deterministic.
//
// Normalizing an already-canonical map returns an equal map.
func NormalizeAnswers(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))

	sawScheduleKey := false
	for _, key := range sortedKeys(raw) {
		value := strings.TrimSpace(raw[key])
		lowered := strings.ToLower(strings.TrimSpace(key))
		if scheduleLikeKeys[lowered] {
			sawScheduleKey = true
		}

		canonical, ok := keyRewrites[lowered]
		if !ok {
			if canonicalKeys[lowered] {
				canonical = lowered
			} else {
				canonical = key
			}
		}
		if existing, present := out[canonical]; present && existing != "" {
			continue
		}
		out[canonical] = value
	}

	if value, ok := out[KeyTrigger]; ok && value != "" {
		out[KeyTrigger] = normalizeTrigger(value)
	}

	if sawScheduleKey && out[KeyTrigger] == "" {
		out[KeyTrigger] = defaultTriggerDescriptor
	}
	if len(out) > 0 && out[KeyAction] == "" {
		out[KeyAction] = defaultActionMarker
	}

	return out
}

// normalizeTrigger canonicalizes a free-text trigger phrase into a
// descriptor sentence. Already-canonical descriptors are returned unchanged.
func normalizeTrigger(value string) string {
	if strings.HasPrefix(value, canonicalDescriptorPrefix) {
		return value
	}
	lowered := strings.ToLower(strings.TrimSpace(value))
	if descriptor, ok := triggerPhrases[lowered]; ok {
		return descriptor
	}
	return "On a time-based trigger " + lowered
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
