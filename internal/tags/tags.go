// Package tags checks requested trigger tags against the server's catalog.
package tags

import "moiratui/internal/moira"

// Result is the outcome of Reconcile.
type Result struct {
	Valid     []string
	Truncated bool
}

// Reconcile keeps the requested tags the server knows, in requested order
// and without repeats. Truncated is set when anything was dropped,
// including a duplicate.
func Reconcile(requested, known []string) Result {
	catalog := make(map[string]struct{}, len(known))
	for _, tag := range known {
		catalog[tag] = struct{}{}
	}

	var valid []string
	seen := make(map[string]struct{}, len(requested))
	for _, tag := range requested {
		if _, ok := catalog[tag]; !ok {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		valid = append(valid, tag)
	}
	return Result{Valid: valid, Truncated: len(requested) > len(valid)}
}

// SubscriptionUnion flattens the tags of all subscriptions, first seen wins.
func SubscriptionUnion(subs []moira.Subscription) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, sub := range subs {
		for _, tag := range sub.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// Contains reports whether tag is in list.
func Contains(list []string, tag string) bool {
	for _, t := range list {
		if t == tag {
			return true
		}
	}
	return false
}

// Toggle adds tag to list or removes it when present. list is not modified.
func Toggle(list []string, tag string) []string {
	out := make([]string, 0, len(list)+1)
	found := false
	for _, t := range list {
		if t == tag {
			found = true
			continue
		}
		out = append(out, t)
	}
	if !found {
		out = append(out, tag)
	}
	return out
}
