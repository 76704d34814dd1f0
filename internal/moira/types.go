package moira

import "sort"

// TagList is the tag catalog returned by GET /tag.
type TagList struct {
	List []string `json:"list"`
}

// Subscription is a notification subscription. Only its tags matter here.
type Subscription struct {
	ID       string   `json:"id,omitempty"`
	Enabled  bool     `json:"enabled"`
	Tags     []string `json:"tags"`
	Contacts []string `json:"contacts,omitempty"`
}

// Settings is the current user's settings.
type Settings struct {
	Login         string         `json:"login"`
	Subscriptions []Subscription `json:"subscriptions"`
}

// CheckData is the last check result of a trigger. GET /trigger/{id}/state
// returns the same shape.
type CheckData struct {
	TriggerID string                 `json:"trigger_id,omitempty"`
	State     string                 `json:"state"`
	Score     int64                  `json:"score"`
	Timestamp int64                  `json:"timestamp,omitempty"`
	Message   string                 `json:"msg,omitempty"`
	Metrics   map[string]MetricState `json:"metrics,omitempty"`
}

// MetricNames returns the metric names in sorted order.
func (c CheckData) MetricNames() []string {
	names := make([]string, 0, len(c.Metrics))
	for name := range c.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MetricState is the state of one metric inside a check.
type MetricState struct {
	State          string   `json:"state"`
	Timestamp      int64    `json:"timestamp,omitempty"`
	EventTimestamp int64    `json:"event_timestamp,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	// Maintenance is the unix time the metric's maintenance ends, 0 if none.
	Maintenance int64 `json:"maintenance,omitempty"`
	Suppressed  bool  `json:"suppressed,omitempty"`
}

// Trigger is a list row from /trigger/search or the full /trigger/{id}.
type Trigger struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Desc    string   `json:"desc,omitempty"`
	Targets []string `json:"targets"`
	Tags    []string `json:"tags"`
	// Thresholds; nil when the trigger uses an expression.
	WarnValue  *float64 `json:"warn_value,omitempty"`
	ErrorValue *float64 `json:"error_value,omitempty"`
	TTL        int64    `json:"ttl,omitempty"`
	TTLState   string   `json:"ttl_state,omitempty"`
	// Throttled is the unix time notification throttling ends, 0 if none.
	Throttled int64      `json:"throttling,omitempty"`
	LastCheck *CheckData `json:"last_check,omitempty"`
}

// State returns the last check state or "" when the trigger was never checked.
func (t Trigger) State() string {
	if t.LastCheck == nil {
		return ""
	}
	return t.LastCheck.State
}

// TriggerList is one page of triggers.
type TriggerList struct {
	List  []Trigger `json:"list"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// Event is one state change of a trigger metric.
type Event struct {
	TriggerID string   `json:"trigger_id"`
	Metric    string   `json:"metric"`
	State     string   `json:"state"`
	OldState  string   `json:"old_state"`
	Timestamp int64    `json:"timestamp"`
	Value     *float64 `json:"value,omitempty"`
}

// EventList is one page of a trigger's event history.
type EventList struct {
	List  []Event `json:"list"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Size  int     `json:"size"`
}
