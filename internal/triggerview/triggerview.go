// Package triggerview loads a single trigger together with its current
// metric state and event history, and runs the metric actions offered on
// it: maintenance, metric removal and throttling removal.
//
// Like the list controller it hands blocking work out as Jobs and drops
// results that were superseded while in flight.
package triggerview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"moiratui/internal/moira"
)

// Preset is a maintenance duration offered for a metric.
type Preset struct {
	Label   string
	Minutes int
}

// Presets are the maintenance choices, "off" first.
var Presets = []Preset{
	{"off", 0},
	{"15 minutes", 15},
	{"1 hour", 60},
	{"3 hours", 180},
	{"6 hours", 360},
	{"1 day", 24 * 60},
	{"1 week", 7 * 24 * 60},
	{"1 month", 30 * 24 * 60},
}

// Until is the unix time maintenance set now with p ends. Off is 0.
func (p Preset) Until(now time.Time) int64 {
	if p.Minutes <= 0 {
		return 0
	}
	return now.UTC().Add(time.Duration(p.Minutes) * time.Minute).Unix()
}

// View is the rendered snapshot of one trigger.
type View struct {
	// ID is empty when no trigger is open.
	ID      string
	Loading bool
	Trigger moira.Trigger
	State   moira.CheckData
	// Metrics are the metric names of State, sorted.
	Metrics []string
	Events  moira.EventList
	// Err is the last load or action failure, nil after a good load.
	Err error
}

// Throttled reports whether notifications are throttled at now.
func (v View) Throttled(now time.Time) bool {
	return v.Trigger.Throttled > now.Unix()
}

// Job is blocking work. It must not touch the Loader.
type Job func(ctx context.Context) Result

// Result is what a Job hands back to Loader.Apply.
type Result struct {
	token   uint64
	id      string
	trigger moira.Trigger
	state   moira.CheckData
	events  moira.EventList
	err     error
}

type Loader struct {
	api    moira.TriggerAPI
	logger *slog.Logger
	now    func() time.Time

	token uint64
	view  View
}

func New(api moira.TriggerAPI, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{api: api, logger: logger, now: time.Now}
}

func (l *Loader) View() View {
	return l.view
}

// Open starts loading trigger id, discarding whatever was open.
func (l *Loader) Open(id string) Job {
	l.view = View{ID: id, Loading: true}
	return l.load(id, nil)
}

// Reload fetches the open trigger again.
func (l *Loader) Reload() Job {
	if l.view.ID == "" {
		return nil
	}
	l.view.Loading = true
	return l.load(l.view.ID, nil)
}

// Close forgets the open trigger. Results still in flight are dropped.
func (l *Loader) Close() {
	l.token++
	l.view = View{}
}

// Apply commits r unless a newer Open, Reload, action or Close superseded it.
// A failure keeps the previously loaded data.
func (l *Loader) Apply(r Result) {
	if r.token != l.token || r.id != l.view.ID {
		l.logger.Debug("dropping stale trigger result", "trigger", r.id)
		return
	}
	if r.err != nil {
		l.logger.Warn("trigger not refreshed", "trigger", r.id, "error", r.err)
		l.view.Loading = false
		l.view.Err = r.err
		return
	}
	l.view = View{
		ID:      r.id,
		Trigger: r.trigger,
		State:   r.state,
		Metrics: r.state.MetricNames(),
		Events:  r.events,
	}
}

// SetMaintenance puts metric into maintenance for p, then reloads.
func (l *Loader) SetMaintenance(metric string, p Preset) Job {
	until := p.Until(l.now())
	return l.act(fmt.Sprintf("setting maintenance on %s", metric), func(ctx context.Context, api moira.TriggerAPI, id string) error {
		return api.SetMaintenance(ctx, id, map[string]int64{metric: until})
	})
}

// RemoveMetric deletes metric from the trigger's state, then reloads.
func (l *Loader) RemoveMetric(metric string) Job {
	return l.act(fmt.Sprintf("removing metric %s", metric), func(ctx context.Context, api moira.TriggerAPI, id string) error {
		return api.DeleteMetric(ctx, id, metric)
	})
}

// RemoveThrottling lifts notification throttling, then reloads.
func (l *Loader) RemoveThrottling() Job {
	return l.act("removing throttling", func(ctx context.Context, api moira.TriggerAPI, id string) error {
		return api.DeleteThrottling(ctx, id)
	})
}

func (l *Loader) act(what string, action func(ctx context.Context, api moira.TriggerAPI, id string) error) Job {
	id := l.view.ID
	if id == "" {
		return nil
	}
	l.view.Loading = true
	l.logger.Info("trigger action", "trigger", id, "action", what)
	api := l.api
	return l.load(id, func(ctx context.Context) error {
		if err := action(ctx, api, id); err != nil {
			return fmt.Errorf("%s: %w", what, err)
		}
		return nil
	})
}

// load returns a Job that runs before, if any, and then fetches the
// trigger, its state and its first page of events concurrently.
func (l *Loader) load(id string, before func(ctx context.Context) error) Job {
	l.token++
	token := l.token
	api := l.api
	return func(ctx context.Context) Result {
		res := Result{token: token, id: id}
		if before != nil {
			if err := before(ctx); err != nil {
				res.err = err
				return res
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			trigger, err := api.GetTrigger(gctx, id)
			if err != nil {
				return fmt.Errorf("loading trigger: %w", err)
			}
			res.trigger = trigger
			return nil
		})
		g.Go(func() error {
			state, err := api.GetTriggerState(gctx, id)
			if err != nil {
				return fmt.Errorf("loading trigger state: %w", err)
			}
			res.state = state
			return nil
		})
		g.Go(func() error {
			events, err := api.GetTriggerEvents(gctx, id, 0)
			if err != nil {
				return fmt.Errorf("loading events: %w", err)
			}
			res.events = events
			return nil
		})
		res.err = g.Wait()
		return res
	}
}
