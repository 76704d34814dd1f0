// Package listsync keeps the trigger list consistent with its location,
// the stored filter preference and the Moira API.
//
// The location is the single source of truth. Every user change is pushed
// as a new location, and every location change runs a reconciliation pass:
//
//	decode → merge preference → validate tags → fetch → commit
//
// A pass that needs to rewrite the location replaces it and stops; the
// replacement starts a fresh pass. Blocking work is handed out as Jobs so
// the Controller itself is only ever touched from one goroutine, and
// results from a superseded pass are dropped when they come back.
package listsync

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"moiratui/internal/history"
	"moiratui/internal/moira"
	"moiratui/internal/paging"
	"moiratui/internal/prefs"
	"moiratui/internal/query"
	"moiratui/internal/tags"
)

// maxRedirects bounds the redirects one navigation may cause, counted
// across catalog fetches.
const maxRedirects = 8

// Router owns the current location.
type Router interface {
	Location() history.Location
	// Push adds a history entry. Used for user changes.
	Push(history.Location)
	// Replace rewrites the current entry. Used for redirects.
	Replace(history.Location)
}

// Job is blocking work for a pass. It must not touch the Controller.
type Job func(ctx context.Context) Result

// Result is what a Job hands back to Controller.Apply.
type Result interface {
	origin() (token uint64, loc history.Location)
}

type catalogResult struct {
	token     uint64
	loc       history.Location
	filters   query.Filters
	redirects int
	tags      []string
	err       error
}

func (r catalogResult) origin() (uint64, history.Location) { return r.token, r.loc }

type dataResult struct {
	token    uint64
	loc      history.Location
	filters  query.Filters
	allTags  []string
	settings moira.Settings
	triggers moira.TriggerList
	err      error
}

func (r dataResult) origin() (uint64, history.Location) { return r.token, r.loc }

// ViewState is the rendered snapshot. It is replaced whole after a pass.
type ViewState struct {
	Loading        bool
	Filters        query.Filters
	AllTags        []string
	SubscribedTags []string
	Triggers       []moira.Trigger
	PageCount      int
	Total          int
	// Err is the last settings/trigger fetch failure, nil after a good pass.
	Err error
}

type Controller struct {
	api    moira.API
	prefs  *prefs.Store
	router Router
	logger *slog.Logger

	current history.Location
	// corrected is the target of the last tag correction. The preference
	// is not merged into it again, so a failed save cannot loop.
	corrected   history.Location
	started     bool
	latestToken uint64
	pending     bool
	view        ViewState
}

func New(api moira.API, store *prefs.Store, router Router, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		api:    api,
		prefs:  store,
		router: router,
		logger: logger,
		view: ViewState{
			Loading:   true,
			Filters:   query.Default(),
			PageCount: 1,
		},
	}
}

// View returns the committed view state.
func (c *Controller) View() ViewState {
	return c.view
}

// Busy reports whether a pass is waiting on the API.
func (c *Controller) Busy() bool {
	return c.pending
}

// Location is the location of the latest pass.
func (c *Controller) Location() history.Location {
	return c.current
}

// Navigated is called whenever the router reports a location, including
// the first one. A location equal to the last one handled is ignored.
func (c *Controller) Navigated(loc history.Location) Job {
	if c.started && loc == c.current {
		return nil
	}
	return c.begin(loc, 0)
}

// Refresh runs a new pass for the router's current location.
func (c *Controller) Refresh() Job {
	return c.begin(c.router.Location(), 0)
}

// Apply takes the result of a Job and returns the next Job, if any.
// Results from a superseded pass are dropped.
func (c *Controller) Apply(r Result) Job {
	token, loc := r.origin()
	if token != c.latestToken || loc != c.current {
		c.logger.Debug("dropping stale result", "location", loc.String(), "current", c.current.String())
		return nil
	}
	switch r := r.(type) {
	case catalogResult:
		return c.applyCatalog(r)
	case dataResult:
		c.commit(r)
	}
	return nil
}

// Drive runs job and its follow-ups on the calling goroutine.
func (c *Controller) Drive(ctx context.Context, job Job) {
	for job != nil {
		job = c.Apply(job(ctx))
	}
}

// Change applies a user filter change: it persists the sticky part,
// pushes the new location and starts a pass for it.
func (c *Controller) Change(update func(query.Filters) query.Filters) Job {
	loc := c.router.Location()
	next := update(query.Decode(loc.RawQuery))
	next.SearchText = query.CleanSearchText(next.SearchText)
	if next.Page < query.StartPage {
		next.Page = query.StartPage
	}
	c.persist(next)
	c.corrected = history.Location{}

	target := history.Location{Path: loc.Path, RawQuery: query.Encode(next)}
	if target == loc {
		return nil
	}
	c.router.Push(target)
	return c.Navigated(c.router.Location())
}

func (c *Controller) ToggleTag(tag string) Job {
	return c.Change(func(f query.Filters) query.Filters {
		f = f.WithTags(tags.Toggle(f.Tags, tag))
		f.Page = query.StartPage
		return f
	})
}

func (c *Controller) SetTags(list []string) Job {
	return c.Change(func(f query.Filters) query.Filters {
		f = f.WithTags(list)
		f.Page = query.StartPage
		return f
	})
}

func (c *Controller) ToggleOnlyProblems() Job {
	return c.Change(func(f query.Filters) query.Filters {
		f.OnlyProblems = !f.OnlyProblems
		f.Page = query.StartPage
		return f
	})
}

func (c *Controller) SetSearchText(text string) Job {
	return c.Change(func(f query.Filters) query.Filters {
		f.SearchText = text
		f.Page = query.StartPage
		return f
	})
}

func (c *Controller) SetPage(page int) Job {
	return c.Change(func(f query.Filters) query.Filters {
		f.Page = page
		return f
	})
}

// begin runs the location checks for loc. redirects is how many redirects
// the navigation has already caused.
func (c *Controller) begin(loc history.Location, redirects int) Job {
	for ; redirects < maxRedirects; redirects++ {
		c.started = true
		c.current = loc

		pref, ok := c.prefs.Load()
		if loc == c.corrected {
			ok = false
		}
		d := DecideLocation(loc.RawQuery, pref, ok)
		if !d.Step.Redirects() {
			return c.catalogJob(loc, d.Filters, redirects)
		}
		loc = c.redirect(loc, d)
	}

	c.logger.Warn("giving up after repeated redirects", "location", loc.String())
	c.current = loc
	c.latestToken++
	c.pending = false
	c.view.Loading = false
	return nil
}

func (c *Controller) redirect(from history.Location, d Decision) history.Location {
	if d.Persist {
		c.persist(d.Filters)
	}
	to := history.Location{Path: from.Path, RawQuery: query.Encode(d.Filters)}
	c.logger.Debug("redirecting", "step", d.Step.String(), "from", from.String(), "to", to.String())
	c.router.Replace(to)
	return c.router.Location()
}

func (c *Controller) persist(f query.Filters) {
	if err := c.prefs.Save(prefs.FromFilters(f)); err != nil {
		c.logger.Warn("saving preferences", "error", err)
	}
}

func (c *Controller) catalogJob(loc history.Location, filters query.Filters, redirects int) Job {
	c.latestToken++
	c.pending = true
	token := c.latestToken
	api := c.api
	return func(ctx context.Context) Result {
		list, err := api.GetTagList(ctx)
		return catalogResult{token: token, loc: loc, filters: filters, redirects: redirects, tags: list.List, err: err}
	}
}

func (c *Controller) applyCatalog(r catalogResult) Job {
	catalog := r.tags
	if r.err != nil {
		c.logger.Warn("loading tag catalog, continuing without tags", "error", r.err)
		catalog = nil
	}

	d := DecideTags(r.filters, catalog)
	if d.Step.Redirects() {
		to := c.redirect(r.loc, d)
		c.corrected = to
		return c.begin(to, r.redirects+1)
	}
	return c.dataJob(r.token, r.loc, d.Filters, catalog)
}

func (c *Controller) dataJob(token uint64, loc history.Location, filters query.Filters, catalog []string) Job {
	api := c.api
	catalog = slices.Clone(catalog)
	return func(ctx context.Context) Result {
		res := dataResult{token: token, loc: loc, filters: filters, allTags: catalog}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			settings, err := api.GetSettings(gctx)
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			res.settings = settings
			return nil
		})
		g.Go(func() error {
			list, err := api.GetTriggerList(gctx, paging.ToServerPage(filters.Page), filters.OnlyProblems, filters.Tags, filters.SearchText)
			if err != nil {
				return fmt.Errorf("loading triggers: %w", err)
			}
			res.triggers = list
			return nil
		})
		res.err = g.Wait()
		return res
	}
}

func (c *Controller) commit(r dataResult) {
	c.pending = false
	if r.err != nil {
		c.logger.Warn("trigger list not refreshed", "location", r.loc.String(), "error", r.err)
		c.view.Loading = false
		c.view.Err = r.err
		return
	}
	c.view = ViewState{
		Loading:        false,
		Filters:        r.filters,
		AllTags:        r.allTags,
		SubscribedTags: tags.SubscriptionUnion(r.settings.Subscriptions),
		Triggers:       r.triggers.List,
		PageCount:      paging.Count(r.triggers.Total, r.triggers.Size),
		Total:          r.triggers.Total,
	}
}
