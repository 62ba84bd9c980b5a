// Package browser keeps one consistent browsing session over a vector set:
// raw results, text filter, sort, attribute columns, filter overlay and
// selection.
//
// Lock order is session then cache. Fetches and preference I/O run with
// the session unlocked; their results are merged only if the cache
// generation they started in is still current.
package browser

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/column"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/command"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
	"github.com/kailas-cloud/vsetbrowse/internal/metrics"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/filter"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/schema"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/selection"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/view"
)

// ErrLoadAttributes is the user-facing message for failed attribute loads.
const ErrLoadAttributes = "could not load attributes"

// ErrSearchNotConfigured is returned by Search when no Searcher was given.
var ErrSearchNotConfigured = errors.New("search is not configured")

// Option configures a Session.
type Option func(*Session)

// WithWriter persists committed attributes through w.
func WithWriter(w AttributeWriter) Option {
	return func(s *Session) { s.writer = w }
}

// WithSearcher enables Search.
func WithSearcher(sr Searcher) Option {
	return func(s *Session) { s.searcher = sr }
}

// WithLocale sets the collation used to sort element names.
func WithLocale(tag language.Tag) Option {
	return func(s *Session) { s.pipeline = view.New(tag) }
}

// Session is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	cache    *attributes.Cache
	prefs    Preferences
	writer   AttributeWriter
	searcher Searcher
	pipeline *view.Pipeline
	logger   *zap.Logger

	dataset        string
	raw            []result.Row
	filterText     string
	sort           order.State
	filter         filter.State
	columns        []column.Config
	selection      *selection.Set
	showAttributes bool
	lastErr        string
	limits         query.Limits
}

// New creates a session with no dataset.
func New(
	cache *attributes.Cache,
	prefs Preferences,
	cfg domain.BrowserConfig,
	logger *zap.Logger,
	opts ...Option,
) *Session {
	s := &Session{
		cache:          cache,
		prefs:          prefs,
		pipeline:       view.New(language.Und),
		logger:         logger,
		sort:           order.Unsorted(),
		filter:         filter.NewState("", cfg.FilteredOnly),
		columns:        schema.Reset(),
		selection:      selection.New(),
		showAttributes: cfg.ShowAttributes,
		limits:         query.Limits{DefaultCount: cfg.DefaultCount, MaxCount: cfg.MaxCount},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetPreferences swaps the preference store. Later lookups use p.
func (s *Session) SetPreferences(p Preferences) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs = p
}

// SetResults replaces the raw result list. A new dataset resets the whole
// session; the same dataset only prunes the selection to the new ids.
func (s *Session) SetResults(dataset string, rows []result.Row) error {
	if err := command.ValidateKeyName(dataset); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if dataset != s.dataset {
		s.resetLocked(dataset)
	} else {
		s.selection.Retain(result.Elements(rows))
	}
	s.raw = slices.Clone(rows)
	return nil
}

func (s *Session) resetLocked(dataset string) {
	s.logger.Debug("dataset changed, resetting session",
		zap.String("from", s.dataset), zap.String("to", dataset))

	s.dataset = dataset
	s.cache.Activate(dataset)
	s.columns = schema.Reset()
	s.filter = filter.NewState("", s.filter.FilteredOnly())
	s.selection.Reset()
	s.sort = order.Unsorted()
	s.filterText = ""
	s.lastErr = ""
}

// Dataset returns the current dataset identity.
func (s *Session) Dataset() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// SetFilterText sets the free-text element filter.
func (s *Session) SetFilterText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filterText = text
}

// ClickSort applies a header click and returns the new sort state.
func (s *Session) ClickSort(col order.Column) order.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = s.sort.Click(col)
	return s.sort
}

// SetFilterExpression sets the structured attribute filter.
func (s *Session) SetFilterExpression(expr string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.filter.WithExpression(expr)
}

// SetFilteredOnly switches filtered-only mode.
func (s *Session) SetFilteredOnly(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = s.filter.WithFilteredOnly(on)
}

// SetShowAttributes enables or disables attribute display.
func (s *Session) SetShowAttributes(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showAttributes = on
}

// ToggleColumn flips the stored visibility of an attribute column and
// persists it. Persistence failures are logged, never returned.
// While filtered-only mode overrides visibility the stored value still
// changes and takes effect once the override ends.
func (s *Session) ToggleColumn(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	cols, visible, err := schema.Toggle(s.columns, name)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.columns = cols
	prefs := s.prefs
	s.mu.Unlock()

	if prefs != nil {
		if err := prefs.SetVisible(ctx, name, visible); err != nil {
			metrics.PreferenceErrorsTotal.WithLabelValues("set").Inc()
			s.logger.Warn("failed to persist column visibility",
				zap.String("field", name), zap.Bool("visible", visible), zap.Error(err))
		}
	}
	return visible, nil
}

// EnterSelection turns selection mode on.
func (s *Session) EnterSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Enter()
}

// ToggleSelected flips the selection of an element of the current results.
func (s *Session) ToggleSelected(element string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.ContainsFunc(s.raw, func(r result.Row) bool { return r.Element() == element }) {
		return false, fmt.Errorf("element %q: %w", element, domain.ErrNotFound)
	}
	return s.selection.Toggle(element), nil
}

// SelectAll selects exactly the elements currently visible after the
// text filter.
func (s *Session) SelectAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := s.pipeline.Apply(s.raw, s.filterText, s.sort)
	s.selection.SelectAll(result.Elements(visible))
	return s.selection.Len()
}

// DeselectAll empties the selection.
func (s *Session) DeselectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.DeselectAll()
}

// ExitSelection empties the selection and leaves selection mode.
func (s *Session) ExitSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection.Exit()
}

// Selected returns the selected elements in display order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible := s.pipeline.Apply(s.raw, s.filterText, s.sort)
	return s.selection.Selected(result.Elements(visible))
}

// LoadAttributes fetches attributes missing for the visible elements and
// re-derives the column schema from everything cached so far. It is a
// no-op when attribute display is off or there are no results.
func (s *Session) LoadAttributes(ctx context.Context) (attributes.FetchResult, error) {
	s.mu.Lock()
	if !s.showAttributes || len(s.raw) == 0 {
		s.mu.Unlock()
		return attributes.FetchResult{}, nil
	}
	elements := result.Elements(s.pipeline.Apply(s.raw, s.filterText, s.sort))
	s.mu.Unlock()

	res, err := s.cache.FetchMissing(ctx, elements)
	if err != nil {
		s.mu.Lock()
		if s.cache.Generation() == res.Generation {
			s.lastErr = ErrLoadAttributes
		}
		s.mu.Unlock()
		s.logger.Warn("attribute load failed", zap.Error(err))
		return res, err
	}
	if res.Discarded {
		return res, nil
	}

	s.rederive(ctx, res.Generation)
	return res, nil
}

// CommitAttributes asks edit for a new payload of element, persists it
// when a writer is configured and refreshes the cache and schema.
// A cancelled edit changes nothing.
func (s *Session) CommitAttributes(ctx context.Context, element string, edit Editor) error {
	s.mu.Lock()
	dataset := s.dataset
	gen := s.cache.Generation()
	known := slices.ContainsFunc(s.raw, func(r result.Row) bool { return r.Element() == element })
	s.mu.Unlock()

	if dataset == "" {
		return domain.ErrNoDataset
	}
	if !known {
		return fmt.Errorf("element %q: %w", element, domain.ErrNotFound)
	}

	raw, err := edit(ctx, element)
	if err != nil {
		return fmt.Errorf("edit attributes of %s: %w", element, err)
	}
	if raw == nil {
		return nil
	}

	if s.writer != nil {
		if err := s.writer.SetAttributes(ctx, dataset, element, *raw); err != nil {
			return fmt.Errorf("commit attributes of %s: %w", element, err)
		}
	}

	payload := raw
	if *raw == "" {
		payload = nil
	}
	applied, err := s.cache.UpdateOneAt(gen, element, payload)
	if !applied {
		s.logger.Debug("dropping attribute commit for a previous dataset",
			zap.String("dataset", dataset), zap.String("element", element))
		return nil
	}
	if err != nil {
		// already logged and counted by the cache
		s.logger.Debug("committed payload is not valid attribute data", zap.Error(err))
	}

	s.rederive(ctx, gen)
	return nil
}

// Limits returns the configured result count limits for queries.
func (s *Session) Limits() query.Limits {
	return s.limits
}

// Search runs req and loads its results into the session with the
// query key as dataset identity.
func (s *Session) Search(ctx context.Context, req query.Request) error {
	if s.searcher == nil {
		return ErrSearchNotConfigured
	}
	rows, err := s.searcher.Search(ctx, req)
	if err != nil {
		return err
	}
	return s.SetResults(req.Key(), rows)
}

// rederive extends the columns with every field in the cache corpus.
// Preferences for new fields are read with the session unlocked.
func (s *Session) rederive(ctx context.Context, gen uint64) {
	fields := schema.FieldNames(s.cache.Corpus())

	s.mu.Lock()
	unseen := schema.Unseen(s.columns, fields)
	prefs := s.prefs
	s.mu.Unlock()

	visibility := make(map[string]bool, len(unseen))
	for _, f := range unseen {
		visibility[f] = schema.DefaultVisible
		if prefs != nil {
			visibility[f] = prefs.Visible(ctx, f, schema.DefaultVisible)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Generation() != gen {
		return
	}
	s.columns = schema.Derive(s.columns, fields, func(field string, def bool) bool {
		if v, ok := visibility[field]; ok {
			return v
		}
		return def
	})
	s.lastErr = ""
}

// View returns the render-ready model.
func (s *Session) View() Model {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.pipeline.Apply(s.raw, s.filterText, s.sort)
	cols := s.filter.Overlay(s.columns)
	if !s.showAttributes {
		cols = hideAttributes(cols)
	}

	m := Model{
		Dataset:          s.dataset,
		Generation:       s.cache.Generation(),
		Columns:          cols,
		Rows:             make([]Row, len(rows)),
		Total:            len(s.raw),
		Sort:             s.sort,
		FilterText:       s.filterText,
		FilterExpression: s.filter.Expression(),
		FilterFields:     slices.Clone(s.filter.Fields()),
		FilteredOnly:     s.filter.FilteredOnly(),
		OverrideActive:   s.filter.OverrideActive(),
		ShowAttributes:   s.showAttributes,
		SelectionActive:  s.selection.Active(),
		Selected:         s.selection.Selected(result.Elements(rows)),
		LastError:        s.lastErr,
	}

	var overlay []map[string]string
	if s.showAttributes {
		overlay = s.filter.DisplayValues(rows, s.cache.Parsed)
	}
	for i, r := range rows {
		row := Row{
			Element:  r.Element(),
			Score:    r.Score(),
			Selected: s.selection.IsSelected(r.Element()),
		}
		switch {
		case overlay != nil:
			row.Values = overlay[i]
		case s.showAttributes:
			row.Values = s.displayValuesLocked(r.Element(), cols)
		}
		m.Rows[i] = row
	}
	return m
}

func (s *Session) displayValuesLocked(element string, cols []column.Config) map[string]string {
	attrs, ok := s.cache.Parsed(element)
	values := make(map[string]string)
	for _, c := range cols {
		if c.IsSystem() || !c.Visible() {
			continue
		}
		values[c.Name()] = ""
		if !ok {
			continue
		}
		if v, found := attrs.Get(c.Name()); found {
			values[c.Name()] = v.Display()
		}
	}
	return values
}

func hideAttributes(cols []column.Config) []column.Config {
	out := make([]column.Config, 0, len(cols))
	for _, c := range cols {
		if c.IsSystem() {
			out = append(out, c)
		}
	}
	return out
}
