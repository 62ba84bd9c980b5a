package vsetbrowse

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/result"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
)

// Browser is a browsing session over one vector set at a time.
// It is safe for concurrent use.
type Browser struct {
	session *browser.Session
}

// SetResults replaces the result list. A dataset other than the current
// one resets columns, filter, sort, selection and the attribute cache.
func (b *Browser) SetResults(dataset string, results []Result) error {
	rows := make([]result.Row, len(results))
	for i, r := range results {
		rows[i] = result.New(r.Element, r.Score)
	}
	if err := b.session.SetResults(dataset, rows); err != nil {
		return fmt.Errorf("set results: %w", err)
	}
	return nil
}

// Search runs q and loads its results with q.Key as dataset.
func (b *Browser) Search(ctx context.Context, q Query) error {
	req, err := b.session.Limits().New(q.Key, q.Element, q.Text, q.Count, q.EF, q.Epsilon, q.Filter)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if err := b.session.Search(ctx, req); err != nil {
		return fmt.Errorf("search: %w", err)
	}
	return nil
}

// LoadAttributes fetches the attributes of visible elements that are not
// cached yet and extends the columns.
func (b *Browser) LoadAttributes(ctx context.Context) (LoadResult, error) {
	res, err := b.session.LoadAttributes(ctx)
	out := LoadResult{
		Requested: res.Requested,
		Stored:    res.Stored,
		Discarded: res.Discarded,
	}
	for _, f := range res.ParseFailures {
		out.ParseFailures = append(out.ParseFailures, ParseFailure{Element: f.Element, Err: f.Err})
	}
	if err != nil {
		return out, fmt.Errorf("load attributes: %w", err)
	}
	return out, nil
}

// SetFilterText filters rows by case-insensitive element substring.
// Rows it reveals have no attributes until LoadAttributes runs.
func (b *Browser) SetFilterText(text string) { b.session.SetFilterText(text) }

// SetFilterExpression sets the attribute filter expression.
func (b *Browser) SetFilterExpression(expr string) { b.session.SetFilterExpression(expr) }

// SetFilteredOnly shows only the attribute columns the expression references.
func (b *Browser) SetFilteredOnly(on bool) { b.session.SetFilteredOnly(on) }

// SetShowAttributes turns attribute columns on or off. Turning them on
// does not fetch; follow it with LoadAttributes.
func (b *Browser) SetShowAttributes(on bool) { b.session.SetShowAttributes(on) }

// ClickSort cycles the sort of col: ascending, descending, none.
func (b *Browser) ClickSort(col SortColumn) error {
	c, err := order.ParseColumn(string(col))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	b.session.ClickSort(c)
	return nil
}

// ToggleColumn flips and persists the visibility of an attribute column.
func (b *Browser) ToggleColumn(ctx context.Context, name string) (bool, error) {
	visible, err := b.session.ToggleColumn(ctx, name)
	if err != nil {
		return false, fmt.Errorf("toggle column: %w", err)
	}
	return visible, nil
}

// EnterSelection turns selection mode on.
func (b *Browser) EnterSelection() { b.session.EnterSelection() }

// ToggleSelected flips the selection of one element of the results.
func (b *Browser) ToggleSelected(element string) (bool, error) {
	on, err := b.session.ToggleSelected(element)
	if err != nil {
		return false, fmt.Errorf("toggle selection: %w", err)
	}
	return on, nil
}

// SelectAll selects exactly the elements that pass the text filter.
func (b *Browser) SelectAll() int { return b.session.SelectAll() }

// DeselectAll clears the selection and stays in selection mode.
func (b *Browser) DeselectAll() { b.session.DeselectAll() }

// ExitSelection clears the selection and leaves selection mode.
func (b *Browser) ExitSelection() { b.session.ExitSelection() }

// Selected returns the selected elements in display order.
func (b *Browser) Selected() []string { return b.session.Selected() }

// CommitAttributes edits the attributes of one element and writes them back.
func (b *Browser) CommitAttributes(ctx context.Context, element string, edit Editor) error {
	if edit == nil {
		return fmt.Errorf("commit attributes: %w: nil editor", ErrValidation)
	}
	if err := b.session.CommitAttributes(ctx, element, browser.Editor(edit)); err != nil {
		return fmt.Errorf("commit attributes: %w", err)
	}
	return nil
}

// View returns a snapshot for rendering.
func (b *Browser) View() View {
	m := b.session.View()

	v := View{
		Dataset:          m.Dataset,
		Total:            m.Total,
		Columns:          make([]Column, len(m.Columns)),
		Rows:             make([]Row, len(m.Rows)),
		Sort:             SortColumn(m.Sort.Column()),
		Descending:       m.Sort.Active() && m.Sort.Direction() == order.Desc,
		FilterText:       m.FilterText,
		FilterExpression: m.FilterExpression,
		FilterFields:     m.FilterFields,
		FilteredOnly:     m.FilteredOnly,
		OverrideActive:   m.OverrideActive,
		ShowAttributes:   m.ShowAttributes,
		SelectionActive:  m.SelectionActive,
		Selected:         m.Selected,
		Error:            m.LastError,
	}
	for i, c := range m.Columns {
		v.Columns[i] = Column{Name: c.Name(), Visible: c.Visible(), System: c.IsSystem()}
	}
	for i, r := range m.Rows {
		v.Rows[i] = Row{Element: r.Element, Score: r.Score, Selected: r.Selected, Values: r.Values}
	}
	return v
}
