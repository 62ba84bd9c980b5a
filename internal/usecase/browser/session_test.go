package browser

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/kailas-cloud/vsetbrowse/internal/domain"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
	"github.com/kailas-cloud/vsetbrowse/internal/domain/query"
)

var catalog = map[string]map[string]string{
	"vset:a": {
		"e1": `{"color":"red","size":3}`,
		"e2": `{"weight":1.5}`,
		"e3": `not json`,
	},
	"vset:b": {
		"x1": `{"genre":"rock"}`,
	},
}

func TestSetResults_DatasetChangeResetsEverything(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	ctx := context.Background()

	if err := s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5, "e3", 0.1)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadAttributes(ctx); err != nil {
		t.Fatal(err)
	}
	s.EnterSelection()
	if _, err := s.ToggleSelected("e1"); err != nil {
		t.Fatal(err)
	}
	s.ClickSort(order.Score)
	s.SetFilterText("e")
	s.SetFilterExpression(".color == \"red\"")

	before := s.View()
	if len(before.Columns) <= 2 || len(before.Selected) != 1 || !before.Sort.Active() {
		t.Fatalf("setup did not take effect: %+v", before)
	}

	if err := s.SetResults("vset:b", rows("x1", 1.0)); err != nil {
		t.Fatal(err)
	}
	after := s.View()

	if s.cache.Len() != 0 || s.cache.ParsedLen() != 0 {
		t.Error("attribute cache not cleared")
	}
	if got := columnNames(after); !reflect.DeepEqual(got, []string{"element", "score"}) {
		t.Errorf("columns = %v, want only system columns", got)
	}
	if after.SelectionActive || len(after.Selected) != 0 {
		t.Error("selection not reset")
	}
	if after.Sort.Active() {
		t.Errorf("sort = %+v, want none", after.Sort)
	}
	if after.FilterText != "" {
		t.Errorf("filter text = %q", after.FilterText)
	}
	if after.FilterExpression != "" || len(after.FilterFields) != 0 {
		t.Error("filter expression not reset")
	}
	if after.Generation == before.Generation {
		t.Error("generation must change")
	}
}

func TestLoadAttributes_FieldsNamedLikeSystemColumns(t *testing.T) {
	s, _, _ := newTestSession(t, map[string]map[string]string{
		"vset:c": {"e1": `{"score":5,"element":"x","color":"red"}`},
	})
	_ = s.SetResults("vset:c", rows("e1", 0.25))
	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}

	m := s.View()
	if got := columnNames(m); !reflect.DeepEqual(got, []string{"element", "score", "score", "element", "color"}) {
		t.Fatalf("columns = %v", got)
	}
	row := m.Rows[0]
	if row.Element != "e1" || row.Score != 0.25 {
		t.Errorf("system values = %s %v", row.Element, row.Score)
	}
	want := map[string]string{"score": "5", "element": "x", "color": "red"}
	if !reflect.DeepEqual(row.Values, want) {
		t.Errorf("values = %v, want %v", row.Values, want)
	}
}

func TestSetResults_SameDatasetPrunesSelection(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5))
	s.EnterSelection()
	s.SelectAll()
	s.SetFilterText("e")

	_ = s.SetResults("vset:a", rows("e2", 0.7, "e3", 0.2))
	m := s.View()
	if !reflect.DeepEqual(m.Selected, []string{"e2"}) {
		t.Errorf("selected = %v, want [e2]", m.Selected)
	}
	if m.FilterText != "e" || !m.SelectionActive {
		t.Error("same dataset must not reset session state")
	}
}

func TestSetResults_InvalidKey(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	if err := s.SetResults("", nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestLoadAttributes_DerivesColumnsAndValues(t *testing.T) {
	s, f, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5, "e3", 0.1))

	res, err := s.LoadAttributes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.callCount() != 1 {
		t.Errorf("fetch calls = %d, want 1", f.callCount())
	}
	if len(res.ParseFailures) != 1 || res.ParseFailures[0].Element != "e3" {
		t.Errorf("parse failures = %v", res.ParseFailures)
	}

	m := s.View()
	want := []string{"element", "score", "color", "size", "weight"}
	if got := columnNames(m); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
	if m.Rows[0].Values["color"] != "red" || m.Rows[0].Values["size"] != "3" || m.Rows[0].Values["weight"] != "" {
		t.Errorf("row e1 values = %v", m.Rows[0].Values)
	}
	if m.Rows[1].Values["weight"] != "1.5" {
		t.Errorf("row e2 values = %v", m.Rows[1].Values)
	}
	if m.LastError != "" {
		t.Errorf("last error = %q", m.LastError)
	}

	// second load has nothing missing
	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 1 {
		t.Errorf("fetch calls = %d after idempotent load", f.callCount())
	}
}

func TestLoadAttributes_UsesPreferences(t *testing.T) {
	s, _, prefs := newTestSession(t, catalog)
	prefs.fields["size"] = false
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := s.View()
	if got := visibleColumns(m); !reflect.DeepEqual(got, []string{"element", "score", "color"}) {
		t.Errorf("visible = %v", got)
	}
	if _, ok := m.Rows[0].Values["size"]; ok {
		t.Error("hidden column must not produce a value")
	}
}

func TestLoadAttributes_ColumnsOnlyGrow(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	_, _ = s.LoadAttributes(context.Background())

	_ = s.SetResults("vset:a", rows("e2", 0.5))
	_, _ = s.LoadAttributes(context.Background())

	want := []string{"element", "score", "color", "size", "weight"}
	if got := columnNames(s.View()); !reflect.DeepEqual(got, want) {
		t.Errorf("columns = %v, want %v", got, want)
	}
}

func TestLoadAttributes_OnlyVisibleElements(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5))
	s.SetFilterText("e2")

	res, err := s.LoadAttributes(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Requested != 1 {
		t.Errorf("requested = %d, want 1", res.Requested)
	}
	if _, ok := s.cache.Raw("e1"); ok {
		t.Error("filtered-out element must not be fetched")
	}
}

func TestLoadAttributes_TransportErrorSurfaces(t *testing.T) {
	s, f, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	f.setErr(errors.New("connection reset"))

	_, err := s.LoadAttributes(context.Background())
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if s.View().LastError != ErrLoadAttributes {
		t.Errorf("last error = %q", s.View().LastError)
	}
	if s.cache.Len() != 0 {
		t.Error("cache must stay empty")
	}

	f.setErr(nil)
	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}
	if s.View().LastError != "" {
		t.Error("successful load must clear the error")
	}
}

func TestLoadAttributes_Disabled(t *testing.T) {
	s, f, _ := newTestSession(t, catalog)
	s.SetShowAttributes(false)
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 0 {
		t.Error("no fetch expected with attribute display off")
	}
	if got := columnNames(s.View()); len(got) != 2 {
		t.Errorf("columns = %v", got)
	}
}

func TestLoadAttributes_NoResults(t *testing.T) {
	s, f, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", nil)
	if _, err := s.LoadAttributes(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.callCount() != 0 {
		t.Error("no fetch expected without results")
	}
}

func TestLoadAttributes_StaleFetchDiscarded(t *testing.T) {
	s, f, _ := newTestSession(t, catalog)
	f.gate = make(chan struct{})
	f.started = make(chan struct{}, 1)
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	type outcome struct {
		discarded bool
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := s.LoadAttributes(context.Background())
		done <- outcome{res.Discarded, err}
	}()

	select {
	case <-f.started:
	case <-time.After(time.Second):
		t.Fatal("fetch did not start")
	}

	_ = s.SetResults("vset:b", rows("x1", 1.0))
	close(f.gate)

	out := <-done
	if out.err != nil || !out.discarded {
		t.Fatalf("discarded=%v err=%v", out.discarded, out.err)
	}
	if s.cache.Len() != 0 {
		t.Errorf("cache len = %d, generation-1 data leaked", s.cache.Len())
	}
	if got := columnNames(s.View()); len(got) != 2 {
		t.Errorf("columns = %v", got)
	}
}

func TestToggleColumn(t *testing.T) {
	s, _, prefs := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	_, _ = s.LoadAttributes(context.Background())

	visible, err := s.ToggleColumn(context.Background(), "color")
	if err != nil || visible {
		t.Fatalf("visible=%v err=%v", visible, err)
	}
	if v, ok := prefs.fields["color"]; !ok || v {
		t.Error("preference not persisted")
	}

	if _, err := s.ToggleColumn(context.Background(), "score"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("system column: got %v", err)
	}
	if _, err := s.ToggleColumn(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing column: got %v", err)
	}
}

func TestToggleColumn_PersistFailureKeepsLocalState(t *testing.T) {
	s, _, prefs := newTestSession(t, catalog)
	prefs.setErr = errors.New("store down")
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	_, _ = s.LoadAttributes(context.Background())

	if _, err := s.ToggleColumn(context.Background(), "size"); err != nil {
		t.Fatalf("persistence failure must not propagate: %v", err)
	}
	if got := visibleColumns(s.View()); !reflect.DeepEqual(got, []string{"element", "score", "color"}) {
		t.Errorf("visible = %v", got)
	}
}

func TestFilteredOnly_OverrideAndRestore(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5))
	_, _ = s.LoadAttributes(context.Background())
	_, _ = s.ToggleColumn(context.Background(), "weight") // user hides weight

	s.SetFilterExpression(`.color == "red" AND .weight > 1`)
	s.SetFilteredOnly(true)

	m := s.View()
	if !m.OverrideActive {
		t.Fatal("override should be active")
	}
	if got := visibleColumns(m); !reflect.DeepEqual(got, []string{"element", "score", "color", "weight"}) {
		t.Errorf("visible during override = %v", got)
	}
	if !reflect.DeepEqual(m.Rows[0].Values, map[string]string{"color": "red", "weight": ""}) {
		t.Errorf("row e1 values = %v", m.Rows[0].Values)
	}

	// a toggle during the override changes the stored preference only
	_, _ = s.ToggleColumn(context.Background(), "color")
	if got := visibleColumns(s.View()); !reflect.DeepEqual(got, []string{"element", "score", "color", "weight"}) {
		t.Errorf("override must keep winning, visible = %v", got)
	}

	s.SetFilteredOnly(false)
	if got := visibleColumns(s.View()); !reflect.DeepEqual(got, []string{"element", "score", "size"}) {
		t.Errorf("visible after override = %v", got)
	}
}

func TestFilteredOnly_NoExpressionNoOverride(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	_, _ = s.LoadAttributes(context.Background())
	s.SetFilteredOnly(true)

	m := s.View()
	if m.OverrideActive {
		t.Error("override needs an expression")
	}
	if got := visibleColumns(m); len(got) != 5 {
		t.Errorf("visible = %v", got)
	}
}

func TestSelectAll_VisibleOnly(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.8, "e3", 0.7, "e10", 0.6, "e4", 0.5))
	s.EnterSelection()
	s.SetFilterText("e1")

	if n := s.SelectAll(); n != 2 {
		t.Errorf("selected %d, want 2", n)
	}
	if got := s.Selected(); !reflect.DeepEqual(got, []string{"e1", "e10"}) {
		t.Errorf("selected = %v", got)
	}

	s.DeselectAll()
	if len(s.Selected()) != 0 || !s.View().SelectionActive {
		t.Error("deselect all must keep mode and clear set")
	}
	s.SelectAll()
	s.ExitSelection()
	if len(s.Selected()) != 0 || s.View().SelectionActive {
		t.Error("exit must clear mode and set")
	}
}

func TestToggleSelected_UnknownElement(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	if _, err := s.ToggleSelected("zz"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestView_SortCycle(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("a", 0.9, "b", 0.2, "c", 0.5))

	elements := func() []string {
		var out []string
		for _, r := range s.View().Rows {
			out = append(out, r.Element)
		}
		return out
	}

	s.ClickSort(order.Score)
	if got := elements(); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("asc = %v", got)
	}
	s.ClickSort(order.Score)
	if got := elements(); !reflect.DeepEqual(got, []string{"a", "c", "b"}) {
		t.Errorf("desc = %v", got)
	}
	if st := s.ClickSort(order.Score); st.Active() {
		t.Errorf("third click state = %+v", st)
	}
	if got := elements(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("none = %v", got)
	}
}

func TestCommitAttributes(t *testing.T) {
	w := &fakeWriter{}
	s, _, _ := newTestSession(t, catalog, WithWriter(w))
	_ = s.SetResults("vset:a", rows("e1", 0.9, "e2", 0.5))
	_, _ = s.LoadAttributes(context.Background())

	err := s.CommitAttributes(context.Background(), "e2", func(context.Context, string) (*string, error) {
		return strPtr(`{"weight":2,"origin":"it"}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.calls != 1 || w.key != "vset:a" || w.element != "e2" {
		t.Errorf("writer = %+v", w)
	}
	m := s.View()
	if got := columnNames(m); got[len(got)-1] != "origin" {
		t.Errorf("columns = %v, want origin appended", got)
	}
	if m.Rows[1].Values["weight"] != "2" {
		t.Errorf("row e2 values = %v", m.Rows[1].Values)
	}
}

func TestCommitAttributes_Cancelled(t *testing.T) {
	w := &fakeWriter{}
	s, _, _ := newTestSession(t, catalog, WithWriter(w))
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	err := s.CommitAttributes(context.Background(), "e1", func(context.Context, string) (*string, error) {
		return nil, nil
	})
	if err != nil || w.calls != 0 {
		t.Errorf("err=%v writer calls=%d", err, w.calls)
	}
}

func TestCommitAttributes_WriterError(t *testing.T) {
	w := &fakeWriter{err: domain.ErrValidation}
	s, _, _ := newTestSession(t, catalog, WithWriter(w))
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	err := s.CommitAttributes(context.Background(), "e1", func(context.Context, string) (*string, error) {
		return strPtr(`[1]`), nil
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if _, ok := s.cache.Raw("e1"); ok {
		t.Error("failed commit must not touch the cache")
	}
}

func TestCommitAttributes_DatasetChangedDuringEdit(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))

	err := s.CommitAttributes(context.Background(), "e1", func(context.Context, string) (*string, error) {
		_ = s.SetResults("vset:b", rows("x1", 1.0))
		return strPtr(`{"late":true}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.cache.Len() != 0 {
		t.Error("commit for the previous dataset leaked into the cache")
	}
}

func TestCommitAttributes_UnknownElement(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	_ = s.SetResults("vset:a", rows("e1", 0.9))
	err := s.CommitAttributes(context.Background(), "nope", func(context.Context, string) (*string, error) {
		t.Error("editor must not be called")
		return nil, nil
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearch_LoadsResults(t *testing.T) {
	sr := &fakeSearcher{rows: rows("x1", 1.0)}
	s, _, _ := newTestSession(t, catalog, WithSearcher(sr))

	req, err := query.New("vset:b", "x1", "", 0, 0, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Search(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := s.View()
	if m.Dataset != "vset:b" || m.Total != 1 {
		t.Errorf("dataset=%q total=%d", m.Dataset, m.Total)
	}
}

func TestSearch_NotConfigured(t *testing.T) {
	s, _, _ := newTestSession(t, catalog)
	req, _ := query.New("vset:b", "x1", "", 0, 0, 0, "")
	if err := s.Search(context.Background(), req); !errors.Is(err, ErrSearchNotConfigured) {
		t.Errorf("got %v", err)
	}
}
