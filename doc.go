// Package vsetbrowse browses similarity results of Redis vector sets.
//
// A Browser holds one session: the current result list, its text filter
// and sort, the attribute columns derived from element attributes, the
// filtered-only column overlay and a multi-selection.
//
//	client, _ := vsetbrowse.New(vsetbrowse.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	b := client.Browser()
//	_ = b.Search(ctx, vsetbrowse.Query{Key: "songs", Element: "song:42", Count: 20})
//	_, _ = b.LoadAttributes(ctx)
//	b.SetFilterExpression(`.year > 1970`)
//	b.SetFilteredOnly(true)
//	view := b.View()
//
// Attributes are fetched lazily in one batched round trip for the visible
// elements that are not cached yet. Columns only grow while the dataset
// stays the same; switching to another key resets the session.
package vsetbrowse
