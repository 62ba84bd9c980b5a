package chi

import (
	"encoding/json"

	domkeyinfo "github.com/kailas-cloud/vsetbrowse/internal/domain/keyinfo"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/attributes"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeUnauthorized     = "unauthorized"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "not_found"
	codeNoDataset        = "no_dataset"
	codeNotConfigured    = "not_configured"
	codeEmbeddingError   = "embedding_provider_error"
	codeWrongType        = "wrong_type"
	codeStoreError       = "store_error"
	codeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type searchRequest struct {
	Key     string  `json:"key"`
	Element string  `json:"element,omitempty"`
	Text    string  `json:"text,omitempty"`
	Count   int     `json:"count,omitempty"`
	EF      int     `json:"ef,omitempty"`
	Epsilon float64 `json:"epsilon,omitempty"`
	Filter  string  `json:"filter,omitempty"`
}

type filterRequest struct {
	Text         *string `json:"text,omitempty"`
	Expression   *string `json:"expression,omitempty"`
	FilteredOnly *bool   `json:"filtered_only,omitempty"`
}

type displayRequest struct {
	ShowAttributes bool `json:"show_attributes"`
}

type columnRequest struct {
	Name string `json:"name"`
}

type elementRequest struct {
	Element string `json:"element"`
}

// commitRequest carries the new attribute object of one element.
// A null or missing attributes field clears them.
type commitRequest struct {
	Element    string          `json:"element"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

type columnDTO struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Origin  string `json:"origin"`
}

type rowDTO struct {
	Element  string            `json:"element"`
	Score    float64           `json:"score"`
	Selected bool              `json:"selected,omitempty"`
	Values   map[string]string `json:"values,omitempty"`
}

type sortDTO struct {
	Column    string `json:"column"`
	Direction string `json:"direction,omitempty"`
}

type filterDTO struct {
	Text           string   `json:"text"`
	Expression     string   `json:"expression"`
	Fields         []string `json:"fields"`
	FilteredOnly   bool     `json:"filtered_only"`
	OverrideActive bool     `json:"override_active"`
}

type selectionDTO struct {
	Active   bool     `json:"active"`
	Elements []string `json:"elements"`
}

type sessionResponse struct {
	Dataset        string       `json:"dataset"`
	Generation     uint64       `json:"generation"`
	Total          int          `json:"total"`
	Columns        []columnDTO  `json:"columns"`
	Rows           []rowDTO     `json:"rows"`
	Sort           sortDTO      `json:"sort"`
	Filter         filterDTO    `json:"filter"`
	ShowAttributes bool         `json:"show_attributes"`
	Selection      selectionDTO `json:"selection"`
	Error          string       `json:"error,omitempty"`
}

type parseFailureDTO struct {
	Element string `json:"element"`
	Error   string `json:"error"`
}

type loadResponse struct {
	Requested     int               `json:"requested"`
	Stored        int               `json:"stored"`
	Discarded     bool              `json:"discarded"`
	ParseFailures []parseFailureDTO `json:"parse_failures,omitempty"`
	Session       sessionResponse   `json:"session"`
}

type keyInfoDTO struct {
	Key            string `json:"key"`
	Exists         bool   `json:"exists"`
	QuantType      string `json:"quant_type,omitempty"`
	Dim            int64  `json:"vector_dim,omitempty"`
	Size           int64  `json:"size"`
	MaxLevel       int64  `json:"max_level,omitempty"`
	VSetUID        int64  `json:"vset_uid,omitempty"`
	HNSWMaxNodeUID int64  `json:"hnsw_max_node_uid,omitempty"`
}

type keysResponse struct {
	Keys []keyInfoDTO `json:"keys"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

func sessionToDTO(m browser.Model) sessionResponse {
	cols := make([]columnDTO, len(m.Columns))
	for i, c := range m.Columns {
		cols[i] = columnDTO{Name: c.Name(), Visible: c.Visible(), Origin: string(c.Origin())}
	}

	rows := make([]rowDTO, len(m.Rows))
	for i, r := range m.Rows {
		rows[i] = rowDTO{Element: r.Element, Score: r.Score, Selected: r.Selected, Values: r.Values}
	}

	s := sortDTO{Column: string(m.Sort.Column())}
	if m.Sort.Active() {
		s.Direction = string(m.Sort.Direction())
	}

	fields := m.FilterFields
	if fields == nil {
		fields = []string{}
	}
	selected := m.Selected
	if selected == nil {
		selected = []string{}
	}

	return sessionResponse{
		Dataset:    m.Dataset,
		Generation: m.Generation,
		Total:      m.Total,
		Columns:    cols,
		Rows:       rows,
		Sort:       s,
		Filter: filterDTO{
			Text:           m.FilterText,
			Expression:     m.FilterExpression,
			Fields:         fields,
			FilteredOnly:   m.FilteredOnly,
			OverrideActive: m.OverrideActive,
		},
		ShowAttributes: m.ShowAttributes,
		Selection:      selectionDTO{Active: m.SelectionActive, Elements: selected},
		Error:          m.LastError,
	}
}

func loadToDTO(res attributes.FetchResult, m browser.Model) loadResponse {
	out := loadResponse{
		Requested: res.Requested,
		Stored:    res.Stored,
		Discarded: res.Discarded,
		Session:   sessionToDTO(m),
	}
	for _, f := range res.ParseFailures {
		out.ParseFailures = append(out.ParseFailures, parseFailureDTO{Element: f.Element, Error: f.Err.Error()})
	}
	return out
}

func keyInfoToDTO(m domkeyinfo.Metadata) keyInfoDTO {
	return keyInfoDTO{
		Key:            m.Key,
		Exists:         m.Exists,
		QuantType:      m.QuantType,
		Dim:            m.Dim,
		Size:           m.Size,
		MaxLevel:       m.MaxLevel,
		VSetUID:        m.VSetUID,
		HNSWMaxNodeUID: m.HNSWMaxNodeUID,
	}
}
