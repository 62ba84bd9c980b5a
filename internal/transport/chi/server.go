// Package chi exposes a browser session over HTTP for a rendering layer.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vsetbrowse/internal/domain/order"
	"github.com/kailas-cloud/vsetbrowse/internal/logger"
	"github.com/kailas-cloud/vsetbrowse/internal/usecase/browser"
	healthuc "github.com/kailas-cloud/vsetbrowse/internal/usecase/health"
	keyinfouc "github.com/kailas-cloud/vsetbrowse/internal/usecase/keyinfo"
	"github.com/kailas-cloud/vsetbrowse/internal/version"
)

const maxBodyBytes = 1 << 20

// MaxKeysPerRequest bounds a single metadata request.
const MaxKeysPerRequest = 256

// Server serves one shared browser session.
type Server struct {
	session       *browser.Session
	keys          *keyinfouc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	session *browser.Session,
	keys *keyinfouc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	return &Server{
		session:       session,
		keys:          keys,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// DescribeKeys handles GET /v1/keys?key=a&key=b.
func (s *Server) DescribeKeys(w http.ResponseWriter, r *http.Request) {
	keys := r.URL.Query()["key"]
	if len(keys) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "at least one key parameter is required")
		return
	}
	if len(keys) > MaxKeysPerRequest {
		writeError(w, http.StatusBadRequest, codeBadRequest, "too many keys")
		return
	}

	infos, err := s.keys.Describe(r.Context(), keys)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := keysResponse{Keys: make([]keyInfoDTO, len(infos))}
	for i, in := range infos {
		resp.Keys[i] = keyInfoToDTO(in)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetSession handles GET /v1/session.
func (s *Server) GetSession(w http.ResponseWriter, _ *http.Request) {
	s.writeSession(w, http.StatusOK)
}

// Search handles POST /v1/session/search. The results replace the session
// results and their attributes are loaded right away; a failed load is
// reported in the session error, not as a failed request.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := s.session.Limits().New(req.Key, req.Element, req.Text, req.Count, req.EF, req.Epsilon, req.Filter)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if err := s.session.Search(r.Context(), q); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.loadAttributes(r, "search")
	s.writeSession(w, http.StatusOK)
}

// loadAttributes fetches attributes newly needed after a session change.
// A failure stays in the session error; the request still succeeds.
func (s *Server) loadAttributes(r *http.Request, after string) {
	if _, err := s.session.LoadAttributes(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("attribute load failed",
			zap.String("after", after), zap.Error(err))
	}
}

// LoadAttributes handles POST /v1/session/attributes/load.
func (s *Server) LoadAttributes(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.LoadAttributes(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loadToDTO(res, s.session.View()))
}

// SetFilter handles PUT /v1/session/filter. Omitted fields keep their value.
func (s *Server) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text != nil {
		s.session.SetFilterText(*req.Text)
	}
	if req.Expression != nil {
		s.session.SetFilterExpression(*req.Expression)
	}
	if req.FilteredOnly != nil {
		s.session.SetFilteredOnly(*req.FilteredOnly)
	}
	if req.Text != nil {
		s.loadAttributes(r, "filter")
	}
	s.writeSession(w, http.StatusOK)
}

// SetDisplay handles PUT /v1/session/display.
func (s *Server) SetDisplay(w http.ResponseWriter, r *http.Request) {
	var req displayRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.session.SetShowAttributes(req.ShowAttributes)
	if req.ShowAttributes {
		s.loadAttributes(r, "display")
	}
	s.writeSession(w, http.StatusOK)
}

// ClickSort handles POST /v1/session/sort/{column}.
func (s *Server) ClickSort(w http.ResponseWriter, r *http.Request) {
	col, err := order.ParseColumn(chi.URLParam(r, "column"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	s.session.ClickSort(col)
	s.writeSession(w, http.StatusOK)
}

// ToggleColumn handles POST /v1/session/columns/toggle.
func (s *Server) ToggleColumn(w http.ResponseWriter, r *http.Request) {
	var req columnRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.session.ToggleColumn(r.Context(), req.Name); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

// Selection handles POST /v1/session/selection/{action}
// with action one of enter, exit, all, none.
func (s *Server) Selection(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "enter":
		s.session.EnterSelection()
	case "exit":
		s.session.ExitSelection()
	case "all":
		s.session.SelectAll()
	case "none":
		s.session.DeselectAll()
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown selection action")
		return
	}
	s.writeSession(w, http.StatusOK)
}

// ToggleSelected handles POST /v1/session/selection/toggle.
func (s *Server) ToggleSelected(w http.ResponseWriter, r *http.Request) {
	var req elementRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, err := s.session.ToggleSelected(req.Element); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

// CommitAttributes handles PUT /v1/session/attributes.
func (s *Server) CommitAttributes(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Element == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "element is required")
		return
	}

	raw := ""
	if len(req.Attributes) > 0 && string(req.Attributes) != "null" {
		raw = string(req.Attributes)
	}
	edit := func(context.Context, string) (*string, error) { return &raw, nil }

	if err := s.session.CommitAttributes(r.Context(), req.Element, edit); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	s.writeSession(w, http.StatusOK)
}

func (s *Server) writeSession(w http.ResponseWriter, status int) {
	writeJSON(w, status, sessionToDTO(s.session.View()))
}

// decodeBody decodes a bounded JSON body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body: " + err.Error()
		if errors.Is(err, io.EOF) {
			msg = "request body is required"
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, msg)
		return false
	}
	return true
}
