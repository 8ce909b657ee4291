package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	web2md "github.com/alnah/go-web2md"
	"github.com/alnah/go-web2md/internal/journal"
)

type convertRequest struct {
	URL string `json:"url"`
}

type convertResponse struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html,omitempty"`
}

type tolerantResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url"`
	Markdown string `json:"markdown,omitempty"`
	HTML     string `json:"html,omitempty"`
	Error    string `json:"error,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type okResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type historyResponse struct {
	Entries []journal.Entry `json:"entries"`
}

func (s *Server) handleOK(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, okResponse{Status: "ok", Timestamp: s.now().UTC().Format(time.RFC3339)})
}

// handleConvertStrict maps failures to HTTP status codes.
func (s *Server) handleConvertStrict(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: web2md.ErrEmptyURL.Error()})
		return
	}

	request := web2md.Request{URL: strings.TrimSpace(req.URL)}
	if err := request.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}

	out := s.runner.Run(r.Context(), request)
	if !out.OK() {
		writeJSON(w, http.StatusInternalServerError, messageResponse{
			Message: "Error converting URL to markdown: " + out.Failure.Message,
		})
		return
	}

	resp := convertResponse{Markdown: out.Markdown}
	if wantHTML(r) {
		page, err := s.html.Page(r.Context(), out.Markdown, request.URL, s.css)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "Error rendering HTML: " + err.Error()})
			return
		}
		resp.HTML = page
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConvertTolerant always answers 200 and reports failures in the body.
// The target URL is the escaped remainder of the path.
func (s *Server) handleConvertTolerant(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "*")
	target, err := url.PathUnescape(raw)
	if err != nil {
		target = raw
	}
	target = strings.TrimSpace(target)

	resp := tolerantResponse{URL: target}
	request := web2md.Request{URL: target}
	if err := request.Validate(); err != nil {
		resp.Error = err.Error()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	out := s.runner.Run(r.Context(), request)
	if !out.OK() {
		resp.Error = out.Failure.Message
		writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Success = true
	resp.Markdown = out.Markdown
	if wantHTML(r) {
		if page, err := s.html.Page(r.Context(), out.Markdown, target, s.css); err == nil {
			resp.HTML = page
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, messageResponse{Message: "journal is not enabled"})
		return
	}

	limit := s.historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			writeJSON(w, http.StatusBadRequest, messageResponse{Message: "limit must be between 1 and 1000"})
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("reading history")
		writeJSON(w, http.StatusInternalServerError, messageResponse{Message: "reading history failed"})
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Entries: entries})
}

func wantHTML(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "html")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
