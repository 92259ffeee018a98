package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/generator"
	"github.com/anika57/slidecrafter/layout"
)

type generateRequest struct {
	Prompt        string          `json:"prompt"`
	CurrentSlides json.RawMessage `json:"currentSlides"`
}

type errorResponse struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	var req generateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "Prompt is required")
		return
	}
	if s.opts.Responder == nil {
		writeError(w, http.StatusServiceUnavailable, "content generation is not configured")
		return
	}

	current, err := decodeCurrent(req.CurrentSlides)
	if err != nil {
		logger.Warn("currentSlides 无法完整解析，按宽松模式读取", "err", err, "slides", len(current.Slides))
	}

	d, err := s.opts.Responder.Respond(r.Context(), req.Prompt, current)
	if err == nil {
		err = deck.Validate(d, s.opts.Rules).Err()
	}
	var verr *deck.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Error("generated deck breaks the rules", "err", err)
		resp := errorResponse{Error: "AI failed to generate a valid presentation structure."}
		for _, p := range verr.Problems {
			resp.Problems = append(resp.Problems, p.String())
		}
		writeJSON(w, http.StatusBadGateway, resp)
		return
	case errors.Is(err, generator.ErrEmptyResponse):
		logger.Error("model returned no content")
		writeError(w, http.StatusInternalServerError, "AI failed to generate a valid presentation structure.")
		return
	case err != nil:
		logger.Error("generation failed", "err", err)
		writeError(w, http.StatusBadGateway, "Failed to generate content from AI.")
		return
	}

	writeJSON(w, http.StatusOK, d)
}

// decodeCurrent 读取编辑模式下的当前幻灯片。不是数组时返回空 deck（生成模式）；
// 数组中有类型不符的字段时按 deck.Lenient 的规则降级，并返回原始解码错误。
func decodeCurrent(raw json.RawMessage) (deck.Deck, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return deck.Deck{}, nil
	}
	var slides []deck.Slide
	err := json.Unmarshal(trimmed, &slides)
	if err == nil {
		return deck.Deck{Slides: slides}, nil
	}

	wrapped := append(append([]byte(`{"slides":`), trimmed...), '}')
	var d deck.Deck
	for _, rec := range deck.Lenient(wrapped) {
		content := rec.Bullets
		if content == nil {
			content = []string{}
		}
		d.Slides = append(d.Slides, deck.Slide{Title: rec.Title, Content: content, ImageURL: rec.ImageRef})
	}
	return d, err
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	records, ok := s.readRecords(w, r)
	if !ok {
		return
	}
	res := layout.Place(records, s.opts.Layout)
	res.Meta = s.meta(records)
	writeJSON(w, http.StatusOK, res)
}

// handleValidate checks a deck strictly against the configured rules.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	d, err := deck.Decode(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep := deck.Validate(d, s.opts.Rules)
	if rep.OK() {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}
	resp := errorResponse{Error: "deck does not follow the rules"}
	for _, p := range rep.Problems {
		resp.Problems = append(resp.Problems, p.String())
	}
	writeJSON(w, http.StatusUnprocessableEntity, resp)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	name := r.URL.Query().Get("format")
	if name == "" {
		name = s.opts.DefaultFormat
	}
	format, ok := s.opts.Formats[strings.ToLower(name)]
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", name))
		return
	}

	records, ok := s.readRecords(w, r)
	if !ok {
		return
	}
	if len(records) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "no slides to export")
		return
	}

	res := layout.Place(records, s.opts.Layout)
	res.Meta = s.meta(records)
	data, err := format.Renderer.Render(r.Context(), res)
	if err != nil {
		logger.Error("export failed", "format", name, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to export presentation")
		return
	}

	filename := fmt.Sprintf("presentation-%s.%s", uuid.NewString(), format.Extension)
	w.Header().Set("Content-Type", format.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Warn("write export body", "err", err)
	}
}

// readRecords reads a deck body and degrades silently on malformed content.
// Only an unreadable body is an error.
func (s *Server) readRecords(w http.ResponseWriter, r *http.Request) ([]layout.SlideRecord, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return nil, false
	}
	return deck.Lenient(body), true
}

func (s *Server) meta(records []layout.SlideRecord) layout.DocumentMeta {
	meta := layout.DocumentMeta{Creator: s.opts.Creator}
	if len(records) > 0 {
		meta.Title = records[0].Title
	}
	return meta
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
