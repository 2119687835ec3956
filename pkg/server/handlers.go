package server

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/WASasquatch/ComfyUI-Viewer/pkg/errors"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/export"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/render"
	"github.com/WASasquatch/ComfyUI-Viewer/pkg/types"
)

// maxRequestBytes bounds request bodies; canvas payloads carry inline
// images, so the cap is generous.
const maxRequestBytes = 32 << 20

type viewInfo struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	Priority     int      `json:"priority"`
	Marker       string   `json:"marker,omitempty"`
	Interactive  bool     `json:"interactive,omitempty"`
	Dependencies []string `json:"dependencies,omitempty"`
}

type detectRequest struct {
	Content string `json:"content"`
	All     bool   `json:"all,omitempty"`
}

type detectScore struct {
	View        string `json:"view"`
	DisplayName string `json:"display_name"`
	Score       int    `json:"score"`
	ByMarker    bool   `json:"by_marker,omitempty"`
}

type detectResponse struct {
	detectScore
	Scores []detectScore `json:"scores,omitempty"`
}

type renderRequest struct {
	Content string       `json:"content"`
	NodeID  string       `json:"node_id,omitempty"`
	View    string       `json:"view,omitempty"`
	Theme   *types.Theme `json:"theme,omitempty"`
}

type renderResponse struct {
	HTML         string              `json:"html"`
	View         string              `json:"view,omitempty"`
	Options      []render.ViewOption `json:"options,omitempty"`
	Items        int                 `json:"items,omitempty"`
	Hash         string              `json:"hash"`
	Dependencies []string            `json:"dependencies,omitempty"`
	Messages     []json.RawMessage   `json:"messages,omitempty"`
}

type exportRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	descriptors := s.pipeline.Registry().ByPriority()

	infos := make([]viewInfo, 0, len(descriptors))
	for _, d := range descriptors {
		infos = append(infos, viewInfo{
			ID:           d.View.Name(),
			DisplayName:  d.View.DisplayName(),
			Priority:     d.View.Priority(),
			Marker:       d.Marker,
			Interactive:  d.Interactive,
			Dependencies: d.Dependencies,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	best, err := s.pipeline.Engine().Best(req.Content)
	if err != nil {
		s.writeCodedError(w, err)
		return
	}

	resp := detectResponse{detectScore: detectScore{
		View:        best.View.Name(),
		DisplayName: best.View.DisplayName(),
		Score:       best.Score,
		ByMarker:    best.ByMarker,
	}}
	if req.All {
		for _, res := range s.pipeline.Engine().Scores(req.Content) {
			resp.Scores = append(resp.Scores, detectScore{
				View:        res.View.Name(),
				DisplayName: res.View.DisplayName(),
				Score:       res.Score,
				ByMarker:    res.ByMarker,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	theme := s.theme
	if req.Theme != nil {
		theme = *req.Theme
	}

	var messages []json.RawMessage
	hc := &types.HostContext{
		NodeID:       req.NodeID,
		Store:        s.store,
		Theme:        theme,
		ViewOverride: req.View,
		Emit: func(msg types.CoreMessage) {
			raw, err := types.EncodeCoreMessage(msg)
			if err != nil {
				s.logger.Warn().Err(err).Str("type", msg.Type()).Msg("encoding core message failed")
				return
			}
			messages = append(messages, raw)
		},
	}

	result, err := s.pipeline.Render(req.Content, hc)
	if err != nil {
		s.writeCodedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, renderResponse{
		HTML:         result.Document.Standalone(),
		View:         result.View,
		Options:      result.Options,
		Items:        result.Items,
		Hash:         result.Hash,
		Dependencies: result.Dependencies,
		Messages:     messages,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	files, err := export.Plan(req.Content, s.pipeline.Registry())
	if err != nil {
		s.writeCodedError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.Archive(&buf, files); err != nil {
		s.writeCodedError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="export.zip"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn().Err(err).Msg("writing export archive failed")
	}
}

// decodeJSON reads the request body into dst. It answers the request
// itself on failure and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) writeCodedError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeError(w, status, err.Error())
}

func statusForError(err error) int {
	switch errors.GetErrorCode(err) {
	case errors.ErrInvalidInput, errors.ErrInvalidEnvelope, errors.ErrInvalidMarker, errors.ErrInvalidState:
		return http.StatusBadRequest
	case errors.ErrViewNotFound, errors.ErrNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
