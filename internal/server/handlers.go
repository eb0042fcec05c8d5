package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hyperjump/docparse/internal/caption"
	"github.com/hyperjump/docparse/internal/markdown"
	"github.com/hyperjump/docparse/internal/models"
	"go.uber.org/zap"
)

// RootMessage is the liveness message served on "/".
const RootMessage = "Document Parser API is running."

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, models.MessageResponse{Message: RootMessage})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	up, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}
	defer up.remove()
	s.logger.Debug("parse upload", zap.String("filename", up.filename))
	s.respondJSON(w, http.StatusOK, s.parser.Parse(up.path, up.filename))
}

func (s *Server) handleParsePath(w http.ResponseWriter, r *http.Request) {
	var req models.ParsePathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := os.Stat(req.FilePath)
	if err != nil || !info.Mode().IsRegular() {
		s.respondError(w, http.StatusNotFound, "File not found.")
		return
	}
	s.logger.Debug("parse path", zap.String("path", req.FilePath))
	s.respondJSON(w, http.StatusOK, s.parser.Parse(req.FilePath, filepath.Base(req.FilePath)))
}

func (s *Server) handleXLSXToMarkdown(w http.ResponseWriter, r *http.Request) {
	up, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}
	defer up.remove()
	md, err := markdown.FromXLSX(up.path)
	if err != nil {
		s.logger.Error("xlsx to markdown failed", zap.String("filename", up.filename), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(md))
}

func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	if s.captioner == nil {
		s.respondError(w, http.StatusNotImplemented, "captioning not enabled")
		return
	}
	up, ok := s.receiveUpload(w, r)
	if !ok {
		return
	}
	defer up.remove()
	image, err := os.ReadFile(up.path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	text, err := s.captioner.Caption(r.Context(), image, r.FormValue("prompt"))
	if err != nil {
		if errors.Is(err, caption.ErrNotImage) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("caption failed", zap.String("filename", up.filename), zap.Error(err))
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, models.CaptionResponse{Filename: up.filename, Caption: text})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
