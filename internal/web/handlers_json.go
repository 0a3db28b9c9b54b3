package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg, Message: "Unknown error"}
	if err != nil {
		resp.Message = err.Error()
	}
	s.writeJSON(w, status, resp)
}

// recoverJSON turns a panic in a handler into a 500 JSON error. It must be
// deferred directly.
func (s *Server) recoverJSON(w http.ResponseWriter, r *http.Request, msg string) {
	rec := recover()
	if rec == nil {
		return
	}
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%v", rec)
	}
	s.logger.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, msg, err)
}
