package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aretw0/remoteui/pkg/domain"
)

// Canned mock responses.
const (
	MockFilePath   = "app/src/main/java/com/example/MainActivity.kt"
	MockDiff       = "<<<<<<< SEARCH\n    // Existing code\n=======\n    // New code added by AI\n>>>>>>> REPLACE"
	MockCompletion = "    println(\"Hello, Cortex!\")\n"
)

// FileModification is one edit proposed by the agent.
type FileModification struct {
	FilePath string `json:"file_path"`
	Diff     string `json:"diff"`
}

// ExecuteResponse is the body of POST /v1/agent/execute.
type ExecuteResponse struct {
	Modifications []FileModification `json:"modifications"`
}

// InlineCompletionResponse is the body of POST /v1/completion/inline.
type InlineCompletionResponse struct {
	Completion string `json:"completion"`
}

// ErrorResponse carries a validation failure.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ExecuteAgent handles POST /v1/agent/execute with a fixed modification.
func (s *Server) ExecuteAgent(w http.ResponseWriter, r *http.Request) {
	body, err := s.validateBody(w, r, "ExecuteRequest")
	if err != nil {
		s.logger.Warn("ExecuteAgent: invalid request", "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("ExecuteAgent: received prompt", "prompt_len", len(fmt.Sprint(body["prompt"])))

	writeJSON(w, http.StatusOK, ExecuteResponse{
		Modifications: []FileModification{{FilePath: MockFilePath, Diff: MockDiff}},
	})
}

// InlineCompletion handles POST /v1/completion/inline with a fixed completion.
func (s *Server) InlineCompletion(w http.ResponseWriter, r *http.Request) {
	body, err := s.validateBody(w, r, "InlineCompletionRequest")
	if err != nil {
		s.logger.Warn("InlineCompletion: invalid request", "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("InlineCompletion: received file content", "cursor_position", body["cursor_position"])

	writeJSON(w, http.StatusOK, InlineCompletionResponse{Completion: MockCompletion})
}

// validateBody decodes the request body and checks it against the named
// component schema of the embedded OpenAPI document.
func (s *Server) validateBody(w http.ResponseWriter, r *http.Request, schema string) (map[string]any, error) {
	ref, ok := s.doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return nil, fmt.Errorf("%w: unknown schema %s", domain.ErrInvalidRequest, schema)
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxActionBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	if err := ref.Value.VisitJSON(body); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
	}
	obj, _ := body.(map[string]any)
	return obj, nil
}
