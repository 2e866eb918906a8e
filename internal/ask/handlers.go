package ask

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"
)

// Question length bounds for POST /ask, in characters.
const (
	MinQuestionLen = 5
	MaxQuestionLen = 500
)

// Asker is the part of Pipeline the handler depends on.
type Asker interface {
	ProcessQuestion(ctx context.Context, question string) (*Answer, error)
}

// Handlers serves /ask. A nil asker means text generation is not configured.
type Handlers struct {
	asker Asker
}

func NewHandlers(asker Asker) *Handlers {
	return &Handlers{asker: asker}
}

type askRequest struct {
	Question string `json:"question"`
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Ask handles POST /ask {"question": "..."}
func (h *Handlers) Ask(w http.ResponseWriter, r *http.Request) {
	if h.asker == nil {
		http.Error(w, "AI assistant is not configured", http.StatusServiceUnavailable)
		return
	}

	var req askRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if n := utf8.RuneCountInString(question); n < MinQuestionLen || n > MaxQuestionLen {
		http.Error(w, "question must be between 5 and 500 characters", http.StatusBadRequest)
		return
	}

	answer, err := h.asker.ProcessQuestion(r.Context(), question)
	if err != nil {
		log.Printf("[Ask] err=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, answer)
}
