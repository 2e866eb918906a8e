package ask

import (
	"context"
	"sync"

	"github.com/EmpoweredVote/cost-navigator/internal/llm"
)

// stubCompleter returns canned replies keyed by request purpose and
// records every request.
type stubCompleter struct {
	mu       sync.Mutex
	replies  map[string]string
	err      error
	requests []llm.Request
}

func (s *stubCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.replies[req.Purpose], nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func (s *stubCompleter) last() llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1]
}

func row(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.Columns = append(r.Columns, kv[i].(string))
		r.Values = append(r.Values, kv[i+1])
	}
	return r
}
