package ask_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EmpoweredVote/cost-navigator/internal/ask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAsker struct {
	answer *ask.Answer
	err    error
	got    string
	calls  int
}

func (f *fakeAsker) ProcessQuestion(_ context.Context, q string) (*ask.Answer, error) {
	f.calls++
	f.got = q
	return f.answer, f.err
}

func post(t *testing.T, h *ask.Handlers, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ask.SetupRoutes(h).ServeHTTP(rec, req)
	return rec
}

func TestAsk_NotConfigured(t *testing.T) {
	rec := post(t, ask.NewHandlers(nil), `{"question":"cheapest knee replacement"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAsk_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad json", `{"question":`},
		{"missing question", `{}`},
		{"too short", `{"question":"knee"}`},
		{"whitespace padded short", `{"question":"   knee   "}`},
		{"too long", `{"question":"` + strings.Repeat("a", 501) + `"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := &fakeAsker{}
			rec := post(t, ask.NewHandlers(f), tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Zero(t, f.calls)
		})
	}
}

func TestAsk_OK(t *testing.T) {
	q := "SELECT 1"
	n := 1
	f := &fakeAsker{answer: &ask.Answer{Answer: "One result.", SQLQuery: &q, Confidence: 0.85, ResultsCount: &n}}

	rec := post(t, ask.NewHandlers(f), `{"question":"  cheapest knee replacement near 10001  "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cheapest knee replacement near 10001", f.got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "One result.", body["answer"])
	assert.Equal(t, "SELECT 1", body["sql_query"])
	assert.Equal(t, 0.85, body["confidence"])
	assert.EqualValues(t, 1, body["results_count"])
}

func TestAsk_BoundaryLengths(t *testing.T) {
	f := &fakeAsker{answer: &ask.Answer{Answer: "ok"}}
	h := ask.NewHandlers(f)

	assert.Equal(t, http.StatusOK, post(t, h, `{"question":"knees"}`).Code)
	assert.Equal(t, http.StatusOK, post(t, h, `{"question":"`+strings.Repeat("é", 500)+`"}`).Code)
}

func TestAsk_InternalFailure(t *testing.T) {
	f := &fakeAsker{err: errors.New("context canceled")}
	rec := post(t, ask.NewHandlers(f), `{"question":"cheapest knee replacement"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
