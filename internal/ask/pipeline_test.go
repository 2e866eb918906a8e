package ask

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/EmpoweredVote/cost-navigator/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStages struct {
	inDomain bool
	query    string
	genOK    bool
	rows     []Row
	execOK   bool
	answer   string

	generated, executed, synthesized int
	askIDs                           []string
}

func (f *fakeStages) InDomain(ctx context.Context, _ string) bool {
	f.askIDs = append(f.askIDs, utils.AskIDFromContext(ctx))
	return f.inDomain
}

func (f *fakeStages) Generate(ctx context.Context, _ string) (string, bool) {
	f.generated++
	f.askIDs = append(f.askIDs, utils.AskIDFromContext(ctx))
	return f.query, f.genOK
}

func (f *fakeStages) Execute(_ context.Context, _ string) ([]Row, bool) {
	f.executed++
	return f.rows, f.execOK
}

func (f *fakeStages) Synthesize(_ context.Context, _ string, _ []Row) string {
	f.synthesized++
	return f.answer
}

func newFakePipeline(f *fakeStages) *Pipeline {
	return NewPipeline(f, f, f, f)
}

func TestProcessQuestion_OutOfScope(t *testing.T) {
	f := &fakeStages{inDomain: false}
	got, err := newFakePipeline(f).ProcessQuestion(context.Background(), "What's the weather today?")
	require.NoError(t, err)

	assert.Equal(t, OutOfScopeAnswer, got.Answer)
	assert.Nil(t, got.SQLQuery)
	assert.Zero(t, got.Confidence)
	assert.Nil(t, got.ResultsCount)
	assert.Zero(t, f.generated)
}

func TestProcessQuestion_NotUnderstood(t *testing.T) {
	f := &fakeStages{inDomain: true, genOK: false}
	got, err := newFakePipeline(f).ProcessQuestion(context.Background(), "knee?")
	require.NoError(t, err)

	assert.Equal(t, NotUnderstoodAnswer, got.Answer)
	assert.Nil(t, got.SQLQuery)
	assert.Zero(t, got.Confidence)
	assert.Zero(t, f.executed)
}

func TestProcessQuestion_ExecutionError(t *testing.T) {
	f := &fakeStages{inDomain: true, genOK: true, query: "SELECT broken", execOK: false}
	got, err := newFakePipeline(f).ProcessQuestion(context.Background(), "cheapest knee")
	require.NoError(t, err)

	assert.Equal(t, ExecutionErrAnswer, got.Answer)
	require.NotNil(t, got.SQLQuery)
	assert.Equal(t, "SELECT broken", *got.SQLQuery)
	assert.Equal(t, 0.3, got.Confidence)
	assert.Zero(t, f.synthesized)
}

func TestProcessQuestion_Answered(t *testing.T) {
	f := &fakeStages{
		inDomain: true, genOK: true, query: "SELECT 1", execOK: true,
		rows:   []Row{row("a", 1), row("a", 2)},
		answer: "Two options.",
	}
	got, err := newFakePipeline(f).ProcessQuestion(context.Background(), "cheapest knee")
	require.NoError(t, err)

	assert.Equal(t, "Two options.", got.Answer)
	assert.Equal(t, 0.85, got.Confidence)
	require.NotNil(t, got.ResultsCount)
	assert.Equal(t, 2, *got.ResultsCount)

	// Every stage sees the same ask id.
	require.Len(t, f.askIDs, 2)
	assert.NotEqual(t, "-", f.askIDs[0])
	assert.Equal(t, f.askIDs[0], f.askIDs[1])
}

func TestProcessQuestion_EmptyResult(t *testing.T) {
	f := &fakeStages{inDomain: true, genOK: true, query: "SELECT 1", execOK: true, rows: []Row{}, answer: NoResultsAnswer}
	got, err := newFakePipeline(f).ProcessQuestion(context.Background(), "cheapest knee")
	require.NoError(t, err)

	assert.Equal(t, 0.6, got.Confidence)
	require.NotNil(t, got.ResultsCount)
	assert.Zero(t, *got.ResultsCount)
}

func TestProcessQuestion_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeStages{inDomain: true, genOK: true, query: "SELECT 1", execOK: true}
	_, err := newFakePipeline(f).ProcessQuestion(ctx, "cheapest knee")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.generated)
}

func TestAnswerJSON(t *testing.T) {
	b, err := json.Marshal(Answer{Answer: OutOfScopeAnswer})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Contains(t, m, "sql_query")
	assert.Nil(t, m["sql_query"])
	assert.NotContains(t, m, "results_count")
	assert.EqualValues(t, 0, m["confidence"])
}
