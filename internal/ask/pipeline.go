package ask

import (
	"context"
	"log"
	"time"

	"github.com/EmpoweredVote/cost-navigator/internal/utils"
	"github.com/google/uuid"
)

// Fixed user-facing answers for each early exit.
const (
	OutOfScopeAnswer    = "I can only help with hospital pricing and quality information. Please ask about medical procedures, costs, or hospital ratings."
	NotUnderstoodAnswer = "I couldn't understand your question. Please try rephrasing it. For example: 'What's the cheapest hospital for knee replacement near 10001?'"
	ExecutionErrAnswer  = "I encountered an error processing your query. Please try rephrasing your question."
)

// Confidence scores attached to each outcome.
const (
	confidenceRejected  = 0.0
	confidenceExecError = 0.3
	confidenceEmpty     = 0.6
	confidenceAnswered  = 0.85
)

// DomainChecker, QueryGenerator, QueryRunner and AnswerWriter are the
// pipeline stages; Classifier, Generator, Executor and Synthesizer
// implement them.
type DomainChecker interface {
	InDomain(ctx context.Context, question string) bool
}

type QueryGenerator interface {
	Generate(ctx context.Context, question string) (string, bool)
}

type QueryRunner interface {
	Execute(ctx context.Context, query string) ([]Row, bool)
}

type AnswerWriter interface {
	Synthesize(ctx context.Context, question string, rows []Row) string
}

// Answer is the /ask response body.
type Answer struct {
	Answer       string  `json:"answer"`
	SQLQuery     *string `json:"sql_query"`
	Confidence   float64 `json:"confidence"`
	ResultsCount *int    `json:"results_count,omitempty"`
}

// Pipeline runs classify, generate, execute and synthesize in order.
type Pipeline struct {
	classifier  DomainChecker
	generator   QueryGenerator
	executor    QueryRunner
	synthesizer AnswerWriter
}

func NewPipeline(c DomainChecker, g QueryGenerator, e QueryRunner, s AnswerWriter) *Pipeline {
	return &Pipeline{classifier: c, generator: g, executor: e, synthesizer: s}
}

// ProcessQuestion answers question. Stage failures become fixed answers
// with a confidence score; an error is returned only when ctx is done.
func (p *Pipeline) ProcessQuestion(ctx context.Context, question string) (*Answer, error) {
	askID := uuid.NewString()
	ctx = utils.WithAskID(ctx, askID)
	start := time.Now()

	if !p.classifier.InDomain(ctx, question) {
		log.Printf("[ask] id=%s outcome=out_of_scope", askID)
		return &Answer{Answer: OutOfScopeAnswer, Confidence: confidenceRejected}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query, ok := p.generator.Generate(ctx, question)
	if !ok {
		log.Printf("[ask] id=%s outcome=not_understood", askID)
		return &Answer{Answer: NotUnderstoodAnswer, Confidence: confidenceRejected}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, ok := p.executor.Execute(ctx, query)
	if !ok {
		log.Printf("[ask] id=%s outcome=execution_error", askID)
		return &Answer{Answer: ExecutionErrAnswer, SQLQuery: &query, Confidence: confidenceExecError}, nil
	}

	answer := p.synthesizer.Synthesize(ctx, question, rows)
	confidence := confidenceEmpty
	if len(rows) > 0 {
		confidence = confidenceAnswered
	}
	count := len(rows)

	log.Printf("[ask] id=%s outcome=answered rows=%d duration=%dms", askID, count, time.Since(start).Milliseconds())
	return &Answer{
		Answer:       answer,
		SQLQuery:     &query,
		Confidence:   confidence,
		ResultsCount: &count,
	}, nil
}
