package ask

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/EmpoweredVote/cost-navigator/internal/llm"
	"github.com/EmpoweredVote/cost-navigator/internal/utils"
)

// DomainTerms is the built-in fast-path vocabulary. A question containing
// any of these (case-insensitive, substring) is in scope without a model call.
var DomainTerms = []string{
	"hospital", "medical", "procedure", "surgery", "drg", "cost", "price",
	"cheapest", "expensive", "rating", "quality", "medicare", "treatment",
	"diagnosis", "heart", "knee", "hip", "replacement", "care", "health",
}

const classifierSystemPrompt = "You are a healthcare query classifier."

// Classifier decides whether a question is about hospital cost or quality.
type Classifier struct {
	llm   llm.Completer
	terms []string
}

// NewClassifier builds a classifier over DomainTerms plus extra. completer
// may be nil, in which case every non-matching question is accepted.
func NewClassifier(completer llm.Completer, extra []string) *Classifier {
	terms := make([]string, 0, len(DomainTerms)+len(extra))
	terms = append(terms, DomainTerms...)
	for _, t := range extra {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &Classifier{llm: completer, terms: terms}
}

// InDomain reports whether question is in scope. If the model call fails
// the question is accepted.
func (c *Classifier) InDomain(ctx context.Context, question string) bool {
	if c.matchesTerm(question) {
		return true
	}
	if c.llm == nil {
		return true
	}

	reply, err := c.llm.Complete(ctx, llm.Request{
		Purpose: "classify",
		Messages: []llm.Message{
			llm.System(classifierSystemPrompt),
			llm.User(classifierPrompt(question)),
		},
		Temperature: 0.1,
		MaxTokens:   10,
	})
	if err != nil {
		log.Printf("[ask] id=%s stage=classify fail-open err=%v", utils.AskIDFromContext(ctx), err)
		return true
	}
	return strings.ToLower(strings.TrimSpace(reply)) == "yes"
}

func (c *Classifier) matchesTerm(question string) bool {
	q := strings.ToLower(question)
	for _, t := range c.terms {
		if strings.Contains(q, t) {
			return true
		}
	}
	return false
}

func classifierPrompt(question string) string {
	return fmt.Sprintf(`Is this question about healthcare costs, hospital quality, or medical procedures?
Question: %q

Answer only 'yes' or 'no'.`, question)
}
