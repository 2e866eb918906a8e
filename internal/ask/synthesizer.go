package ask

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/cost-navigator/internal/llm"
	"github.com/EmpoweredVote/cost-navigator/internal/utils"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NoResultsAnswer is returned for an empty result set without a model call.
const NoResultsAnswer = "I couldn't find any results matching your query. Try adjusting your search criteria, such as increasing the search radius or using different keywords."

const (
	synthesizerSystemPrompt = "You are a helpful healthcare cost advisor. Provide clear, accurate information based on the data."

	digestRows   = 5
	fallbackRows = 3
	milesPerKm   = 0.621371
)

var printer = message.NewPrinter(language.English)

// Synthesizer writes the prose answer for a set of result rows.
type Synthesizer struct {
	llm llm.Completer
}

func NewSynthesizer(completer llm.Completer) *Synthesizer {
	return &Synthesizer{llm: completer}
}

// Synthesize answers question from rows. It never fails: when the model
// is unavailable a plain listing of the top rows is returned.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, rows []Row) string {
	if len(rows) == 0 {
		return NoResultsAnswer
	}
	if s.llm == nil {
		return fallbackAnswer(rows)
	}

	reply, err := s.llm.Complete(ctx, llm.Request{
		Purpose: "synthesize",
		Messages: []llm.Message{
			llm.System(synthesizerSystemPrompt),
			llm.User(answerPrompt(question, rows)),
		},
		Temperature: 0.7,
		MaxTokens:   300,
	})
	if err == nil && strings.TrimSpace(reply) != "" {
		return strings.TrimSpace(reply)
	}
	if err != nil {
		log.Printf("[ask] id=%s stage=synthesize fallback err=%v", utils.AskIDFromContext(ctx), err)
	}
	return fallbackAnswer(rows)
}

func answerPrompt(question string, rows []Row) string {
	return fmt.Sprintf(`Generate a helpful, conversational answer to this healthcare question based on the database results.

User Question: %q

Query Results:
%s

Guidelines:
1. Be conversational and helpful
2. Mention specific hospital names and locations
3. Include costs in dollars with proper formatting (e.g., $45,000)
4. Mention ratings if available (e.g., "rated 8.5/10")
5. If multiple results, highlight the top 2-3 options
6. For cost queries, emphasize the cheapest options
7. For quality queries, emphasize the highest-rated options
8. Include relevant details like city/state and distance if available
9. Keep the response concise but informative

Generate a natural, helpful response:`, question, formatDigest(rows))
}

// formatDigest renders up to digestRows rows as numbered one-line summaries.
func formatDigest(rows []Row) string {
	if len(rows) == 0 {
		return "No results found"
	}

	lines := make([]string, 0, digestRows)
	for i, row := range rows {
		if i == digestRows {
			break
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d. ", i+1)

		if name, ok := stringValue(row, "rndrng_prvdr_org_name"); ok {
			b.WriteString("Hospital: " + name)
		}
		city, hasCity := stringValue(row, "rndrng_prvdr_city")
		state, hasState := stringValue(row, "rndrng_prvdr_state_abrvtn")
		if hasCity && hasState {
			fmt.Fprintf(&b, " (%s, %s)", city, state)
		}
		if cost, ok := floatValue(row, "avg_submtd_cvrd_chrg"); ok && cost != 0 {
			b.WriteString(", Cost: " + formatCurrency(cost))
		}
		if rating, ok := ratingValue(row); ok {
			b.WriteString(", Rating: " + formatRating(rating) + "/10")
		}
		if v, ok := row.Get("drg_cd"); ok && v != nil {
			fmt.Fprintf(&b, ", DRG: %v", v)
		}
		if km, ok := floatValue(row, "distance_km"); ok && km != 0 {
			fmt.Fprintf(&b, ", Distance: %.1f miles", km*milesPerKm)
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// fallbackAnswer lists up to fallbackRows named rows as plain sentences.
func fallbackAnswer(rows []Row) string {
	if len(rows) == 0 {
		return "No results found for your query."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d result(s) for your query:\n\n", len(rows))

	for i, row := range rows {
		if i == fallbackRows {
			break
		}
		name, ok := stringValue(row, "rndrng_prvdr_org_name")
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%d. %s", i+1, name)
		if city, ok := stringValue(row, "rndrng_prvdr_city"); ok {
			state, _ := stringValue(row, "rndrng_prvdr_state_abrvtn")
			fmt.Fprintf(&b, " in %s, %s", city, state)
		}
		if cost, ok := floatValue(row, "avg_submtd_cvrd_chrg"); ok && cost != 0 {
			b.WriteString(" - Average cost: " + formatCurrency(cost))
		}
		if rating, ok := floatValue(row, "rating"); ok && rating != 0 {
			b.WriteString(" (Rating: " + formatRating(rating) + "/10)")
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

func ratingValue(row Row) (float64, bool) {
	if v, ok := floatValue(row, "rating"); ok && v != 0 {
		return v, true
	}
	if v, ok := floatValue(row, "overall_rating"); ok && v != 0 {
		return v, true
	}
	return 0, false
}

// formatCurrency renders v as US dollars with grouping, e.g. $45,000.00.
func formatCurrency(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func stringValue(row Row, col string) (string, bool) {
	v, ok := row.Get(col)
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	default:
		return fmt.Sprint(t), true
	}
}

// floatValue reads a numeric column. Postgres numerics arrive as strings.
func floatValue(row Row, col string) (float64, bool) {
	v, ok := row.Get(col)
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		return f, err == nil
	}
	return 0, false
}
