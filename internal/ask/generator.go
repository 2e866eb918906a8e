package ask

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/EmpoweredVote/cost-navigator/internal/llm"
	"github.com/EmpoweredVote/cost-navigator/internal/utils"
	"gorm.io/gorm"
)

const (
	generatorSystemPrompt = "You are a SQL expert for healthcare data. Return only a single valid PostgreSQL SELECT statement."

	// maxSamples bounds each vocabulary sample placed in the prompt.
	maxSamples = 10
)

const schemaDescription = `Database Schema:
- providers table:
  - rndrng_prvdr_ccn (string): Provider ID
  - rndrng_prvdr_org_name (string): Hospital name
  - rndrng_prvdr_city (string): City
  - rndrng_prvdr_st (string): Street address
  - rndrng_prvdr_state_abrvtn (string): State code (e.g., 'NY')
  - rndrng_prvdr_zip5 (string): ZIP code
  - drg_cd (integer): DRG code
  - drg_desc (string): DRG description
  - tot_dschrgs (integer): Total discharges
  - avg_submtd_cvrd_chrg (decimal): Average billed charges
  - avg_tot_pymt_amt (decimal): Average total payment
  - avg_mdcr_pymt_amt (decimal): Average Medicare payment
  - latitude, longitude (decimal): Coordinates, may be NULL

- provider_ratings table:
  - provider_ccn (string): Links to rndrng_prvdr_ccn
  - rating (decimal): 1.0 to 10.0
  - rating_category (string): 'overall', 'cleanliness', etc.
  - review_count (integer): Number of reviews

- zip_codes table:
  - zip_code (string): 5-digit ZIP
  - latitude, longitude (decimal): Coordinates
  - city, state_code (string): Location info`

const generationGuidelines = `Guidelines:
1. For geographic searches, join zip_codes for the center point and compute great-circle distance in km with the haversine formula (Earth radius 6371 km) on latitude/longitude
2. Convert miles to km when the question uses miles (1 mile = 1.60934 km)
3. For cost queries, use avg_submtd_cvrd_chrg (what hospitals charge)
4. For quality/rating queries, join with provider_ratings where rating_category = 'overall'
5. Always limit results to prevent huge result sets (max 20)
6. For text matching on DRG descriptions, use ILIKE with % wildcards
7. Order by cost (ascending) for "cheapest" queries
8. Order by rating (descending) for "best" queries
9. Select rndrng_prvdr_org_name, rndrng_prvdr_city and rndrng_prvdr_state_abrvtn so answers can name the hospital

Examples:
- "cheapest knee replacement near 10001" -> Search for DRG with 'knee' in description near ZIP 10001
- "best rated heart surgery in NY" -> High-rated cardiac DRGs in NY state
- "DRG 470 within 25 miles of 90210" -> Specific DRG within radius

Return ONLY the SQL query, no explanations. Do not use comments or more than one statement.`

// Generator turns a question into a candidate SELECT via the model.
type Generator struct {
	db  *gorm.DB
	llm llm.Completer
}

func NewGenerator(db *gorm.DB, completer llm.Completer) *Generator {
	return &Generator{db: db, llm: completer}
}

type drgSample struct {
	DRGCode int
	DRGDesc *string
}

type zipSample struct {
	ZipCode   string
	City      *string
	StateCode *string
}

// Generate returns a query that passed IsSafe, or ok=false when the model
// call failed or its output was rejected.
func (g *Generator) Generate(ctx context.Context, question string) (string, bool) {
	askID := utils.AskIDFromContext(ctx)
	if g.llm == nil {
		return "", false
	}

	drgs, zips := g.samples(ctx)

	reply, err := g.llm.Complete(ctx, llm.Request{
		Purpose: "generate",
		Messages: []llm.Message{
			llm.System(generatorSystemPrompt),
			llm.User(buildGenerationPrompt(question, drgs, zips)),
		},
		Temperature: 0.1,
		MaxTokens:   500,
	})
	if err != nil {
		log.Printf("[ask] id=%s stage=generate err=%v", askID, err)
		return "", false
	}

	query := stripCodeFence(reply)
	if !IsSafe(query) {
		log.Printf("[ask] id=%s stage=generate rejected unsafe query len=%d", askID, len(query))
		return "", false
	}
	return query, true
}

// samples pulls live vocabulary for the prompt. Failures leave the sample
// lists empty; generation still proceeds.
func (g *Generator) samples(ctx context.Context) ([]drgSample, []zipSample) {
	if g.db == nil {
		return nil, nil
	}

	var drgs []drgSample
	if err := g.db.WithContext(ctx).Raw(`
		SELECT DISTINCT drg_cd, LEFT(drg_desc, 50) AS drg_desc
		FROM providers
		ORDER BY drg_cd
		LIMIT ?
	`, maxSamples).Scan(&drgs).Error; err != nil {
		log.Printf("[ask] id=%s stage=samples drg err=%v", utils.AskIDFromContext(ctx), err)
		drgs = nil
	}

	var zips []zipSample
	if err := g.db.WithContext(ctx).Raw(`
		SELECT zip_code, city, state_code
		FROM zip_codes
		WHERE latitude IS NOT NULL
		ORDER BY zip_code
		LIMIT ?
	`, maxSamples).Scan(&zips).Error; err != nil {
		log.Printf("[ask] id=%s stage=samples zip err=%v", utils.AskIDFromContext(ctx), err)
		zips = nil
	}

	return drgs, zips
}

func buildGenerationPrompt(question string, drgs []drgSample, zips []zipSample) string {
	var b strings.Builder
	b.WriteString("Convert this natural language question to a PostgreSQL query for our healthcare database.\n\n")
	fmt.Fprintf(&b, "Question: %q\n\n", question)
	b.WriteString(schemaDescription)

	b.WriteString("\n\nSample DRG codes and descriptions:\n")
	for i, d := range drgs {
		if i == maxSamples {
			break
		}
		fmt.Fprintf(&b, "- DRG %d: %s...\n", d.DRGCode, deref(d.DRGDesc))
	}

	b.WriteString("\nSample ZIP codes:\n")
	for i, z := range zips {
		if i == maxSamples {
			break
		}
		fmt.Fprintf(&b, "- %s: %s, %s\n", z.ZipCode, deref(z.City), deref(z.StateCode))
	}

	b.WriteString("\n")
	b.WriteString(generationGuidelines)
	return b.String()
}

// stripCodeFence removes markdown fences a model wraps around SQL.
func stripCodeFence(reply string) string {
	s := strings.ReplaceAll(reply, "```sql", "")
	s = strings.ReplaceAll(s, "```SQL", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
