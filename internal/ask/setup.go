package ask

import (
	"errors"
	"log"

	"github.com/EmpoweredVote/cost-navigator/internal/config"
	"github.com/EmpoweredVote/cost-navigator/internal/llm"
	"gorm.io/gorm"
)

// Init wires the pipeline from cfg. Without an API key the handlers answer
// 503 and no pipeline is built.
func Init(db *gorm.DB, cfg config.Config) *Handlers {
	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.OpenAIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.LLMTimeout,
	})
	if errors.Is(err, llm.ErrNotConfigured) {
		log.Println("[ask] OPENAI_API_KEY not set; /ask disabled")
		return NewHandlers(nil)
	}
	if err != nil {
		log.Printf("[ask] llm client: %v; /ask disabled", err)
		return NewHandlers(nil)
	}

	pipeline := NewPipeline(
		NewClassifier(client, cfg.ExtraDomainTerms),
		NewGenerator(db, client),
		NewExecutor(db, cfg.StatementTimeout),
		NewSynthesizer(client),
	)
	log.Printf("[ask] enabled model=%s statement_timeout=%s", client.Model(), cfg.StatementTimeout)
	return NewHandlers(pipeline)
}
