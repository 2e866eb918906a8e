package llm

import (
	"log"
	"time"
)

// LogRequest logs an outgoing completion call. Prompt text is not logged.
func LogRequest(purpose, model string, messages int, promptLen int) {
	log.Printf("[llm] %s request model=%s messages=%d prompt_len=%d", purpose, model, messages, promptLen)
}

// LogResponse logs a completed call.
func LogResponse(purpose string, duration time.Duration, replyLen int) {
	log.Printf("[llm] %s response duration=%dms reply_len=%d", purpose, duration.Milliseconds(), replyLen)
}

// LogError logs a failed call.
func LogError(purpose string, duration time.Duration, err error) {
	log.Printf("[llm] %s error after %dms: %v", purpose, duration.Milliseconds(), err)
}
