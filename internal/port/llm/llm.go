// Package llm defines the port for generative text models.
package llm

import (
	"context"
	"errors"

	"github.com/Strob0t/Karuna/internal/domain/chat"
)

// ErrUnavailable is returned when the model is temporarily refusing calls,
// for example while a circuit breaker is open.
var ErrUnavailable = errors.New("model unavailable")

// Generator produces the next model turn for a conversation. An empty reply
// with a nil error means the model returned no text.
type Generator interface {
	Generate(ctx context.Context, history []chat.Message) (string, error)
}
