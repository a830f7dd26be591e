package prompts

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"transcreva/internal/domain"
)

// MsgLoadFailed is the user-facing message for a failed prompt fetch.
const MsgLoadFailed = "Deu algo de errado ao tentar carregar as opções de prompts."

// Lister fetches the prompt template list from the backend.
type Lister interface {
	ListPrompts(ctx context.Context) ([]domain.Prompt, error)
}

// Catalog holds the prompt templates fetched once from the backend. A failed
// load leaves the catalog empty but usable; there is no retry.
type Catalog struct {
	api Lister
	log zerolog.Logger

	mu      sync.RWMutex
	prompts []domain.Prompt
}

// NewCatalog creates an empty catalog backed by the given client.
func NewCatalog(api Lister, log zerolog.Logger) *Catalog {
	return &Catalog{
		api: api,
		log: log,
	}
}

// Load fetches the prompt list. The caller surfaces the error to the user;
// on failure the catalog stays empty.
func (c *Catalog) Load(ctx context.Context) error {
	prompts, err := c.api.ListPrompts(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("load prompt options")
		return err
	}

	c.mu.Lock()
	c.prompts = prompts
	c.mu.Unlock()

	return nil
}

// All returns the prompt templates in backend order.
func (c *Catalog) All() []domain.Prompt {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Prompt, len(c.prompts))
	copy(out, c.prompts)
	return out
}

// Select resolves a prompt id to its template text for the consumer.
// Unknown ids report false and emit nothing.
func (c *Catalog) Select(id string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, prompt := range c.prompts {
		if prompt.ID == id {
			return prompt.Template, true
		}
	}
	return "", false
}
