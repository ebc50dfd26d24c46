// Package bootstrap loads the listen intents registered when the daemon starts.
package bootstrap

import (
	"github.com/morezero/intent-dispatch/pkg/intent"
)

// ListenConfig is the root of a listen bootstrap file. Each entry of Listen
// is the body of a listen intent: {on, type}.
type ListenConfig struct {
	Name   string           `json:"name"`
	Listen []map[string]any `json:"listen"`
}

// Intents returns one listen intent per entry, in file order. Entries are not
// validated here; the orchestrator reports malformed ones.
func (c *ListenConfig) Intents() []*intent.Intent {
	out := make([]*intent.Intent, 0, len(c.Listen))
	for _, entry := range c.Listen {
		out = append(out, intent.FromMap(map[string]any{
			"kind":   string(intent.KindListen),
			"listen": copyMap(entry),
		}))
	}
	return out
}

// copyMap copies the top level of m so decoding never aliases the config.
func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
