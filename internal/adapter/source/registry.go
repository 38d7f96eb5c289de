// Package source contains the per-platform message adapters. Each adapter
// turns one external API's payload into normalized domain.Message records
// with platform-prefixed IDs; everything past that normalization is the
// orchestrator's problem.
package source

import (
	"message-orchestrator/internal/domain"
)

// NewRegistry maps each adapter by its platform. Later adapters win on
// duplicate platforms.
func NewRegistry(adapters ...domain.SourceAdapter) map[domain.Platform]domain.SourceAdapter {
	registry := make(map[domain.Platform]domain.SourceAdapter, len(adapters))
	for _, a := range adapters {
		registry[a.Platform()] = a
	}
	return registry
}
