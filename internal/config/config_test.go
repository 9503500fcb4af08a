package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VECTOR_STORE", "memory")
	t.Setenv("TRACKER_UPDATE_INTERVAL", "")

	cfg := Load()
	assert.Equal(t, "memory", cfg.VectorStore.Driver)
	assert.Equal(t, 60*time.Second, cfg.Tracker.UpdateInterval)
	assert.Equal(t, 500, cfg.Retrieval.ChunkSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRACKER_UPDATE_INTERVAL", "90")
	t.Setenv("TRACKER_FINALIZE_TIMEOUT", "45s")
	t.Setenv("RAG_RECENT_CAPACITY", "20")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")

	cfg := Load()
	assert.Equal(t, 90*time.Second, cfg.Tracker.UpdateInterval)
	assert.Equal(t, 45*time.Second, cfg.Tracker.FinalizeTimeout)
	assert.Equal(t, 20, cfg.Retrieval.RecentCapacity)
	assert.True(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.IsProduction())
}
