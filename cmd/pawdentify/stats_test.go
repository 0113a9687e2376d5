package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pawdentify/internal/analytics"
	"pawdentify/internal/orchestrator"
)

func TestRenderView(t *testing.T) {
	v := orchestrator.View{
		UserID: "user_1",
		State:  orchestrator.StateDegraded,
		Snapshot: analytics.Snapshot{
			Stats: analytics.DashboardStats{TotalScans: 3, AccuracyRate: 0.875, FavoriteBreeds: []string{"Pug", "Beagle"}},
		},
	}
	out := renderView(v)
	assert.Contains(t, out, "user_1")
	assert.Contains(t, out, "87.5%")
	assert.Contains(t, out, "Pug, Beagle")
	assert.Contains(t, out, "sin conexión")
}
