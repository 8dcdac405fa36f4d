package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"evalgo.org/graphapi/internal/storage"
)

// getStatistics handles GET /api/v1/stats. The answer is a meta-only
// document.
func (s *Server) getStatistics(c echo.Context) error {
	snap, err := storage.Load(s.store)
	if err != nil {
		return InternalError("Failed to load graph", err.Error())
	}

	known := make(map[string]bool, len(snap.Hosts))
	distribution := make(map[string]int, len(snap.Hosts))
	for _, h := range snap.Hosts {
		known[h.ID] = true
		distribution[h.ID] = 0
	}

	running, dangling := 0, 0
	for _, ct := range snap.Containers {
		if ct.Status == "running" {
			running++
		}
		if known[ct.HostedOn] {
			distribution[ct.HostedOn]++
		} else {
			dangling++
		}
	}

	return s.document(c, http.StatusOK, map[string]any{
		"meta": map[string]any{
			"totalHosts":            len(snap.Hosts),
			"totalContainers":       len(snap.Containers),
			"runningContainers":     running,
			"unplacedContainers":    dangling,
			"totalStacks":           len(snap.Stacks),
			"containerDistribution": distribution,
		},
	})
}
