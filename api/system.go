package api

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/session"
	"github.com/papercomputeco/companion/pkg/storage"
	"github.com/papercomputeco/companion/pkg/utils"
)

// DefaultCleanupIdle is the idle threshold of POST /v1/memory/cleanup.
const DefaultCleanupIdle = time.Hour

// Features advertised by /health.
var Features = []string{
	"content-aware message analysis",
	"dynamic response building",
	"memory management with overflow handling",
	"context threading across messages",
	"automatic conversation restart",
	"user fact learning",
	"conversation insights",
}

// HealthResponse is the reply to GET /health.
type HealthResponse struct {
	Status         string   `json:"status"`
	Version        string   `json:"version"`
	Features       []string `json:"features"`
	ActiveSessions int      `json:"active_sessions"`
}

// MemoryStatusResponse is the reply to GET /v1/memory/status.
type MemoryStatusResponse struct {
	ActiveSessions int                      `json:"active_sessions"`
	Sessions       map[string]memory.Status `json:"sessions"`
}

// CleanupResponse is the reply to POST /v1/memory/cleanup.
type CleanupResponse struct {
	CleanedSessions   int    `json:"cleaned_sessions"`
	RemainingSessions int    `json:"remaining_sessions"`
	Message           string `json:"message"`
}

// ProfileResponse is the reply to GET /v1/users/:id/profile.
type ProfileResponse struct {
	User  *storage.User   `json:"user"`
	Facts []*storage.Fact `json:"facts"`
}

// SystemStatsResponse is the reply to GET /v1/system/stats.
type SystemStatsResponse struct {
	Database DatabaseTotals `json:"database_stats"`
	Memory   MemoryTotals   `json:"memory_stats"`
}

// DatabaseTotals extends the stored record counts with per-entity averages.
type DatabaseTotals struct {
	storage.Stats
	AvgMessagesPerConversation float64 `json:"avg_messages_per_conversation"`
	AvgFactsPerUser            float64 `json:"avg_facts_per_user"`
}

// MemoryTotals aggregates the live sessions.
type MemoryTotals struct {
	ActiveSessions        int                        `json:"active_sessions"`
	TotalMessagesInMemory int                        `json:"total_messages_in_memory"`
	Sessions              map[string]SessionOverview `json:"memory_details"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:         "healthy",
		Version:        utils.Version,
		Features:       Features,
		ActiveSessions: s.service.Sessions().Len(),
	})
}

// sessionStatuses reads every live session's status under its lock.
func (s *Server) sessionStatuses() map[string]memory.Status {
	out := map[string]memory.Status{}
	for _, sess := range s.service.Sessions().Snapshot() {
		out[sess.ID] = statusOf(sess)
	}
	return out
}

func statusOf(sess *session.Session) memory.Status {
	sess.Lock()
	defer sess.Unlock()
	return sess.Memory.Status()
}

func (s *Server) handleMemoryStatus(c *fiber.Ctx) error {
	statuses := s.sessionStatuses()
	return c.JSON(MemoryStatusResponse{
		ActiveSessions: len(statuses),
		Sessions:       statuses,
	})
}

// handleMemoryCleanup drops sessions idle for longer than the idle query
// parameter (a Go duration, default 1h).
func (s *Server) handleMemoryCleanup(c *fiber.Ctx) error {
	idle := DefaultCleanupIdle
	if raw := c.Query("idle"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return errorJSON(c, fiber.StatusBadRequest, "idle must be a non-negative duration")
		}
		idle = d
	}

	store := s.service.Sessions()
	cleaned := store.Cleanup(idle)
	s.logger.Info("memory cleanup", "idle", idle, "cleaned", cleaned)

	return c.JSON(CleanupResponse{
		CleanedSessions:   cleaned,
		RemainingSessions: store.Len(),
		Message:           fmt.Sprintf("Cleaned up %d inactive sessions", cleaned),
	})
}

func (s *Server) handleUserProfile(c *fiber.Ctx) error {
	ctx := c.Context()
	user, err := s.storer.GetUser(ctx, c.Params("id"))
	if err != nil {
		var nf storage.NotFoundError
		if errors.As(err, &nf) {
			return errorJSON(c, fiber.StatusNotFound, "user not found")
		}
		return err
	}

	stored, err := s.storer.ListFacts(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(ProfileResponse{User: user, Facts: stored})
}

func (s *Server) handleSystemStats(c *fiber.Ctx) error {
	stats, err := s.storer.Stats(c.Context())
	if err != nil {
		return err
	}

	statuses := s.sessionStatuses()
	details := lo.MapValues(statuses, func(st memory.Status, _ string) SessionOverview {
		return *overviewOf(st)
	})

	return c.JSON(SystemStatsResponse{
		Database: DatabaseTotals{
			Stats:                      stats,
			AvgMessagesPerConversation: ratio(stats.Messages, stats.Conversations),
			AvgFactsPerUser:            ratio(stats.Facts, stats.Users),
		},
		Memory: MemoryTotals{
			ActiveSessions: len(statuses),
			TotalMessagesInMemory: lo.SumBy(lo.Values(statuses), func(st memory.Status) int {
				return st.MessageCount
			}),
			Sessions: details,
		},
	})
}

// ratio divides to two decimals, treating an empty denominator as one.
func ratio(n, d int) float64 {
	return math.Round(float64(n)/float64(max(d, 1))*100) / 100
}

func (s *Server) handleListDemos(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"demos": companion.Demos()})
}

// handleDemo plays a scripted conversation on a throwaway session.
func (s *Server) handleDemo(c *fiber.Ctx) error {
	res, err := s.service.RunDemo(c.Context(), c.Params("kind"))
	if err != nil {
		var unknown *companion.UnknownDemoError
		if errors.As(err, &unknown) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":     unknown.Error(),
				"available": companion.Demos(),
			})
		}
		return err
	}
	return c.JSON(res)
}
