package api

import (
	"bufio"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/companion/pkg/eventstream/fanout"
	"github.com/papercomputeco/companion/pkg/sse"
)

const keepAliveInterval = 15 * time.Second

// handleEvents streams persisted conversation events as SSE. Optional
// conversation_id and user_id query parameters filter the feed; limit ends
// the stream after that many events.
func (s *Server) handleEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return errorJSON(c, fiber.StatusBadRequest, "limit must not be negative")
	}

	events, cancel := s.config.Events.Subscribe(fanout.Filter{
		ConversationID: c.Query("conversation_id"),
		UserID:         c.Query("user_id"),
	})

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		if sse.Comment(w, "connected") != nil || w.Flush() != nil {
			return
		}

		sent := 0
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					s.logger.Error("encoding event", "event_id", ev.EventID, "error", err)
					continue
				}
				if err := sse.Write(w, sse.Event{ID: ev.EventID, Type: ev.EventType, Data: string(data)}); err != nil {
					return
				}
				// A failed flush means the client went away.
				if err := w.Flush(); err != nil {
					return
				}
				sent++
				if limit > 0 && sent >= limit {
					return
				}
			case <-ticker.C:
				if sse.Comment(w, "keep-alive") != nil || w.Flush() != nil {
					return
				}
			}
		}
	})

	return nil
}
