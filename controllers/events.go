package controllers

import (
	"bufio"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/redis"
)

const keepAliveInterval = 25 * time.Second

// EventsController streams refresh signals so open schedule and booking
// views know when to refetch.
type EventsController struct {
	hub *redis.Hub
	log *zap.Logger
}

func NewEventsController(hub *redis.Hub, log *zap.Logger) *EventsController {
	return &EventsController{hub: hub, log: log}
}

// Stream sends server-sent events for the caller's own profile and for the
// teacher named by ?teacher_id=, if any.
func (ec *EventsController) Stream(c *fiber.Ctx) error {
	p, err := identity.FromContext(c)
	if err != nil {
		return err
	}
	ids := []uuid.UUID{p.ProfileID}
	if raw := c.Query("teacher_id"); raw != "" {
		teacherID, err := uuid.Parse(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid teacher_id")
		}
		ids = append(ids, teacherID)
	}

	signals, stop := ec.hub.Listen(ids...)
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	log := ec.log.With(zap.String("user_id", p.UserID.String()))
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer stop()
		log.Debug("Event stream opened")

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case sig, ok := <-signals:
				if !ok {
					return
				}
				payload, err := sonic.Marshal(sig)
				if err != nil {
					log.Warn("Failed to encode refresh signal", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: refresh\ndata: %s\n\n", payload)
			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
			}
			// A failed flush means the client went away.
			if err := w.Flush(); err != nil {
				log.Debug("Event stream closed", zap.Error(err))
				return
			}
		}
	}))
	return nil
}
