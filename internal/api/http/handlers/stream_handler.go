package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-voice/internal/api/dto"
	"github.com/spec-kit/campus-voice/internal/auth"
	"github.com/spec-kit/campus-voice/internal/realtime"
	"github.com/spec-kit/campus-voice/internal/service"
	apperrors "github.com/spec-kit/campus-voice/pkg/util"
)

const streamPingInterval = 15 * time.Second

// StreamHandler pushes live list snapshots to open dashboards over SSE.
// Each connection owns one realtime subscription handle; dropping the
// connection tears the handle down.
type StreamHandler struct {
	service *service.ConcernService
	bridge  *realtime.Bridge
	logger  *zap.Logger
}

// NewStreamHandler constructs handler.
func NewStreamHandler(concernService *service.ConcernService, bridge *realtime.Bridge, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{service: concernService, bridge: bridge, logger: logger}
}

// Owned GET /api/dashboard/{submitter,staff}/stream: the caller's own
// partition.
func (h *StreamHandler) Owned(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthenticated("sign in required")
	}
	return h.stream(c, realtime.PartitionOwnedBy(principal.UserID), false)
}

// All GET /api/dashboard/admin/stream: every concern row.
func (h *StreamHandler) All(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthenticated("sign in required")
	}
	return h.stream(c, realtime.PartitionAll(), true)
}

func (h *StreamHandler) stream(c *fiber.Ctx, partition realtime.Partition, forReviewer bool) error {
	// snapshots carries full-list payloads from refetches to the writer.
	// Capacity one with replace-on-full: the writer always sends the most
	// recent completed fetch, last-fetch-wins.
	snapshots := make(chan []dto.ConcernResponse, 1)

	refetch := func(ctx context.Context) error {
		concerns, err := h.service.ListConcerns(ctx, partition.Scope())
		if err != nil {
			return err
		}
		payload := make([]dto.ConcernResponse, 0, len(concerns))
		for i := range concerns {
			payload = append(payload, concernResponse(&concerns[i], forReviewer))
		}
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			select {
			case snapshots <- payload:
				return nil
			default:
				select {
				case <-snapshots:
				default:
				}
			}
		}
	}

	// The subscription must outlive this handler call: the body stream
	// writer runs after it returns.
	streamCtx, cancel := context.WithCancel(context.Background())
	handle, err := h.bridge.Subscribe(streamCtx, partition, refetch)
	if err != nil {
		cancel()
		return apperrors.NewBackendUnavailable(err)
	}

	// Initial snapshot before any change event arrives.
	if err := refetch(streamCtx); err != nil {
		cancel()
		handle.Close()
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			handle.Close()
		}()
		ticker := time.NewTicker(streamPingInterval)
		defer ticker.Stop()

		for {
			select {
			case payload := <-snapshots:
				data, err := json.Marshal(payload)
				if err != nil {
					h.logger.Error("marshal stream snapshot", zap.Error(err))
					return
				}
				if _, err := fmt.Fprintf(w, "event: concerns\ndata: %s\n\n", data); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			case <-streamCtx.Done():
				return
			}
		}
	})

	return nil
}
