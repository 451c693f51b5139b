package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mbuchwa/rag-urz-ollama/internal/dto"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/logger"
	"github.com/mbuchwa/rag-urz-ollama/internal/pkg/serverutils"
	"github.com/mbuchwa/rag-urz-ollama/internal/service"
)

type ChatController struct {
	chatService service.IChatService
	log         logger.ILogger
}

func NewChatController(chatService service.IChatService, log logger.ILogger) *ChatController {
	return &ChatController{
		chatService: chatService,
		log:         log,
	}
}

func (c *ChatController) RegisterRoutes(api fiber.Router) {
	h := api.Group("/chat/v1")
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.ListSessions)
	h.Get("/session/:id/history", c.GetHistory)
	h.Post("/session/:id/clear", c.ClearSession)
	h.Delete("/session/:id", c.DeleteSession)
	h.Post("/send", c.SendMessage)
}

func (c *ChatController) CreateSession(ctx *fiber.Ctx) error {
	req := new(dto.CreateSessionRequest)
	if err := ctx.BodyParser(req); err != nil && !errors.Is(err, fiber.ErrUnprocessableEntity) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.chatService.CreateSession(ctx.Context(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *ChatController) ListSessions(ctx *fiber.Ctx) error {
	res, err := c.chatService.ListSessions(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *ChatController) GetHistory(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.chatService.GetHistory(ctx.Context(), sessionId)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show history", res))
}

func (c *ChatController) ClearSession(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.chatService.ClearSession(ctx.Context(), sessionId); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "session not found")
		}
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear session", nil))
}

func (c *ChatController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	if err := c.chatService.DeleteSession(ctx.Context(), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}

// SendMessage streams the answer as server-sent events: token frames while
// the model generates, one citations frame, then done.
func (c *ChatController) SendMessage(ctx *fiber.Ctx) error {
	req := new(dto.SendMessageRequest)
	if err := ctx.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")

	// The fiber ctx is recycled once the handler returns; the stream
	// writer must not touch it, so everything it needs is captured here.
	chatService := c.chatService
	log := c.log

	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamCtx := context.Background()

		onToken := func(token string) error {
			return writeStreamEvent(w, dto.StreamEvent{Type: "token", Token: token})
		}

		res, err := chatService.SendMessage(streamCtx, req, onToken)
		if err != nil {
			status := "internal error"
			if errors.Is(err, service.ErrSessionNotFound) {
				status = "session not found"
			}
			log.Error("chat", "send message failed", map[string]interface{}{
				"session_id": req.SessionId,
				"error":      err.Error(),
			})
			_ = writeStreamEvent(w, dto.StreamEvent{Type: "error", Error: status})
			return
		}

		if len(res.Citations) > 0 {
			_ = writeStreamEvent(w, dto.StreamEvent{Type: "citations", Citations: res.Citations})
		}
		_ = writeStreamEvent(w, dto.StreamEvent{Type: "done", Language: res.Language})
	})

	return nil
}

func writeStreamEvent(w *bufio.Writer, event dto.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := w.WriteString("data: " + string(payload) + "\n\n"); err != nil {
		return err
	}
	return w.Flush()
}
