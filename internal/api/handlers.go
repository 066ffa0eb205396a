package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campushub/chat-service/internal/service"
)

// GET /chat/history/:roomId?limit=&before=
func (s *Server) roomHistory(c *fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	msgs, err := s.chat.GetRoomMessages(c.Context(), c.Params("roomId"), limit, c.Query("before"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(msgs)
}

// GET /chat/conversations/:userId
func (s *Server) conversations(c *fiber.Ctx) error {
	convs, err := s.chat.GetConversations(c.Context(), c.Params("userId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(convs)
}

// GET /chat/private/:userId/:partnerId?limit=&before=
func (s *Server) privateHistory(c *fiber.Ctx) error {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
	}
	msgs, err := s.chat.GetDirectMessages(c.Context(), c.Params("userId"), c.Params("partnerId"), limit, c.Query("before"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(msgs)
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, service.ErrForbidden):
		return fiber.NewError(fiber.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidID),
		errors.Is(err, service.ErrInvalidScope),
		errors.Is(err, service.ErrInvalidType),
		errors.Is(err, service.ErrEmptyContent):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		s.log.Errorw("chat request failed", "path", c.Path(), "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "internal error")
	}
}

func parseLimit(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
