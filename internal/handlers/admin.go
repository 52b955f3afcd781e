package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/store"
)

type AdminHandler struct {
	Stats store.Stats
	Log   *logrus.Logger
}

func (h *AdminHandler) UserStats(c *fiber.Ctx) error {
	s, err := h.Stats.UserStats(c.UserContext())
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(s)
}

func (h *AdminHandler) GigStats(c *fiber.Ctx) error {
	s, err := h.Stats.GigStats(c.UserContext())
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(s)
}

func (h *AdminHandler) OrderStats(c *fiber.Ctx) error {
	s, err := h.Stats.OrderStats(c.UserContext())
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.JSON(s)
}
