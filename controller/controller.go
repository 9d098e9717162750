// Package controller holds the Fiber handlers. Every response uses the
// status/message/data envelope; domain errors map onto HTTP statuses
// through the shared taxonomy.
package controller

import (
	"errors"
	"strconv"

	"chat-service/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

func success(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"message": nil,
		"data":    data,
	})
}

func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusOf(err)).JSON(fiber.Map{
		"status":  "error",
		"message": err.Error(),
		"data":    nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, apperr.ErrAuthFailed):
		return fiber.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperr.ErrDuplicateIdentity), errors.Is(err, apperr.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperr.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// actorID reads the authenticated user id from the JWT middleware.
func actorID(c *fiber.Ctx) (uint, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return 0, apperr.ErrAuthFailed
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, apperr.ErrAuthFailed
	}
	idStr, ok := claims["id"].(string)
	if !ok {
		return 0, apperr.ErrAuthFailed
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, apperr.ErrAuthFailed
	}
	return uint(id), nil
}

func paramUint(c *fiber.Ctx, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil {
		return 0, apperr.InvalidArgument("invalid " + name)
	}
	return uint(v), nil
}
