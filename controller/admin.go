package controller

import (
	"fmt"

	"chat-service/database"
	"chat-service/event"
	"chat-service/service"
	"chat-service/socketio"

	"github.com/gofiber/fiber/v2"
)

type AdminController struct {
	auth *service.AuthService
}

func NewAdminController(auth *service.AuthService) *AdminController {
	return &AdminController{auth: auth}
}

type AdminRoleInput struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (ac *AdminController) Users(c *fiber.Ctx) error {
	users, err := ac.auth.AllUsers(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return success(c, users)
}

// SetRole rewrites the casbin grouping for a user.
func (ac *AdminController) SetRole(c *fiber.Ctx) error {
	input := new(AdminRoleInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Role != "user" && input.Role != "admin" {
		return badRequest(c, "Unknown role")
	}

	user, err := ac.auth.UserByID(c.Context(), input.UserID)
	if err != nil {
		return fail(c, err)
	}

	e := database.Casbin()
	sub := fmt.Sprint(user.ID)
	e.DeleteRolesForUser(sub)
	e.AddGroupingPolicy(sub, input.Role)

	user.Role = input.Role
	if err := ac.auth.SaveUser(c.Context(), user); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

type AdminAnnounceInput struct {
	Message string `json:"message"`
}

// Announce pushes a notice to every connected socket.
func (ac *AdminController) Announce(c *fiber.Ctx) error {
	input := new(AdminAnnounceInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Message == "" {
		return badRequest(c, "Message is required")
	}
	socketio.Broadcast("server_announcement", fiber.Map{"message": input.Message})
	return success(c, nil)
}

// ReplayEvents re-publishes the outbound event log to the broker.
func (ac *AdminController) ReplayEvents(c *fiber.Ctx) error {
	if err := event.Replay(); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}
