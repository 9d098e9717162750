package controller

import (
	"chat-service/model"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type UserController struct {
	auth *service.AuthService
}

func NewUserController(auth *service.AuthService) *UserController {
	return &UserController{auth: auth}
}

type UserStatusInput struct {
	Status string `json:"status"`
}

type UserPasswordInput struct {
	Current string `json:"current_password"`
	Next    string `json:"new_password"`
}

func (uc *UserController) Me(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	user, err := uc.auth.UserByID(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, user)
}

func (uc *UserController) ByID(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	user, err := uc.auth.UserByID(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return success(c, user)
}

func (uc *UserController) Search(c *fiber.Ctx) error {
	users, err := uc.auth.SearchUsers(c.Context(), c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return success(c, users)
}

func (uc *UserController) All(c *fiber.Ctx) error {
	users, err := uc.auth.AllUsers(c.Context())
	if err != nil {
		return fail(c, err)
	}
	return success(c, users)
}

func (uc *UserController) UpdateStatus(c *fiber.Ctx) error {
	input := new(UserStatusInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := uc.auth.UpdateStatus(c.Context(), userID, model.UserStatus(input.Status)); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (uc *UserController) ChangePassword(c *fiber.Ctx) error {
	input := new(UserPasswordInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := uc.auth.ChangePassword(c.Context(), userID, input.Current, input.Next); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}
