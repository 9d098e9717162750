package controller

import (
	"chat-service/model"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type GroupController struct {
	groups *service.GroupService
}

func NewGroupController(groups *service.GroupService) *GroupController {
	return &GroupController{groups: groups}
}

type GroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
}

type GroupMemberInput struct {
	UserID uint `json:"user_id"`
}

type GroupRoleInput struct {
	Role string `json:"role"`
}

func (gc *GroupController) Create(c *fiber.Ctx) error {
	input := new(GroupInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	group, err := gc.groups.Create(c.Context(), userID, input.Name, input.Description, input.AvatarURL)
	if err != nil {
		return fail(c, err)
	}
	return success(c, group)
}

func (gc *GroupController) Update(c *fiber.Ctx) error {
	input := new(GroupInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	group, err := gc.groups.UpdateDetails(c.Context(), groupID, userID, input.Name, input.Description, input.AvatarURL)
	if err != nil {
		return fail(c, err)
	}
	return success(c, group)
}

func (gc *GroupController) ByID(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	group, err := gc.groups.ByID(c.Context(), groupID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, group)
}

func (gc *GroupController) Mine(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	groups, err := gc.groups.ForUser(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, groups)
}

func (gc *GroupController) Members(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	members, err := gc.groups.Members(c.Context(), groupID, userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, members)
}

func (gc *GroupController) AddMember(c *fiber.Ctx) error {
	input := new(GroupMemberInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := gc.groups.AddMember(c.Context(), groupID, userID, input.UserID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (gc *GroupController) RemoveMember(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	memberID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := gc.groups.RemoveMember(c.Context(), groupID, userID, memberID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

// Leave removes the caller from the group.
func (gc *GroupController) Leave(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := gc.groups.RemoveMember(c.Context(), groupID, userID, userID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (gc *GroupController) SetRole(c *fiber.Ctx) error {
	input := new(GroupRoleInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	memberID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := gc.groups.SetRole(c.Context(), groupID, userID, memberID, model.GroupRole(input.Role)); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (gc *GroupController) Delete(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := gc.groups.Delete(c.Context(), groupID, userID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}
