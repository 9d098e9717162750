package controller

import (
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type FriendshipController struct {
	friendships *service.FriendshipService
}

func NewFriendshipController(friendships *service.FriendshipService) *FriendshipController {
	return &FriendshipController{friendships: friendships}
}

type FriendRequestInput struct {
	UserID uint `json:"user_id"`
}

func (fc *FriendshipController) SendRequest(c *fiber.Ctx) error {
	input := new(FriendRequestInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	f, err := fc.friendships.SendRequest(c.Context(), userID, input.UserID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, f)
}

func (fc *FriendshipController) Accept(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	f, err := fc.friendships.Accept(c.Context(), id, userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, f)
}

func (fc *FriendshipController) Reject(c *fiber.Ctx) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := fc.friendships.Reject(c.Context(), id, userID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (fc *FriendshipController) Remove(c *fiber.Ctx) error {
	otherID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := fc.friendships.RemoveFriend(c.Context(), userID, otherID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (fc *FriendshipController) Block(c *fiber.Ctx) error {
	otherID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := fc.friendships.Block(c.Context(), userID, otherID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (fc *FriendshipController) Unblock(c *fiber.Ctx) error {
	otherID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := fc.friendships.Unblock(c.Context(), userID, otherID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (fc *FriendshipController) BlockStatus(c *fiber.Ctx) error {
	otherID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	status, err := fc.friendships.BlockStatus(c.Context(), userID, otherID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"block_status": status,
	})
}

func (fc *FriendshipController) Requests(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	requests, err := fc.friendships.Requests(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, requests)
}

func (fc *FriendshipController) Friends(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	friends, err := fc.friendships.Friends(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, friends)
}
