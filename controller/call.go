package controller

import (
	"chat-service/call"

	"github.com/gofiber/fiber/v2"
)

type CallController struct {
	calls *call.Manager
}

func NewCallController(calls *call.Manager) *CallController {
	return &CallController{calls: calls}
}

type CallInitiateInput struct {
	ReceiverID uint      `json:"receiver_id"`
	Kind       call.Kind `json:"kind"`
}

func (cc *CallController) Initiate(c *fiber.Ctx) error {
	input := new(CallInitiateInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	if input.Kind == "" {
		input.Kind = call.KindVoice
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	active, err := cc.calls.Initiate(userID, input.ReceiverID, input.Kind)
	if err != nil {
		return fail(c, err)
	}
	return success(c, active)
}

func (cc *CallController) Accept(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	active, err := cc.calls.Accept(c.Params("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, active)
}

func (cc *CallController) Reject(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	active, err := cc.calls.Reject(c.Params("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, active)
}

func (cc *CallController) End(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	active, err := cc.calls.End(c.Params("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, active)
}

func (cc *CallController) Get(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	active, err := cc.calls.Get(c.Params("id"), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, active)
}
