package controller

import (
	"chat-service/model"
	"chat-service/service"

	"github.com/gofiber/fiber/v2"
)

type MessageController struct {
	messages *service.MessageService
}

func NewMessageController(messages *service.MessageService) *MessageController {
	return &MessageController{messages: messages}
}

type MessageSendInput struct {
	ReceiverID *uint  `json:"receiver_id"`
	GroupID    *uint  `json:"group_id"`
	Content    string `json:"content"`
	Kind       string `json:"kind"`
	FileURL    string `json:"file_url"`
}

type MessageEditInput struct {
	Content string `json:"content"`
}

func (mc *MessageController) Send(c *fiber.Ctx) error {
	input := new(MessageSendInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	kind := model.MessageKind(input.Kind)
	if input.Kind == "" {
		kind = model.KindText
	}
	msg, err := mc.messages.Send(c.Context(), service.SendMessageInput{
		SenderID:   userID,
		ReceiverID: input.ReceiverID,
		GroupID:    input.GroupID,
		Content:    input.Content,
		Kind:       kind,
		FileURL:    input.FileURL,
	})
	if err != nil {
		return fail(c, err)
	}
	return success(c, msg)
}

func (mc *MessageController) Direct(c *fiber.Ctx) error {
	otherID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := mc.messages.ListDirect(c.Context(), userID, otherID,
		c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return fail(c, err)
	}
	return success(c, msgs)
}

func (mc *MessageController) Group(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "groupId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	msgs, err := mc.messages.ListGroup(c.Context(), groupID, userID,
		c.QueryInt("limit"), c.QueryInt("offset"))
	if err != nil {
		return fail(c, err)
	}
	return success(c, msgs)
}

func (mc *MessageController) MarkRead(c *fiber.Ctx) error {
	senderID, err := paramUint(c, "userId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	n, err := mc.messages.MarkAsRead(c.Context(), userID, senderID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"marked": n,
	})
}

func (mc *MessageController) MarkGroupRead(c *fiber.Ctx) error {
	groupID, err := paramUint(c, "groupId")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	n, err := mc.messages.MarkGroupRead(c.Context(), userID, groupID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"marked": n,
	})
}

func (mc *MessageController) UnreadCount(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	n, err := mc.messages.UnreadCount(c.Context(), userID)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"unread": n,
	})
}

func (mc *MessageController) Edit(c *fiber.Ctx) error {
	input := new(MessageEditInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	messageID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	msg, err := mc.messages.Edit(c.Context(), messageID, userID, input.Content)
	if err != nil {
		return fail(c, err)
	}
	return success(c, msg)
}

func (mc *MessageController) Delete(c *fiber.Ctx) error {
	messageID, err := paramUint(c, "id")
	if err != nil {
		return fail(c, err)
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}
	if err := mc.messages.Delete(c.Context(), messageID, userID); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}
