package router

import (
	"context"
	"strconv"

	"chat-service/model"
	"chat-service/service"
	"chat-service/utils"

	"github.com/zishang520/socket.io/v2/socket"
)

type SocketServices struct {
	Auth     *service.AuthService
	Messages *service.MessageService
}

type UserPresence struct {
	Id     uint `json:"id"`
	Online bool `json:"online"`
}

// Socket wires the inbound socket events. Pushes back to clients go
// through the registry, so handlers here only call into the services.
func Socket(server *socket.Server, svc SocketServices) {
	server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		sender := func() (uint, bool) {
			claims, ok := client.Data().(*utils.TokenMetadata)
			if !ok {
				return 0, false
			}
			id, err := strconv.ParseUint(claims.Id, 10, 64)
			if err != nil {
				return 0, false
			}
			return uint(id), true
		}

		// chat_send: target ("user" | "group"), target id, kind, data
		client.On("chat_send", func(args ...interface{}) {
			if len(args) < 4 {
				return
			}
			from, ok := sender()
			if !ok {
				return
			}
			target, _ := args[0].(string)
			rawID, _ := args[1].(string)
			kind, _ := args[2].(string)
			data, _ := args[3].(string)

			id64, err := strconv.ParseUint(rawID, 10, 64)
			if err != nil {
				return
			}
			targetID := uint(id64)

			input := service.SendMessageInput{
				SenderID: from,
				Kind:     model.MessageKind(kind),
			}
			if input.Kind == model.KindText {
				input.Content = data
			} else {
				input.FileURL = data
			}
			switch target {
			case "user":
				input.ReceiverID = &targetID
			case "group":
				input.GroupID = &targetID
			default:
				return
			}

			msg, err := svc.Messages.Send(context.Background(), input)
			if err != nil {
				client.Emit("chat_error", err.Error())
				return
			}
			client.Emit("chat_sent", msg)
		})

		client.On("chat_mark_read", func(args ...interface{}) {
			if len(args) < 1 {
				return
			}
			reader, ok := sender()
			if !ok {
				return
			}
			rawID, _ := args[0].(string)
			id64, err := strconv.ParseUint(rawID, 10, 64)
			if err != nil {
				return
			}
			svc.Messages.MarkAsRead(context.Background(), reader, uint(id64))
		})

		client.On("status_update", func(args ...interface{}) {
			if len(args) < 1 {
				return
			}
			userID, ok := sender()
			if !ok {
				return
			}
			status, _ := args[0].(string)
			svc.Auth.UpdateStatus(context.Background(), userID, model.UserStatus(status))
		})

		// presence: list of user ids to check against joined rooms
		client.On("presence", func(args ...interface{}) {
			rooms := server.Sockets().Adapter().Rooms().Keys()

			presence := []UserPresence{}
			for _, arg := range args {
				rawID, _ := arg.(string)
				id64, err := strconv.ParseUint(rawID, 10, 64)
				if err != nil {
					continue
				}
				online := false
				for i := range rooms {
					if rooms[i] == socket.Room(rawID) {
						online = true
						break
					}
				}
				presence = append(presence, UserPresence{Id: uint(id64), Online: online})
			}
			client.Emit("presence", presence)
		})
	})
}
