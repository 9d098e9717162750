// Package socketio bridges socket.io connections to the subscription
// registry. Each authenticated connection joins a room named by its
// user id and registers a push callback under the same subject, so the
// registry and room addressing stay aligned.
package socketio

import (
	"context"
	"time"

	"chat-service/database"
	"chat-service/registry"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/zishang520/engine.io/v2/log"
	"github.com/zishang520/socket.io-go-redis/adapter"
	r_type "github.com/zishang520/socket.io-go-redis/types"
	"github.com/zishang520/socket.io/v2/socket"
)

var server *socket.Server

// roomCallback pushes registry events into a socket.io room.
type roomCallback struct {
	room socket.Room
}

func (cb *roomCallback) Send(event string, payload any) error {
	Emit(string(cb.room), event, payload)
	return nil
}

// Init wires the socket server. reg receives chat subscriptions keyed
// by user id; bankReg receives banking subscriptions keyed by account
// id when the client handshakes with an account query parameter.
func Init(app *fiber.App, reg, bankReg *registry.Registry) *socket.Server {
	log.DEBUG = true

	options := socket.DefaultServerOptions()
	options.SetServeClient(true)
	options.SetAllowEIO3(true)
	options.SetPingInterval(300 * time.Millisecond)
	options.SetPingTimeout(200 * time.Millisecond)
	options.SetMaxHttpBufferSize(100000000)
	options.SetConnectTimeout(1000 * time.Millisecond)
	options.SetAdapter(&adapter.RedisAdapterBuilder{
		Redis: r_type.NewRedisClient(context.Background(), database.Redis[1]),
		Opts:  &adapter.RedisAdapterOptions{},
	})

	server = socket.NewServer(nil, nil)

	server.Use(func(client *socket.Socket, next func(*socket.ExtendedError)) {
		token, auth := client.Conn().Request().Query().Get("token")

		if auth {
			claims, err := utils.CheckAndExtractTokenMetadata(token, "JWT_ACCESS_KEY")

			if err == nil {
				if !claims.Otp {
					client.Join(socket.Room(claims.Id))
					client.SetData(claims)
					reg.Register(claims.Id, &roomCallback{room: socket.Room(claims.Id)})

					if account, ok := client.Conn().Request().Query().Get("account"); ok && account != "" {
						room := socket.Room("bank:" + account)
						client.Join(room)
						bankReg.Register(account, &roomCallback{room: room})
					}
				}
			}
		}

		next(nil)
	})

	server.On("connection", func(clients ...any) {
		client := clients[0].(*socket.Socket)
		client.On("disconnect", func(...any) {
			claims, ok := client.Data().(*utils.TokenMetadata)
			if !ok {
				return
			}
			// Other sessions of the same user may still be in the room.
			server.In(socket.Room(claims.Id)).FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
				if len(sockets) == 0 {
					reg.Unregister(claims.Id)
				}
			})
		})
	})

	app.Get("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))
	app.Post("/socket.io/", adaptor.HTTPHandler(server.ServeHandler(options)))

	return server
}

func Broadcast(event string, message any) {
	server.FetchSockets()(func(sockets []*socket.RemoteSocket, _ error) {
		for _, socket := range sockets {
			socket.Emit(event, message)
		}
	})
}

func Emit(id string, event string, message any) {
	server.To(socket.Room(id)).Emit(event, message)
}
