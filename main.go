package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chat-service/bank"
	"chat-service/call"
	"chat-service/config"
	"chat-service/controller"
	"chat-service/database"
	"chat-service/event"
	"chat-service/event/listener"
	"chat-service/registry"
	"chat-service/repository"
	"chat-service/router"
	"chat-service/service"
	"chat-service/socketio"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	log.SetPrefix("chat-service: ")

	rest := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		StrictRouting:         true,
		AppName:               "chat-service",
	})

	rest.Use(cors.New())

	database.RedisConnect()
	database.PostgresConnect()

	if err := event.RabbitMQConnect([]string{
		event.EventsQueue,
	}); err != nil {
		log.Printf("rabbitmq unavailable, pushes only: %v", err)
	}

	go listener.Events()

	if err := event.RabbitMQSubscribe([]event.SubscribeListener{
		{
			Queue:   event.EventsQueue,
			Channel: listener.EventsChannel,
		},
	}); err != nil {
		log.Printf("rabbitmq subscribe skipped: %v", err)
	}

	// Chat subscribers key by user id, banking subscribers by account id.
	chatRegistry := registry.New()
	bankRegistry := registry.New()

	users := repository.NewUserRepository(database.Postgres)
	friendships := repository.NewFriendshipRepository(database.Postgres)
	groups := repository.NewGroupRepository(database.Postgres)
	messages := repository.NewMessageRepository(database.Postgres)

	bus := event.NewBus(chatRegistry, groups)

	authService := service.NewAuthService(users, bus)
	friendshipService := service.NewFriendshipService(friendships, users, bus)
	groupService := service.NewGroupService(groups, users, bus)
	messageService := service.NewMessageService(messages, groups, friendshipService, bus)
	callManager := call.NewManager(chatRegistry)

	accountsFile := config.Config("BANK_ACCOUNTS_FILE")
	if accountsFile == "" {
		accountsFile = "accounts.txt"
	}
	store, err := bank.NewStore(accountsFile)
	if err != nil {
		panic(fmt.Sprintf("failed to open accounts file: %v", err))
	}
	bankService := bank.NewService(store, bankRegistry)

	socket := socketio.Init(rest, chatRegistry, bankRegistry)

	router.Rest(rest, router.Controllers{
		Auth:       controller.NewAuthController(authService),
		User:       controller.NewUserController(authService),
		Friendship: controller.NewFriendshipController(friendshipService),
		Group:      controller.NewGroupController(groupService),
		Message:    controller.NewMessageController(messageService),
		Call:       controller.NewCallController(callManager),
		Bank:       controller.NewBankController(bankService),
		Admin:      controller.NewAdminController(authService),
	})
	router.Socket(socket, router.SocketServices{
		Auth:     authService,
		Messages: messageService,
	})

	go rest.Listen(fmt.Sprintf(":%s", config.Config("SERVER_PORT")))

	exit := make(chan struct{})
	SignalC := make(chan os.Signal, 1)

	signal.Notify(SignalC, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		for s := range SignalC {
			switch s {
			case syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
				close(exit)
				return
			}
		}
	}()

	<-exit
	socket.Close(nil)
	event.RabbitMQClose()
	os.Exit(0)
}
