package router

import (
	"chat-service/controller"
	"chat-service/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// Controllers bundles the handler sets Rest mounts.
type Controllers struct {
	Auth       *controller.AuthController
	User       *controller.UserController
	Friendship *controller.FriendshipController
	Group      *controller.GroupController
	Message    *controller.MessageController
	Call       *controller.CallController
	Bank       *controller.BankController
	Admin      *controller.AdminController
}

func Rest(app *fiber.App, ctrl Controllers) {
	api := app.Group("/v1", logger.New())

	// Auth
	auth := api.Group("/auth")
	auth.Post("/signup", ctrl.Auth.Signup)
	auth.Post("/signin", ctrl.Auth.Signin)
	auth.Post("/signout", middleware.JWT(), middleware.OTP(), ctrl.Auth.Signout)
	auth.Post("/token/renew", ctrl.Auth.TokenRenew)
	auth.Post("/2fa/secret", middleware.JWT(), middleware.OTP(), ctrl.Auth.OtpSecret)
	auth.Post("/2fa/verify", middleware.JWT(), middleware.OTP(), ctrl.Auth.OtpVerify)
	auth.Post("/2fa/validate", middleware.JWT(), ctrl.Auth.OtpValidate)
	auth.Post("/2fa/disable", middleware.JWT(), middleware.OTP(), ctrl.Auth.OtpDisable)

	// User
	user := api.Group("/user", middleware.JWT(), middleware.OTP())
	user.Get("/profile", ctrl.User.Me)
	user.Get("/search", ctrl.User.Search)
	user.Get("/:id", ctrl.User.ByID)
	user.Put("/status", ctrl.User.UpdateStatus)
	user.Put("/password", ctrl.User.ChangePassword)

	// Friendship
	friends := api.Group("/friends", middleware.JWT(), middleware.OTP())
	friends.Get("", ctrl.Friendship.Friends)
	friends.Get("/requests", ctrl.Friendship.Requests)
	friends.Post("/requests", ctrl.Friendship.SendRequest)
	friends.Post("/requests/:id/accept", ctrl.Friendship.Accept)
	friends.Post("/requests/:id/reject", ctrl.Friendship.Reject)
	friends.Delete("/:userId", ctrl.Friendship.Remove)
	friends.Post("/:userId/block", ctrl.Friendship.Block)
	friends.Delete("/:userId/block", ctrl.Friendship.Unblock)
	friends.Get("/:userId/block", ctrl.Friendship.BlockStatus)

	// Groups
	groups := api.Group("/groups", middleware.JWT(), middleware.OTP())
	groups.Post("", ctrl.Group.Create)
	groups.Get("", ctrl.Group.Mine)
	groups.Get("/:id", ctrl.Group.ByID)
	groups.Put("/:id", ctrl.Group.Update)
	groups.Delete("/:id", ctrl.Group.Delete)
	groups.Get("/:id/members", ctrl.Group.Members)
	groups.Post("/:id/members", ctrl.Group.AddMember)
	groups.Delete("/:id/members/:userId", ctrl.Group.RemoveMember)
	groups.Post("/:id/leave", ctrl.Group.Leave)
	groups.Put("/:id/members/:userId/role", ctrl.Group.SetRole)

	// Messages
	messages := api.Group("/messages", middleware.JWT(), middleware.OTP())
	messages.Post("", ctrl.Message.Send)
	messages.Get("/direct/:userId", ctrl.Message.Direct)
	messages.Get("/group/:groupId", ctrl.Message.Group)
	messages.Post("/direct/:userId/read", ctrl.Message.MarkRead)
	messages.Post("/group/:groupId/read", ctrl.Message.MarkGroupRead)
	messages.Get("/unread", ctrl.Message.UnreadCount)
	messages.Put("/:id", ctrl.Message.Edit)
	messages.Delete("/:id", ctrl.Message.Delete)

	// Calls
	calls := api.Group("/calls", middleware.JWT(), middleware.OTP())
	calls.Post("", ctrl.Call.Initiate)
	calls.Get("/:id", ctrl.Call.Get)
	calls.Post("/:id/accept", ctrl.Call.Accept)
	calls.Post("/:id/reject", ctrl.Call.Reject)
	calls.Post("/:id/end", ctrl.Call.End)

	// Banking
	bank := api.Group("/bank", middleware.JWT(), middleware.OTP())
	bank.Post("/accounts", ctrl.Bank.OpenAccount)
	bank.Get("/accounts/:accountId/balance", ctrl.Bank.Balance)
	bank.Post("/accounts/:accountId/deposit", ctrl.Bank.Deposit)
	bank.Post("/accounts/:accountId/withdraw", ctrl.Bank.Withdraw)
	bank.Post("/accounts/:accountId/transfer", ctrl.Bank.Transfer)

	// Admin
	admin := api.Group("/admin", middleware.JWT(), middleware.OTP(), middleware.RBAC())
	admin.Get("/users", ctrl.Admin.Users)
	admin.Put("/users/role", ctrl.Admin.SetRole)
	admin.Post("/announce", ctrl.Admin.Announce)
	admin.Post("/events/replay", ctrl.Admin.ReplayEvents)
}
