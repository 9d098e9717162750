package controller

import (
	"context"
	"fmt"
	"strconv"

	"chat-service/database"
	"chat-service/model"
	"chat-service/service"
	"chat-service/utils"

	"github.com/gofiber/fiber/v2"
)

type AuthController struct {
	auth *service.AuthService
}

func NewAuthController(auth *service.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

type AuthSignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type AuthLoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type AuthRenewTokenInput struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthOtpSecretInput struct {
	Password string `json:"password"`
}

type AuthOtpTokenInput struct {
	Token string `json:"token"`
}

type AuthOtpDisableInput struct {
	Password string `json:"password"`
	Token    string `json:"token"`
}

func (ac *AuthController) Signup(c *fiber.Ctx) error {
	input := new(AuthSignupInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}

	user := &model.User{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
	}
	if err := ac.auth.Register(c.Context(), user); err != nil {
		return fail(c, err)
	}

	database.Casbin().AddGroupingPolicy(fmt.Sprint(user.ID), user.Role)

	return success(c, fiber.Map{
		"id": user.ID,
	})
}

func (ac *AuthController) Signin(c *fiber.Ctx) error {
	input := new(AuthLoginInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}

	user, err := ac.auth.Login(c.Context(), input.Login, input.Password)
	if err != nil {
		return fail(c, err)
	}

	idStr := strconv.FormatUint(uint64(user.ID), 10)
	tokens, err := utils.GenerateTokens(idStr, user.Otp_enabled)
	if err != nil {
		return fail(c, err)
	}

	if err := database.Redis[0].Set(context.Background(), idStr, tokens.Refresh, 0).Err(); err != nil {
		return fail(c, err)
	}

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     user.Otp_enabled,
	})
}

func (ac *AuthController) Signout(c *fiber.Ctx) error {
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := ac.auth.Logout(c.Context(), userID); err != nil {
		return fail(c, err)
	}

	idStr := strconv.FormatUint(uint64(userID), 10)
	database.Redis[0].Del(context.Background(), idStr)

	return success(c, nil)
}

func (ac *AuthController) TokenRenew(c *fiber.Ctx) error {
	renew := new(AuthRenewTokenInput)
	if err := c.BodyParser(renew); err != nil {
		return badRequest(c, "Review your input")
	}

	claims, err := utils.CheckAndExtractTokenMetadata(renew.RefreshToken, "JWT_REFRESH_KEY")
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid token",
			"data":    nil,
		})
	}

	stored, err := database.Redis[0].Get(context.Background(), claims.Id).Result()
	if err != nil {
		return fail(c, err)
	}
	if stored != renew.RefreshToken {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"status":  "error",
			"message": "Unauthorized, your refresh token was already used",
			"data":    nil,
		})
	}

	tokens, err := utils.GenerateTokens(claims.Id, claims.Otp)
	if err != nil {
		return fail(c, err)
	}
	if err := database.Redis[0].Set(context.Background(), claims.Id, tokens.Refresh, 0).Err(); err != nil {
		return fail(c, err)
	}

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
		"2fa":     claims.Otp,
	})
}

func (ac *AuthController) OtpSecret(c *fiber.Ctx) error {
	input := new(AuthOtpSecretInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	secret, url, err := ac.auth.OtpSecret(c.Context(), userID, input.Password)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"secret": secret,
		"url":    url,
	})
}

func (ac *AuthController) OtpVerify(c *fiber.Ctx) error {
	input := new(AuthOtpTokenInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := ac.auth.OtpVerify(c.Context(), userID, input.Token); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}

func (ac *AuthController) OtpValidate(c *fiber.Ctx) error {
	input := new(AuthOtpTokenInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := ac.auth.OtpValidate(c.Context(), userID, input.Token); err != nil {
		return fail(c, err)
	}

	idStr := strconv.FormatUint(uint64(userID), 10)
	tokens, err := utils.GenerateTokens(idStr, false)
	if err != nil {
		return fail(c, err)
	}
	if err := database.Redis[0].Set(context.Background(), idStr, tokens.Refresh, 0).Err(); err != nil {
		return fail(c, err)
	}

	return success(c, fiber.Map{
		"access":  tokens.Access,
		"refresh": tokens.Refresh,
	})
}

func (ac *AuthController) OtpDisable(c *fiber.Ctx) error {
	input := new(AuthOtpDisableInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	userID, err := actorID(c)
	if err != nil {
		return fail(c, err)
	}

	if err := ac.auth.OtpDisable(c.Context(), userID, input.Password, input.Token); err != nil {
		return fail(c, err)
	}
	return success(c, nil)
}
