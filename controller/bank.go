package controller

import (
	"chat-service/bank"

	"github.com/gofiber/fiber/v2"
)

type BankController struct {
	bank *bank.Service
}

func NewBankController(svc *bank.Service) *BankController {
	return &BankController{bank: svc}
}

type AccountInput struct {
	AccountID string  `json:"account_id"`
	Opening   float64 `json:"opening_balance"`
}

type AmountInput struct {
	Amount float64 `json:"amount"`
}

type TransferInput struct {
	ToAccount string  `json:"to_account"`
	Amount    float64 `json:"amount"`
}

func (bc *BankController) OpenAccount(c *fiber.Ctx) error {
	input := new(AccountInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	if err := bc.bank.OpenAccount(input.AccountID, input.Opening); err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"account_id": input.AccountID,
	})
}

func (bc *BankController) Balance(c *fiber.Ctx) error {
	balance, err := bc.bank.CheckBalance(c.Params("accountId"))
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"balance": balance,
	})
}

func (bc *BankController) Deposit(c *fiber.Ctx) error {
	input := new(AmountInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	balance, err := bc.bank.Deposit(c.Params("accountId"), input.Amount)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"balance": balance,
	})
}

func (bc *BankController) Withdraw(c *fiber.Ctx) error {
	input := new(AmountInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	balance, err := bc.bank.Withdraw(c.Params("accountId"), input.Amount)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"balance": balance,
	})
}

func (bc *BankController) Transfer(c *fiber.Ctx) error {
	input := new(TransferInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Review your input")
	}
	balance, err := bc.bank.Transfer(c.Params("accountId"), input.ToAccount, input.Amount)
	if err != nil {
		return fail(c, err)
	}
	return success(c, fiber.Map{
		"balance": balance,
	})
}
