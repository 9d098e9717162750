package bank

import (
	"encoding/json"
	"time"

	"chat-service/apperr"
	"chat-service/event"
	"chat-service/registry"
)

// EventFundsReceived is pushed to the receiving account's subscriber
// after a transfer settles.
const EventFundsReceived = "funds_received"

type FundsReceivedPayload struct {
	FromAccount string    `json:"from_account"`
	Amount      float64   `json:"amount"`
	Balance     float64   `json:"balance"`
	At          time.Time `json:"at"`
}

// Service wraps the ledger with validation and settlement pushes. It
// holds its own registry: banking subscribers key by account id, not
// chat user id.
type Service struct {
	store *Store
	reg   *registry.Registry
}

func NewService(store *Store, reg *registry.Registry) *Service {
	return &Service{store: store, reg: reg}
}

func (s *Service) Registry() *registry.Registry {
	return s.reg
}

func (s *Service) CheckBalance(accountID string) (float64, error) {
	return s.store.Balance(accountID)
}

func (s *Service) OpenAccount(accountID string, opening float64) error {
	if accountID == "" {
		return apperr.InvalidArgument("account id is required")
	}
	return s.store.CreateAccount(accountID, opening)
}

func (s *Service) Deposit(accountID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, apperr.InvalidArgument("amount must be positive")
	}
	return s.store.Adjust(accountID, amount)
}

func (s *Service) Withdraw(accountID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, apperr.InvalidArgument("amount must be positive")
	}
	return s.store.Adjust(accountID, -amount)
}

// Transfer settles a transfer and notifies the recipient. The push is
// best-effort: the money has moved whether or not the recipient is
// listening.
func (s *Service) Transfer(fromID, toID string, amount float64) (float64, error) {
	if amount <= 0 {
		return 0, apperr.InvalidArgument("amount must be positive")
	}
	if fromID == toID {
		return 0, apperr.InvalidArgument("cannot transfer to the same account")
	}

	fromBalance, toBalance, err := s.store.Transfer(fromID, toID, amount)
	if err != nil {
		return 0, err
	}

	payload := FundsReceivedPayload{
		FromAccount: fromID,
		Amount:      amount,
		Balance:     toBalance,
		At:          time.Now(),
	}
	s.reg.Push(toID, EventFundsReceived, payload)

	if event.RabbitMQReady() {
		if data, err := json.Marshal(payload); err == nil {
			event.Emit(event.EventsQueue, "transfer.settled", data, true)
		}
	}
	return fromBalance, nil
}
