// Package bank implements the account ledger and transfer operations.
// Accounts persist in a plain text file, one "id,balance" line per
// account, rewritten in full on every mutation.
package bank

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"chat-service/apperr"
)

// Store owns the accounts file. All access is serialized; the in-memory
// map is authoritative between flushes.
type Store struct {
	mu       sync.Mutex
	path     string
	balances map[string]float64
}

func NewStore(path string) (*Store, error) {
	s := &Store{path: path, balances: make(map[string]float64)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		id, balance, ok := strings.Cut(line, ",")
		if !ok {
			return fmt.Errorf("malformed account line %q", line)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(balance), 64)
		if err != nil {
			return fmt.Errorf("malformed balance in line %q: %w", line, err)
		}
		s.balances[strings.TrimSpace(id)] = amount
	}
	return scanner.Err()
}

// flush rewrites the whole file through a temp file and rename so a
// crash mid-write never leaves a truncated ledger.
func (s *Store) flush() error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "accounts-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	ids := make([]string, 0, len(s.balances))
	for id := range s.balances {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := bufio.NewWriter(tmp)
	for _, id := range ids {
		if _, err := fmt.Fprintf(w, "%s,%.2f\n", id, s.balances[id]); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Balance returns the balance for an account.
func (s *Store) Balance(accountID string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[accountID]
	if !ok {
		return 0, apperr.ErrNotFound
	}
	return balance, nil
}

// Exists reports whether the account is in the ledger.
func (s *Store) Exists(accountID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.balances[accountID]
	return ok
}

// CreateAccount registers a new account with an opening balance.
func (s *Store) CreateAccount(accountID string, opening float64) error {
	if opening < 0 {
		return apperr.InvalidArgument("opening balance cannot be negative")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.balances[accountID]; ok {
		return apperr.ErrDuplicateIdentity
	}
	s.balances[accountID] = opening
	if err := s.flush(); err != nil {
		delete(s.balances, accountID)
		return err
	}
	return nil
}

// Adjust applies a signed delta to one account and flushes.
func (s *Store) Adjust(accountID string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	balance, ok := s.balances[accountID]
	if !ok {
		return 0, apperr.ErrNotFound
	}
	next := balance + delta
	if next < 0 {
		return 0, apperr.Conflict("insufficient funds")
	}
	s.balances[accountID] = next
	if err := s.flush(); err != nil {
		s.balances[accountID] = balance
		return 0, err
	}
	return next, nil
}

// Transfer moves amount from one account to the other atomically: both
// balances change under the same lock and hit disk in one flush.
func (s *Store) Transfer(fromID, toID string, amount float64) (fromBalance, toBalance float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.balances[fromID]
	if !ok {
		return 0, 0, fmt.Errorf("account %s: %w", fromID, apperr.ErrNotFound)
	}
	to, ok := s.balances[toID]
	if !ok {
		return 0, 0, fmt.Errorf("account %s: %w", toID, apperr.ErrNotFound)
	}
	if from < amount {
		return 0, 0, apperr.Conflict("insufficient funds")
	}

	s.balances[fromID] = from - amount
	s.balances[toID] = to + amount
	if err := s.flush(); err != nil {
		s.balances[fromID] = from
		s.balances[toID] = to
		return 0, 0, err
	}
	return from - amount, to + amount, nil
}
