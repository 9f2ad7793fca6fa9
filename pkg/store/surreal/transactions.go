package surreal

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/modelarena/modelarena/pkg/billing"
	"github.com/modelarena/modelarena/pkg/models"
	"github.com/modelarena/modelarena/pkg/store"
)

func (s *Store) CreateTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	if !s.policy.TransactionsEnabled {
		return nil, nil
	}
	v := billing.ValueTokens(req.Model, req.TokenType, req.Context, req.RawAmount)
	txn := store.NewLedgerRow(req, v, nil)
	if err := s.createLedgerRow(ctx, txn); err != nil {
		return nil, mapError("CreateTransaction", err)
	}

	result := &store.TransactionResult{Transaction: txn}
	if !s.policy.BalanceEnabled {
		return result, nil
	}
	balance, err := s.UpdateBalance(ctx, req.UserID, v.TokenValue, nil)
	if err != nil {
		return nil, err
	}
	result.Balance = balance
	return result, nil
}

func (s *Store) CreateStructuredTransaction(ctx context.Context, req store.StructuredTransactionRequest) (*store.TransactionResult, error) {
	if !s.policy.TransactionsEnabled {
		return nil, nil
	}
	v := billing.ValueStructuredTokens(req.Model, req.TokenType, req.Context, req.RawAmount,
		req.Tokens.Input, req.Tokens.Write, req.Tokens.Read)
	txn := store.NewLedgerRow(req.TransactionRequest, v, &req.Tokens)
	if err := s.createLedgerRow(ctx, txn); err != nil {
		return nil, mapError("CreateStructuredTransaction", err)
	}

	result := &store.TransactionResult{Transaction: txn}
	if !s.policy.BalanceEnabled {
		return result, nil
	}
	balance, err := s.UpdateBalance(ctx, req.UserID, v.TokenValue, nil)
	if err != nil {
		return nil, err
	}
	result.Balance = balance
	return result, nil
}

// CreateAutoRefillTransaction credits the raw refill amount and stamps the
// profile's last refill time in the same balance statement. The refill
// bypasses the balance-tracking gate.
func (s *Store) CreateAutoRefillTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	if !s.policy.TransactionsEnabled {
		return nil, nil
	}
	if req.Context == "" {
		req.Context = models.ContextAutoRefill
	}
	v := billing.ValueTokens(req.Model, req.TokenType, req.Context, req.RawAmount)
	txn := store.NewLedgerRow(req, v, nil)
	if err := s.createLedgerRow(ctx, txn); err != nil {
		return nil, mapError("CreateAutoRefillTransaction", err)
	}

	balance, err := s.UpdateBalance(ctx, req.UserID, float64(req.RawAmount), map[string]any{
		"last_refill": time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return &store.TransactionResult{Transaction: txn, Balance: balance}, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]*models.Transaction, error) {
	query := "SELECT * FROM transactions WHERE user_id = $user"
	qp := map[string]any{"user": filter.UserID}
	if filter.SessionID != nil {
		query += " AND session_id = $session"
		qp["session"] = *filter.SessionID
	}
	if filter.Type != "" {
		query += " AND type = $type"
		qp["type"] = string(filter.Type)
	}
	if filter.TokenType != "" {
		query += " AND token_type = $token_type"
		qp["token_type"] = string(filter.TokenType)
	}
	if filter.Since != nil {
		query += " AND created_at >= $since"
		qp["since"] = *filter.Since
	}
	if filter.Until != nil {
		query += " AND created_at <= $until"
		qp["until"] = *filter.Until
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT %d", limit)

	txns, err := queryRows[*models.Transaction](ctx, s, query, qp)
	if err != nil {
		return nil, mapError("ListTransactions", err)
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return txns, nil
}

func (s *Store) createLedgerRow(ctx context.Context, txn *models.Transaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	_, err := surrealdb.Create[models.Transaction](ctx, s.db, tableTransactions, txn)
	return err
}
