package postgres

import (
	"context"
	"time"

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
	if err := s.getDB().WithContext(ctx).Create(txn).Error; err != nil {
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
	if err := s.getDB().WithContext(ctx).Create(txn).Error; err != nil {
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
// bypasses the balance-tracking gate: a refill that did not move the balance
// would be worse than no refill.
func (s *Store) CreateAutoRefillTransaction(ctx context.Context, req store.TransactionRequest) (*store.TransactionResult, error) {
	if !s.policy.TransactionsEnabled {
		return nil, nil
	}
	if req.Context == "" {
		req.Context = models.ContextAutoRefill
	}
	v := billing.ValueTokens(req.Model, req.TokenType, req.Context, req.RawAmount)
	txn := store.NewLedgerRow(req, v, nil)
	if err := s.getDB().WithContext(ctx).Create(txn).Error; err != nil {
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
	q := s.getDB().WithContext(ctx).Model(&models.Transaction{}).
		Where("user_id = ?", filter.UserID)
	if filter.SessionID != nil {
		q = q.Where("session_id = ?", *filter.SessionID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.TokenType != "" {
		q = q.Where("token_type = ?", filter.TokenType)
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		q = q.Where("created_at <= ?", *filter.Until)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	var txns []*models.Transaction
	err := q.Order("created_at DESC").Limit(limit).Find(&txns).Error
	if err != nil {
		return nil, mapError("ListTransactions", err)
	}
	if txns == nil {
		txns = []*models.Transaction{}
	}
	return txns, nil
}
