package store

import (
	"math"

	"github.com/modelarena/modelarena/pkg/billing"
	"github.com/modelarena/modelarena/pkg/models"
)

// NewLedgerRow assembles the immutable transaction row from a priced
// request. Both backends persist exactly this row, so a migrated ledger
// matches the legacy one field for field.
func NewLedgerRow(req TransactionRequest, v billing.Valuation, tokens *StructuredTokens) *models.Transaction {
	txn := &models.Transaction{
		ID:         models.NewTransactionID(),
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		TokenType:  req.TokenType,
		Context:    req.Context,
		Model:      req.Model,
		RawAmount:  v.RawAmount,
		Rate:       v.Rate,
		TokenValue: v.TokenValue,
		Amount:     math.Abs(v.TokenValue),
	}
	if v.TokenValue >= 0 {
		txn.Type = models.TransactionCredit
	} else {
		txn.Type = models.TransactionDebit
	}
	if tokens != nil {
		input, write, read := tokens.Input, tokens.Write, tokens.Read
		txn.InputTokens = &input
		txn.WriteTokens = &write
		txn.ReadTokens = &read
	}
	return txn
}
