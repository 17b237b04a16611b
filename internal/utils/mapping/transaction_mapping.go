package mapping

import (
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/models"
)

// ToModelTransaction converts a domain Transaction to a model Transaction
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		ID:           d.ID,
		OwnerID:      d.OwnerID,
		Description:  d.Description,
		Amount:       d.Amount,
		Type:         string(d.Type),
		Date:         domain.TruncateToDate(d.Date),
		CategoryID:   d.CategoryID,
		AccountID:    d.AccountID,
		CreditCardID: d.CreditCardID,
		ToAccountID:  d.ToAccountID,
		AuditFields:  ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainTransaction converts a model Transaction to a domain Transaction
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:           m.ID,
		OwnerID:      m.OwnerID,
		Description:  m.Description,
		Amount:       m.Amount,
		Type:         domain.TransactionType(m.Type),
		Date:         domain.TruncateToDate(m.Date),
		CategoryID:   m.CategoryID,
		AccountID:    m.AccountID,
		CreditCardID: m.CreditCardID,
		ToAccountID:  m.ToAccountID,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainTransactionSlice converts a slice of model Transactions to domain Transactions
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}
