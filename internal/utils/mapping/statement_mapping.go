package mapping

import (
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/models"
)

// ToModelStatement converts a domain Statement to a model Statement
func ToModelStatement(d domain.Statement) models.Statement {
	return models.Statement{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		CreditCardID:     d.CreditCardID,
		BankCode:         d.BankCode,
		FileName:         d.FileName,
		FileHash:         d.FileHash,
		FileSize:         d.FileSize,
		StorageURI:       d.StorageURI,
		Status:           string(d.Status),
		StatementDate:    d.StatementDate,
		DueDate:          d.DueDate,
		PreviousBalance:  d.Totals.PreviousBalance,
		PaymentsReceived: d.Totals.PaymentsReceived,
		Purchases:        d.Totals.Purchases,
		Fees:             d.Totals.Fees,
		Interest:         d.Totals.Interest,
		TotalAmount:      d.Totals.TotalAmount,
		FailureReason:    d.FailureReason,
		ImportedAt:       d.ImportedAt,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainStatement converts a model Statement to a domain Statement
func ToDomainStatement(m models.Statement) domain.Statement {
	return domain.Statement{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		CreditCardID:  m.CreditCardID,
		BankCode:      m.BankCode,
		FileName:      m.FileName,
		FileHash:      m.FileHash,
		FileSize:      m.FileSize,
		StorageURI:    m.StorageURI,
		Status:        domain.StatementStatus(m.Status),
		StatementDate: m.StatementDate,
		DueDate:       m.DueDate,
		Totals: domain.StatementTotals{
			PreviousBalance:  m.PreviousBalance,
			PaymentsReceived: m.PaymentsReceived,
			Purchases:        m.Purchases,
			Fees:             m.Fees,
			Interest:         m.Interest,
			TotalAmount:      m.TotalAmount,
		},
		FailureReason: m.FailureReason,
		ImportedAt:    m.ImportedAt,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLineItem converts a domain LineItem to a model LineItem
func ToModelLineItem(d domain.LineItem) models.LineItem {
	return models.LineItem{
		ID:                   d.ID,
		StatementID:          d.StatementID,
		Date:                 domain.TruncateToDate(d.Date),
		Description:          d.Description,
		Amount:               d.Amount,
		Type:                 string(d.Type),
		RawCategory:          d.RawCategory,
		SuggestedCategoryID:  d.SuggestedCategoryID,
		FinalCategoryID:      d.FinalCategoryID,
		IsDuplicate:          d.IsDuplicate,
		DuplicateReason:      d.DuplicateReason,
		DuplicateConfidence:  d.DuplicateConfidence,
		MatchedTransactionID: d.MatchedTransactionID,
		TransactionID:        d.TransactionID,
		CreatedAt:            d.CreatedAt,
	}
}

// ToDomainLineItem converts a model LineItem to a domain LineItem
func ToDomainLineItem(m models.LineItem) domain.LineItem {
	return domain.LineItem{
		ID:                   m.ID,
		StatementID:          m.StatementID,
		Date:                 domain.TruncateToDate(m.Date),
		Description:          m.Description,
		Amount:               m.Amount,
		Type:                 domain.LineItemType(m.Type),
		RawCategory:          m.RawCategory,
		SuggestedCategoryID:  m.SuggestedCategoryID,
		FinalCategoryID:      m.FinalCategoryID,
		IsDuplicate:          m.IsDuplicate,
		DuplicateReason:      m.DuplicateReason,
		DuplicateConfidence:  m.DuplicateConfidence,
		MatchedTransactionID: m.MatchedTransactionID,
		TransactionID:        m.TransactionID,
		CreatedAt:            m.CreatedAt,
	}
}
