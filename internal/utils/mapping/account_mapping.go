package mapping

import (
	"github.com/SscSPs/fintrack/internal/core/domain"
	"github.com/SscSPs/fintrack/internal/models"
)

// ToDomainAccount converts a model Account to a domain Account
func ToDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Currency:    m.Currency,
		Balance:     m.Balance,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCreditCard converts a model CreditCard to a domain CreditCard
func ToDomainCreditCard(m models.CreditCard) domain.CreditCard {
	return domain.CreditCard{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Name:        m.Name,
		Limit:       m.CreditLimit,
		CurrentBill: m.CurrentBill,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainCategory converts a model Category to a domain Category
func ToDomainCategory(m models.Category) domain.Category {
	return domain.Category{
		ID:      m.ID,
		OwnerID: m.OwnerID,
		Name:    m.Name,
		Type:    domain.CategoryType(m.Type),
	}
}
