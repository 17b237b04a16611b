package domain

// CategoryType restricts which transaction types may use a category.
type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
	CategoryBoth    CategoryType = "both"
)

// Category groups transactions for reporting.
type Category struct {
	ID      int64        `json:"id"`
	OwnerID int64        `json:"ownerId"`
	Name    string       `json:"name"`
	Type    CategoryType `json:"type"`
}

// Accepts reports whether a transaction of type t may be filed under c.
// Transfers move money between the owner's accounts and accept any category.
func (c Category) Accepts(t TransactionType) bool {
	if c.Type == CategoryBoth || t == TransactionTransfer {
		return true
	}
	return string(c.Type) == string(t)
}
