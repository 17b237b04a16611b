package repositories

// RepositoryProvider holds all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider struct {
	TxManager       TransactionManager
	AccountRepo     AccountRepositoryFacade
	CreditCardRepo  CreditCardRepositoryFacade
	CategoryRepo    CategoryRepositoryFacade
	TransactionRepo TransactionRepositoryFacade
	StatementRepo   StatementRepositoryFacade
	UserRepo        UserRepositoryFacade
	BlobStore       BlobStore
}
