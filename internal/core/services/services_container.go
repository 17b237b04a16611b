package services

import (
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/fintrack/internal/core/ports/services"
	"github.com/SscSPs/fintrack/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// categorizer may be nil, in which case parsed line items carry no category suggestions.
func NewServiceContainer(
	cfg *config.Config,
	repos portsrepo.RepositoryProvider,
	parsers portssvc.ParserRegistry,
	categorizer portssvc.Categorizer,
) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{Parsers: parsers}

	container.Account = NewAccountService(repos)
	container.Transaction = NewTransactionService(repos)
	container.Auth = NewAuthService(cfg, repos.UserRepo)

	// The statement pipeline writes through the transaction service so imports obey the
	// same ledger rules as manual entries.
	opts := []StatementServiceOption{WithMaxUploadBytes(cfg.MaxUploadBytes)}
	if categorizer != nil {
		opts = append(opts, WithCategorizer(categorizer))
	}
	container.Statement = NewStatementService(repos, parsers, container.Transaction, opts...)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade     = (*accountService)(nil)
	_ portssvc.TransactionSvcFacade = (*transactionService)(nil)
	_ portssvc.StatementSvcFacade   = (*statementService)(nil)
	_ portssvc.AuthSvcFacade        = (*authService)(nil)
)
