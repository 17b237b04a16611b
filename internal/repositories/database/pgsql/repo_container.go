package pgsql

import (
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every Postgres repository. blobs overrides the default
// statement_files store when non-nil.
func NewRepositoryProvider(dbPool *pgxpool.Pool, blobs portsrepo.BlobStore) portsrepo.RepositoryProvider {
	if blobs == nil {
		blobs = NewPgxStatementFileStore(dbPool)
	}

	return portsrepo.RepositoryProvider{
		TxManager:       &BaseRepository{Pool: dbPool},
		AccountRepo:     newPgxAccountRepository(dbPool),
		CreditCardRepo:  newPgxCreditCardRepository(dbPool),
		CategoryRepo:    newPgxCategoryRepository(dbPool),
		TransactionRepo: newPgxTransactionRepository(dbPool),
		StatementRepo:   newPgxStatementRepository(dbPool),
		UserRepo:        newPgxUserRepository(dbPool),
		BlobStore:       blobs,
	}
}
