package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/SscSPs/fintrack/internal/apperrors"
	portsrepo "github.com/SscSPs/fintrack/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// StatementFileScheme prefixes URIs of files kept in the statement_files table.
const StatementFileScheme = "pg://statement_files/"

// PgxStatementFileStore keeps raw statement bytes in Postgres. It is the default
// BlobStore when no bucket is configured.
type PgxStatementFileStore struct {
	pool *pgxpool.Pool
}

// NewPgxStatementFileStore creates a BlobStore backed by the statement_files table.
func NewPgxStatementFileStore(pool *pgxpool.Pool) *PgxStatementFileStore {
	return &PgxStatementFileStore{pool: pool}
}

var _ portsrepo.BlobStore = (*PgxStatementFileStore)(nil)

func (s *PgxStatementFileStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	_, err := s.pool.Exec(ctx, `INSERT INTO statement_files (key, content) VALUES ($1, $2);`, key, data)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: statement file %s", apperrors.ErrDuplicate, key)
		}
		return "", fmt.Errorf("failed to store statement file %s: %w", key, err)
	}
	return StatementFileScheme + key, nil
}

func (s *PgxStatementFileStore) Get(ctx context.Context, uri string) ([]byte, error) {
	key, ok := strings.CutPrefix(uri, StatementFileScheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a statement_files uri", apperrors.ErrNotFound, uri)
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT content FROM statement_files WHERE key = $1;`, key).Scan(&data)
	if err != nil {
		return nil, notFoundOr(err, "failed to load statement file %s", key)
	}
	return data, nil
}
