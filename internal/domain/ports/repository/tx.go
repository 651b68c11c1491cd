package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside one database transaction. The tx handle
// passed to fn is infra-defined (pgx.Tx for Postgres) and is handed back to
// repository methods; repositories must also accept a nil Tx.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
