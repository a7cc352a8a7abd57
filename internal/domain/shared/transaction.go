package shared

import "context"

// TransactionManager runs a function inside a database transaction. The
// transaction is carried in the context: repositories called with that
// context join it, so multi-aggregate writes commit or roll back as one.
type TransactionManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
