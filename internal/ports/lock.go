package ports

import "minapt/internal/types"

// LockPort grants exclusive access to one managed directory. The returned
// func releases the lock and must be called on every path.
type LockPort interface {
	Acquire(scope types.LockScope) (func() error, error)
}
