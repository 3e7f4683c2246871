package orders

import (
	"context"
	"errors"

	"github.com/fjod/fyz_store/internal/domain"
)

// Collection is the document collection orders are written to.
const Collection = "pedidos"

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists is returned by Save when the id was already written.
	// A stored order is never replaced.
	ErrOrderExists = errors.New("order already exists")
)

type Repository interface {
	Save(ctx context.Context, order *domain.Order) error
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.Order, error)
	CreateIndexes(ctx context.Context) error
}
