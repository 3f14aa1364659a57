package discover

import (
	"context"

	"github.com/foundry-app/foundry/internal/domain"
)

// Corpus reads the full item corpus in storage order.
type Corpus interface {
	GetAll(ctx context.Context) ([]domain.Item, error)
}
