package dynamodb

import (
	"context"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

const papersHashKey = "paperId"

type DynamoPaperRepository struct {
	table table[domain.Paper]
}

func NewDynamoPaperRepository(api API, tableName string) ports.PaperRepository {
	return &DynamoPaperRepository{
		table: table[domain.Paper]{api: api, name: tableName, hashKey: papersHashKey},
	}
}

func (r *DynamoPaperRepository) Put(ctx context.Context, paper *domain.Paper) error {
	return r.table.put(ctx, paper)
}

func (r *DynamoPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paper, err := r.table.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, domain.ErrPaperNotFound
	}
	return paper, nil
}

func (r *DynamoPaperRepository) List(ctx context.Context) ([]*domain.Paper, error) {
	return r.table.scan(ctx, nil)
}

// FindByQPCode scans with a filter; the table has no index on qpCode.
func (r *DynamoPaperRepository) FindByQPCode(ctx context.Context, qpCode string) ([]*domain.Paper, error) {
	filter := expression.Name("qpCode").Equal(expression.Value(qpCode))
	return r.table.scan(ctx, &filter)
}

func (r *DynamoPaperRepository) Delete(ctx context.Context, id string) error {
	return r.table.delete(ctx, id)
}
