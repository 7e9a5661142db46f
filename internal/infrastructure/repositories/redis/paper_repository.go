package redis

import (
	"context"
	"fmt"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// RedisPaperRepository keeps a set of paper IDs per QP code next to the
// records so lookups by code avoid a full scan.
type RedisPaperRepository struct {
	records records[domain.Paper]
}

func NewRedisPaperRepository(client *redis.Client, prefix string) ports.PaperRepository {
	return &RedisPaperRepository{
		records: records[domain.Paper]{client: client, keys: newKeyspace(prefix), collection: papersCollection},
	}
}

func (r *RedisPaperRepository) Put(ctx context.Context, paper *domain.Paper) error {
	previous, err := r.records.get(ctx, paper.PaperID)
	if err != nil {
		return err
	}
	if err := r.records.put(ctx, paper.PaperID, paper); err != nil {
		return err
	}

	client := r.records.client
	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil && previous.QPCode != paper.QPCode {
			pipe.SRem(ctx, r.records.keys.qpCode(previous.QPCode), paper.PaperID)
		}
		pipe.SAdd(ctx, r.records.keys.qpCode(paper.QPCode), paper.PaperID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to index paper qp code: %w", err)
	}
	return nil
}

func (r *RedisPaperRepository) GetByID(ctx context.Context, id string) (*domain.Paper, error) {
	paper, err := r.records.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if paper == nil {
		return nil, domain.ErrPaperNotFound
	}
	return paper, nil
}

func (r *RedisPaperRepository) List(ctx context.Context) ([]*domain.Paper, error) {
	return r.records.list(ctx)
}

func (r *RedisPaperRepository) FindByQPCode(ctx context.Context, qpCode string) ([]*domain.Paper, error) {
	ids, err := r.records.client.SMembers(ctx, r.records.keys.qpCode(qpCode)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read qp code index: %w", err)
	}
	return r.records.many(ctx, ids)
}

func (r *RedisPaperRepository) Delete(ctx context.Context, id string) error {
	paper, err := r.records.get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.records.delete(ctx, id); err != nil {
		return err
	}
	if paper != nil {
		if err := r.records.client.SRem(ctx, r.records.keys.qpCode(paper.QPCode), id).Err(); err != nil {
			return fmt.Errorf("failed to unindex paper qp code: %w", err)
		}
	}
	return nil
}
