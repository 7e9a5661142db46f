//go:build integration

package mongo

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"proctorhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/mongo"
)

func startMongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	container, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := Connect(ctx, uri, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = Disconnect(client) })

	db := client.Database("proctorhub_test")
	require.NoError(t, EnsureIndexes(ctx, db))
	return db
}

func TestMongoRepositories(t *testing.T) {
	db := startMongo(t)
	ctx := context.Background()

	t.Run("room create is conditional", func(t *testing.T) {
		repo := NewMongoRoomRepository(db)
		require.NoError(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now().UTC())))
		assert.ErrorIs(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Dup", time.Now().UTC())), domain.ErrRoomExists)
	})

	t.Run("concurrent appends all land", func(t *testing.T) {
		repo := NewMongoRoomRepository(db)
		require.NoError(t, repo.Create(ctx, domain.NewRoom("CONC1", "Load", time.Now().UTC())))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := repo.AppendParticipant(ctx, "CONC1", domain.Participant{RollNo: fmt.Sprint(i), JoinTime: time.Now().UTC()})
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		room, err := repo.GetByID(ctx, "CONC1")
		require.NoError(t, err)
		assert.Len(t, room.Participants, 20)

		_, err = repo.AppendParticipant(ctx, "NOPE1", domain.Participant{RollNo: "x"})
		assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	})

	t.Run("papers by qp code", func(t *testing.T) {
		repo := NewMongoPaperRepository(db)
		require.NoError(t, repo.Put(ctx, &domain.Paper{PaperID: "p1", QPCode: "QP101", UploadedAt: time.Now().UTC()}))
		require.NoError(t, repo.Put(ctx, &domain.Paper{PaperID: "p2", QPCode: "QP202", UploadedAt: time.Now().UTC()}))

		found, err := repo.FindByQPCode(ctx, "QP101")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "p1", found[0].PaperID)
	})

	t.Run("photo put overwrites", func(t *testing.T) {
		repo := NewMongoStudentPhotoRepository(db)
		require.NoError(t, repo.Put(ctx, &domain.StudentPhoto{RollNumber: "247525", PhotoURL: "a"}))
		require.NoError(t, repo.Put(ctx, &domain.StudentPhoto{RollNumber: "247525", PhotoURL: "b"}))

		photo, err := repo.GetByRollNumber(ctx, "247525")
		require.NoError(t, err)
		assert.Equal(t, "b", photo.PhotoURL)
	})
}
