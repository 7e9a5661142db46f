package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"proctorhub/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomRepository_CreateIsConditional(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now())))
	err := repo.Create(ctx, domain.NewRoom("A3F9K", "Other", time.Now()))
	assert.ErrorIs(t, err, domain.ErrRoomExists)

	room, err := repo.GetByID(ctx, "A3F9K")
	require.NoError(t, err)
	assert.Equal(t, "Midterm", room.RoomName)
}

func TestRoomRepository_ReturnsCopies(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now())))

	room, _ := repo.GetByID(ctx, "A3F9K")
	room.Participants = append(room.Participants, domain.Participant{RollNo: "x"})

	again, _ := repo.GetByID(ctx, "A3F9K")
	assert.Empty(t, again.Participants)
}

func TestRoomRepository_AppendMissingRoom(t *testing.T) {
	repo := NewMemoryRoomRepository()
	_, err := repo.AppendParticipant(context.Background(), "NOPE1", domain.Participant{RollNo: "1"})
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestRoomRepository_ConcurrentAppendsAreNotLost(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now())))

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.AppendParticipant(ctx, "A3F9K", domain.Participant{RollNo: fmt.Sprintf("R%03d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	room, err := repo.GetByID(ctx, "A3F9K")
	require.NoError(t, err)
	assert.Len(t, room.Participants, n)
}

func TestRoomRepository_DeleteIsIdempotent(t *testing.T) {
	repo := NewMemoryRoomRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, domain.NewRoom("A3F9K", "Midterm", time.Now())))

	assert.NoError(t, repo.Delete(ctx, "A3F9K"))
	assert.NoError(t, repo.Delete(ctx, "A3F9K"))

	_, err := repo.GetByID(ctx, "A3F9K")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestPaperRepository_FindByQPCode(t *testing.T) {
	repo := NewMemoryPaperRepository()
	ctx := context.Background()
	require.NoError(t, repo.Put(ctx, &domain.Paper{PaperID: "1", QPCode: "QP101"}))
	require.NoError(t, repo.Put(ctx, &domain.Paper{PaperID: "2", QPCode: "QP202"}))

	found, err := repo.FindByQPCode(ctx, "QP101")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "1", found[0].PaperID)

	none, err := repo.FindByQPCode(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDegreeRepository_CreateConflict(t *testing.T) {
	repo := NewMemoryDegreeRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &domain.DegreeRecord{RollNo: "247525"}))
	assert.ErrorIs(t, repo.Create(ctx, &domain.DegreeRecord{RollNo: "247525"}), domain.ErrStudentExists)

	_, err := repo.GetByRollNo(ctx, "000000")
	assert.ErrorIs(t, err, domain.ErrStudentNotFound)
}
