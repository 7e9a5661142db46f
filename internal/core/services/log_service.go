package services

import (
	"context"
	"strings"
	"sync"

	"proctorhub/internal/core/domain"
	"proctorhub/internal/core/ports"
	"proctorhub/pkg/utils"

	"go.uber.org/zap"
)

const maxLogFieldLength = 2000

type LogServiceConfig struct {
	// MaxEntriesPerRoom caps each room's history; 0 keeps everything.
	MaxEntriesPerRoom int
	// SubscriberBuffer is the channel capacity of each subscription.
	SubscriberBuffer int
}

// LogService records per-room proctoring logs in memory and pushes each
// new entry to the room's live subscribers.
type LogService struct {
	cfg     LogServiceConfig
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger

	mu          sync.Mutex
	logs        map[domain.RoomID][]domain.LogEntry
	subscribers map[domain.RoomID]map[*subscription]struct{}
	subCount    int
}

func NewLogService(cfg LogServiceConfig, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *LogService {
	if cfg.SubscriberBuffer <= 0 {
		cfg.SubscriberBuffer = 64
	}
	if metrics == nil {
		metrics = ports.NopMetrics()
	}
	return &LogService{
		cfg:         cfg,
		metrics:     metrics,
		logger:      logger,
		logs:        make(map[domain.RoomID][]domain.LogEntry),
		subscribers: make(map[domain.RoomID]map[*subscription]struct{}),
	}
}

// AppendLog records an entry, filling defaults for empty fields, and fans it
// out to current subscribers of roomID. A subscriber whose buffer is full
// misses the entry.
func (s *LogService) AppendLog(ctx context.Context, roomID domain.RoomID, rollNumber, message, status string) domain.LogEntry {
	entry := domain.LogEntry{
		RollNumber: orDefault(rollNumber, domain.DefaultLogRollNumber),
		Message:    orDefault(message, domain.DefaultLogMessage),
		Status:     orDefault(status, domain.DefaultLogStatus),
		Timestamp:  utils.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := append(s.logs[roomID], entry)
	if limit := s.cfg.MaxEntriesPerRoom; limit > 0 && len(entries) > limit {
		entries = append([]domain.LogEntry(nil), entries[len(entries)-limit:]...)
	}
	s.logs[roomID] = entries
	s.metrics.RecordLogAppended()

	// Fan out under the lock so every subscriber sees append order.
	for sub := range s.subscribers[roomID] {
		select {
		case sub.ch <- entry:
		default:
			sub.dropped++
			s.metrics.RecordLogDropped()
			s.logger.Warnw("log subscriber too slow, entry dropped",
				"room_id", roomID, "dropped", sub.dropped)
		}
	}

	return entry
}

// GetLogs returns a copy of roomID's history, oldest first.
func (s *LogService) GetLogs(roomID domain.RoomID) []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.LogEntry, len(s.logs[roomID]))
	copy(out, s.logs[roomID])
	return out
}

// Subscribe registers a live feed for roomID. The caller must Close it when
// the observing connection ends.
func (s *LogService) Subscribe(roomID domain.RoomID) ports.LogSubscription {
	sub := &subscription{
		roomID:  roomID,
		service: s,
		ch:      make(chan domain.LogEntry, s.cfg.SubscriberBuffer),
	}

	s.mu.Lock()
	set, ok := s.subscribers[roomID]
	if !ok {
		set = make(map[*subscription]struct{})
		s.subscribers[roomID] = set
	}
	set[sub] = struct{}{}
	s.subCount++
	count := s.subCount
	s.mu.Unlock()

	s.metrics.SetLogSubscribers(count)
	s.logger.Debugw("log subscriber registered", "room_id", roomID)
	return sub
}

// SubscriberCount reports the number of live subscriptions for roomID.
func (s *LogService) SubscriberCount(roomID domain.RoomID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers[roomID])
}

func (s *LogService) unsubscribe(sub *subscription) {
	s.mu.Lock()
	set := s.subscribers[sub.roomID]
	if _, ok := set[sub]; !ok {
		s.mu.Unlock()
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(s.subscribers, sub.roomID)
	}
	s.subCount--
	count := s.subCount
	close(sub.ch)
	s.mu.Unlock()

	s.metrics.SetLogSubscribers(count)
	s.logger.Debugw("log subscriber removed", "room_id", sub.roomID)
}

type subscription struct {
	roomID  domain.RoomID
	service *LogService
	ch      chan domain.LogEntry
	dropped int
	once    sync.Once
}

func (s *subscription) C() <-chan domain.LogEntry { return s.ch }

func (s *subscription) Close() {
	s.once.Do(func() { s.service.unsubscribe(s) })
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(utils.SanitizeString(v))
	if v == "" {
		return def
	}
	return utils.TruncateString(v, maxLogFieldLength)
}
