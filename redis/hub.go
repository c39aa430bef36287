package redis

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/models"
)

// Hub fans refresh signals from one redis subscription out to every open
// event stream in this process.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*listener
	log    *zap.Logger
}

type listener struct {
	ids map[uuid.UUID]struct{}
	ch  chan RefreshSignal
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{subs: make(map[int]*listener), log: log}
}

// Run relays signals published on RefreshChannel until ctx is done.
func (h *Hub) Run(ctx context.Context, client redis.UniversalClient) {
	Subscribe(ctx, client, h.log, h.Broadcast)
}

// Listen registers interest in signals naming any of ids. The returned
// cancel func must be called to release the listener.
func (h *Hub) Listen(ids ...uuid.UUID) (<-chan RefreshSignal, func()) {
	l := &listener{ids: make(map[uuid.UUID]struct{}, len(ids)), ch: make(chan RefreshSignal, 8)}
	for _, id := range ids {
		if id != uuid.Nil {
			l.ids[id] = struct{}{}
		}
	}

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = l
	h.mu.Unlock()

	var once sync.Once
	return l.ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(l.ch)
		})
	}
}

// Broadcast delivers sig to matching listeners. A listener that is not
// keeping up misses the signal rather than blocking the others.
func (h *Hub) Broadcast(sig RefreshSignal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, l := range h.subs {
		if !l.matches(sig) {
			continue
		}
		select {
		case l.ch <- sig:
		default:
			h.log.Debug("Dropping refresh signal for slow listener", zap.String("teacher_id", sig.TeacherID.String()))
		}
	}
}

func (l *listener) matches(sig RefreshSignal) bool {
	if _, ok := l.ids[sig.TeacherID]; ok {
		return true
	}
	for _, id := range sig.StudentIDs {
		if _, ok := l.ids[id]; ok {
			return true
		}
	}
	return false
}

// Without redis the Hub stands in as the engine's ScheduleCache: nothing is
// cached and refresh signals stay in this process.

func (h *Hub) Get(context.Context, uuid.UUID) ([]models.ScheduleSlot, uint64, bool) {
	return nil, 0, false
}

func (h *Hub) Set(context.Context, uuid.UUID, uint64, []models.ScheduleSlot) {}

func (h *Hub) Invalidate(_ context.Context, teacherID uuid.UUID, studentIDs ...uuid.UUID) error {
	h.Broadcast(RefreshSignal{TeacherID: teacherID, StudentIDs: studentIDs, At: time.Now().UTC()})
	return nil
}
