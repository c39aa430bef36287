// Package redis caches rendered teacher schedules and broadcasts a refresh
// signal whenever a write makes them stale.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/models"
)

// RefreshChannel carries one RefreshSignal per committed write.
const RefreshChannel = "campus:refresh"

const (
	scheduleKeyPrefix   = "campus:schedule:"
	generationKeyPrefix = "campus:schedule:gen:"
)

// RefreshSignal tells open views which schedules and booking lists to refetch.
type RefreshSignal struct {
	TeacherID  uuid.UUID   `json:"teacher_id"`
	StudentIDs []uuid.UUID `json:"student_ids,omitempty"`
	At         time.Time   `json:"at"`
}

// Connect opens a client and checks the connection.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// ScheduleCache implements booking.ScheduleCache on top of a redis client.
type ScheduleCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

func NewScheduleCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) *ScheduleCache {
	if log == nil {
		log = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ScheduleCache{client: client, ttl: ttl, log: log}
}

// Both keys share a hash tag so the script and MGET stay on one cluster slot.
func scheduleKey(teacherID uuid.UUID) string {
	return scheduleKeyPrefix + "{" + teacherID.String() + "}"
}

func generationKey(teacherID uuid.UUID) string {
	return generationKeyPrefix + "{" + teacherID.String() + "}"
}

// setIfGeneration writes the schedule only while the generation still
// matches the one read before the store was queried.
var setIfGeneration = redis.NewScript(`
local gen = redis.call("GET", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

func (c *ScheduleCache) Get(ctx context.Context, teacherID uuid.UUID) ([]models.ScheduleSlot, uint64, bool) {
	vals, err := c.client.MGet(ctx, scheduleKey(teacherID), generationKey(teacherID)).Result()
	if err != nil {
		c.log.Warn("Schedule cache read failed", zap.String("teacher_id", teacherID.String()), zap.Error(err))
		return nil, 0, false
	}
	var gen uint64
	if raw, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseUint(raw, 10, 64); err != nil {
			c.log.Warn("Bad schedule generation", zap.String("teacher_id", teacherID.String()), zap.Error(err))
			return nil, 0, false
		}
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	var slots []models.ScheduleSlot
	if err := sonic.UnmarshalString(raw, &slots); err != nil {
		c.log.Warn("Discarding undecodable schedule cache entry", zap.String("teacher_id", teacherID.String()), zap.Error(err))
		c.client.Del(ctx, scheduleKey(teacherID))
		return nil, gen, false
	}
	return slots, gen, true
}

// Set caches slots unless an Invalidate has bumped the generation past gen.
func (c *ScheduleCache) Set(ctx context.Context, teacherID uuid.UUID, gen uint64, slots []models.ScheduleSlot) {
	raw, err := sonic.Marshal(slots)
	if err != nil {
		c.log.Warn("Schedule cache encode failed", zap.Error(err))
		return
	}
	keys := []string{scheduleKey(teacherID), generationKey(teacherID)}
	stored, err := setIfGeneration.Run(ctx, c.client, keys,
		strconv.FormatUint(gen, 10), raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warn("Schedule cache write failed", zap.String("teacher_id", teacherID.String()), zap.Error(err))
		return
	}
	if stored == 0 {
		c.log.Debug("Schedule changed while loading, not cached", zap.String("teacher_id", teacherID.String()))
	}
}

// Invalidate drops the teacher's cached schedule and publishes a RefreshSignal.
func (c *ScheduleCache) Invalidate(ctx context.Context, teacherID uuid.UUID, studentIDs ...uuid.UUID) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(teacherID))
		pipe.Del(ctx, scheduleKey(teacherID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("drop schedule %s: %w", teacherID, err)
	}
	payload, err := sonic.Marshal(RefreshSignal{TeacherID: teacherID, StudentIDs: studentIDs, At: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode refresh signal: %w", err)
	}
	if err := c.client.Publish(ctx, RefreshChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish refresh signal: %w", err)
	}
	return nil
}

// Subscribe delivers refresh signals until ctx is done.
func Subscribe(ctx context.Context, client redis.UniversalClient, log *zap.Logger, fn func(RefreshSignal)) {
	sub := client.Subscribe(ctx, RefreshChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var sig RefreshSignal
			if err := sonic.UnmarshalString(msg.Payload, &sig); err != nil {
				log.Warn("Ignoring malformed refresh signal", zap.Error(err))
				continue
			}
			fn(sig)
		}
	}
}
