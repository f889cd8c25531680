package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Registry owns every live session, keyed by room id. Creation and
// removal are serialized here so two connections can never race a
// duplicate session into the same room: the first joiner creates,
// everyone after attaches.
type Registry struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session

	scheduler gocron.Scheduler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("component", "session-registry"),
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate - returns the room's session, building it via factory
// only when the room has none. The second return value reports whether
// this call created it.
func (that *Registry) GetOrCreate(roomID string, factory func() *Session) (*Session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if sess, ok := that.sessions[roomID]; ok {
		return sess, false
	}

	sess := factory()
	that.sessions[roomID] = sess

	return sess, true
}

func (that *Registry) Get(roomID string) (*Session, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	sess, ok := that.sessions[roomID]

	return sess, ok
}

// Remove - drops the room; the simulation loop notices on its next
// tick and stops cooperatively.
func (that *Registry) Remove(roomID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.sessions, roomID)
}

func (that *Registry) Len() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return len(that.sessions)
}

// StartJanitor - schedules a periodic sweep evicting sessions idle past
// maxIdle. Clean disconnects already remove their rooms; this catches
// rooms whose connections died without one.
func (that *Registry) StartJanitor(interval, maxIdle time.Duration) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			that.sweep(maxIdle)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule janitor job: %w", err)
	}

	scheduler.Start()
	that.scheduler = scheduler

	return nil
}

func (that *Registry) Close() error {
	if that.scheduler == nil {
		return nil
	}

	if err := that.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down janitor: %w", err)
	}

	return nil
}

func (that *Registry) sweep(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	that.mu.Lock()
	defer that.mu.Unlock()

	for roomID, sess := range that.sessions {
		if sess.LastActive().Before(cutoff) {
			delete(that.sessions, roomID)
			that.logger.Warn("evicted idle session", "room", roomID)
		}
	}
}
