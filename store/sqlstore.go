package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"matrixnotes/internal/note/model"
	"matrixnotes/internal/note/repository"
	"matrixnotes/pkg/logger"
)

type delivery struct {
	notes []model.Note
	err   error
}

// subscriber pairs the caller's callbacks with a delivery queue and a pump
// goroutine, so snapshots reach the caller in publish order without the
// store blocking on a slow consumer.
type subscriber struct {
	ch       chan delivery
	done     chan struct{}
	stopOnce sync.Once

	onSnapshot func([]Note)
	onError    func(error)
}

func (sub *subscriber) run() {
	for {
		select {
		case <-sub.done:
			return
		case d := <-sub.ch:
			if d.err != nil {
				sub.onError(d.err)
				return
			}
			sub.onSnapshot(d.notes)
		}
	}
}

func (sub *subscriber) deliver(d delivery) {
	for {
		select {
		case sub.ch <- d:
			return
		default:
			// Queue full: each delivery is a full snapshot, so the newest
			// one supersedes the oldest still queued.
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

func (sub *subscriber) stop() {
	sub.stopOnce.Do(func() { close(sub.done) })
}

// SQLStore implements Store over the SQL note repository. Every successful
// mutation re-runs the owner's query and fans the fresh result set out to
// that owner's subscribers.
type SQLStore struct {
	repo *repository.NoteRepository

	mu     sync.Mutex
	subs   map[string]map[int]*subscriber // ownerID -> subscription id -> subscriber
	nextID int
}

func NewSQLStore(repo *repository.NoteRepository) *SQLStore {
	return &SQLStore{
		repo: repo,
		subs: make(map[string]map[int]*subscriber),
	}
}

func (s *SQLStore) Subscribe(ownerID string, onSnapshot func([]Note), onError func(error)) (func(), error) {
	sub := &subscriber{
		ch:         make(chan delivery, 16),
		done:       make(chan struct{}),
		onSnapshot: onSnapshot,
		onError:    onError,
	}

	// Query and register under the lock so the initial snapshot and later
	// publishes cannot be queued out of order.
	s.mu.Lock()
	notes, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	id := s.nextID
	s.nextID++
	if s.subs[ownerID] == nil {
		s.subs[ownerID] = make(map[int]*subscriber)
	}
	s.subs[ownerID][id] = sub
	sub.deliver(delivery{notes: notes})
	s.mu.Unlock()

	go sub.run()

	unsubscribe := func() {
		s.mu.Lock()
		if owned, ok := s.subs[ownerID]; ok {
			delete(owned, id)
			if len(owned) == 0 {
				delete(s.subs, ownerID)
			}
		}
		s.mu.Unlock()
		sub.stop()
	}
	return unsubscribe, nil
}

func (s *SQLStore) Create(ownerID, text string) (string, error) {
	id := uuid.NewString()
	if err := s.repo.Insert(id, ownerID, text, time.Now()); err != nil {
		return "", err
	}
	s.publish(ownerID)
	return id, nil
}

func (s *SQLStore) Update(id, text string) error {
	ownerID, err := s.repo.GetOwnerID(id)
	if err != nil {
		return err
	}
	if _, err := s.repo.UpdateText(id, text); err != nil {
		return err
	}
	s.publish(ownerID)
	return nil
}

func (s *SQLStore) Delete(id string) error {
	ownerID, err := s.repo.GetOwnerID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}
	s.publish(ownerID)
	return nil
}

// publish re-queries the owner's notes and queues the result for every
// subscriber of that owner. Query and queueing happen under the lock so
// each subscription observes snapshots in mutation order.
func (s *SQLStore) publish(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.subs[ownerID]
	if len(owned) == 0 {
		return
	}

	notes, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		logger.Sugar.Errorf("Failed to refresh snapshot for user %s: %v", ownerID, err)
		for _, sub := range owned {
			sub.deliver(delivery{err: err})
		}
		return
	}

	for _, sub := range owned {
		// Each subscriber gets its own copy; callers may hold on to the slice.
		cp := make([]model.Note, len(notes))
		copy(cp, notes)
		sub.deliver(delivery{notes: cp})
	}
}
