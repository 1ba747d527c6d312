package dashboard

import (
	"context"
	"io"
	"sync"
	"time"

	forecaster "github.com/aouyang1/go-taxiforecaster"
	"github.com/aouyang1/go-taxiforecaster/backtest"
	"github.com/aouyang1/go-taxiforecaster/timedataset"
	"github.com/google/uuid"
)

// Forecaster is the interactive session state served to one browser
type Forecaster interface {
	Options() *forecaster.Options
	SetOptions(opt *forecaster.Options) error
	Sample() (*timedataset.Dataset, error)
	Masks() ([]backtest.FoldMask, error)
	Run() (*forecaster.Results, error)
	PlotSample(w io.Writer) error
	PlotBacktest(w io.Writer, historyLen int) error
}

// Factory creates the forecaster of a new session
type Factory func() (Forecaster, error)

type session struct {
	mu       sync.Mutex
	f        Forecaster
	lastSeen time.Time
}

// Store holds the sessions of every browser in memory keyed by session id
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	factory  Factory
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(factory Factory, ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*session),
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns the session with id and marks it as seen
func (s *Store) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess, true
}

// create starts a new session and returns its id
func (s *Store) create() (string, *session, error) {
	f, err := s.factory()
	if err != nil {
		return "", nil, err
	}
	id := uuid.NewString()
	sess := &session{f: f}

	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = s.now()
	s.sessions[id] = sess
	return id, sess, nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes every session not seen within the ttl and returns how many were removed
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	var removed int
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps expired sessions every interval until ctx is done
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
