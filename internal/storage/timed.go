package storage

import "time"

// LatencyObserver receives the duration of a single store call.
type LatencyObserver func(op string, d time.Duration)

// TimedStore wraps a UserStore and reports how long each call took.
// Failed calls are reported too.
type TimedStore struct {
	next    UserStore
	observe LatencyObserver
	now     func() time.Time
}

// NewTimedStore wraps next. A nil observe disables reporting.
func NewTimedStore(next UserStore, observe LatencyObserver) *TimedStore {
	return &TimedStore{next: next, observe: observe, now: time.Now}
}

func (s *TimedStore) track(op string) func() {
	if s.observe == nil {
		return func() {}
	}
	start := s.now()
	return func() { s.observe(op, s.now().Sub(start)) }
}

func (s *TimedStore) List() []User {
	defer s.track(OpList)()
	return s.next.List()
}

func (s *TimedStore) Get(id int) (User, error) {
	defer s.track(OpGet)()
	return s.next.Get(id)
}

func (s *TimedStore) Create(name, email string) (User, error) {
	defer s.track(OpCreate)()
	return s.next.Create(name, email)
}

func (s *TimedStore) Update(id int, name, email string) (User, error) {
	defer s.track(OpUpdate)()
	return s.next.Update(id, name, email)
}

func (s *TimedStore) Delete(id int) error {
	defer s.track(OpDelete)()
	return s.next.Delete(id)
}

func (s *TimedStore) Count() int {
	defer s.track(OpCount)()
	return s.next.Count()
}

var _ UserStore = (*TimedStore)(nil)
