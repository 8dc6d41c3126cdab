package health

import (
	"context"
	"time"

	"resume-workspace/internal/shared/storage/kv"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	Store    kv.Store
	Backend  string
	Sessions func() int
}

// NewService constructs a new health service.
func NewService(store kv.Store, backend string, sessions func() int) *Service {
	return &Service{Store: store, Backend: backend, Sessions: sessions}
}

// Status is the health payload.
type Status struct {
	OK           bool   `json:"ok"`
	Storage      string `json:"storage"`
	StorageError string `json:"storageError,omitempty"`
	OpenSessions int    `json:"openSessions"`
}

// Status pings the collection store.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Storage: s.Backend}
	if s.Sessions != nil {
		st.OpenSessions = s.Sessions()
	}
	if s.Store == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.Store.Ping(ctx); err != nil {
		st.OK = false
		st.StorageError = err.Error()
	}
	return st
}
