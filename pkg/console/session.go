package console

import (
	"sort"
	"sync"
	"time"

	"github.com/getmockd/mockdeck/pkg/specfile"
	"github.com/getmockd/mockdeck/pkg/supervisor"
)

// DefaultSessionID is the session used by requests that carry no session
// header.
const DefaultSessionID = "default"

// Session is one caller's view of the console: its uploaded spec and its
// engine child. Sessions never share a supervisor.
type Session struct {
	ID        string
	CreatedAt time.Time

	sup *supervisor.Supervisor

	// opMu serializes start and stop so two requests on the same session
	// cannot interleave process lifecycle steps.
	opMu sync.Mutex

	mu       sync.Mutex
	specPath string
	summary  specfile.Summary
	port     int
	host     string
	ready    bool
	runID    string
}

// SetSpec records the uploaded spec for this session.
func (s *Session) SetSpec(path string, summary specfile.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specPath = path
	s.summary = summary
}

// Spec returns the current spec path and summary. Path is empty when no
// spec has been uploaded yet.
func (s *Session) Spec() (string, specfile.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specPath, s.summary
}

// setRun records the launch parameters of the current engine run.
func (s *Session) setRun(runID string, port int, host string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
	s.port = port
	s.host = host
	s.ready = ready
}

// run returns the current run's launch parameters.
func (s *Session) run() (port int, host string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port, s.host, s.ready
}

// takeRunID returns and clears the current run ID, so a run is closed
// out in history at most once.
func (s *Session) takeRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.runID
	s.runID = ""
	return id
}

// BaseURL returns the client-facing URL of this session's engine, or the
// empty string when it never started.
func (s *Session) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == 0 {
		return ""
	}
	return supervisor.BaseURL(s.host, s.port)
}

// sessionRegistry tracks sessions by ID and creates them on first use.
type sessionRegistry struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	newSupervisor func(id string) *supervisor.Supervisor
}

func newSessionRegistry(newSupervisor func(id string) *supervisor.Supervisor) *sessionRegistry {
	return &sessionRegistry{
		sessions:      make(map[string]*Session),
		newSupervisor: newSupervisor,
	}
}

// GetOrCreate returns the session for id, creating it on first use. An
// empty id means the default session.
func (r *sessionRegistry) GetOrCreate(id string) *Session {
	if id == "" {
		id = DefaultSessionID
	}

	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return sess
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[id]; ok {
		return sess
	}
	sess = &Session{
		ID:        id,
		CreatedAt: time.Now(),
		sup:       r.newSupervisor(id),
	}
	r.sessions[id] = sess
	return sess
}

// Delete removes a session and returns it. The caller owns stopping its
// child.
func (r *sessionRegistry) Delete(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	return sess, ok
}

// All returns every live session, ordered by ID for stable output.
func (r *sessionRegistry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
