package bot

import (
	"sync"

	"classy-quiz-bot/internal/quiz"
)

// Registry tracks live quiz sessions by ID. Sessions remove themselves on
// finalize, so a lookup miss usually just means the quiz already ended.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*quiz.Session)}
}

func (r *Registry) Add(id string, session *quiz.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = session
}

func (r *Registry) Get(id string) (*quiz.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
