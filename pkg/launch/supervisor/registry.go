package supervisor

import (
	"os"
	"sync"
	"time"
)

// Handle is a live game process.
type Handle struct {
	ID         string
	AccountID  string
	Profile    string
	Pid        int
	StartedAt  time.Time
	ScriptPath string

	process *os.Process
}

// Registry tracks live handles per account. The zero value is not usable;
// use NewRegistry.
type Registry struct {
	mu      sync.Mutex
	handles map[string][]*Handle
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string][]*Handle)}
}

// Add records h under its account.
func (r *Registry) Add(h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles[h.AccountID] = append(r.handles[h.AccountID], h)
}

// Remove drops h. It reports whether h was present.
func (r *Registry) Remove(h *Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.handles[h.AccountID]
	for i, candidate := range list {
		if candidate != h {
			continue
		}
		list = append(list[:i:i], list[i+1:]...)
		if len(list) == 0 {
			delete(r.handles, h.AccountID)
		} else {
			r.handles[h.AccountID] = list
		}
		return true
	}
	return false
}

// IsBusy reports whether accountID has at least one live handle.
func (r *Registry) IsBusy(accountID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles[accountID]) > 0
}

// Handles returns a copy of accountID's live handles.
func (r *Registry) Handles(accountID string) []*Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Handle(nil), r.handles[accountID]...)
}

// Len counts live handles across all accounts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, list := range r.handles {
		n += len(list)
	}
	return n
}
