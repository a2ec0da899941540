package ratelimiter

import "sync"

type mapRegistry struct {
	limiters map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry returns an in-memory Registry.
func NewRegistry() Registry {
	return &mapRegistry{
		limiters: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(model string) (Limiter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, ok := r.limiters[model]
	return limiter, ok
}

func (r *mapRegistry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limiter == nil {
		delete(r.limiters, model)
		return
	}
	r.limiters[model] = limiter
}

func (r *mapRegistry) Delete(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.limiters, model)
}
