package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type rule struct {
	pattern    string
	categoryID uuid.UUID
}

// Memory keeps rules in process. Matching follows the Postgres store:
// case-insensitive containment, longest pattern first, newest on ties.
type Memory struct {
	mu    sync.RWMutex
	rules []rule
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) FindCategory(_ context.Context, rawDescription string) (*uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	raw := strings.ToLower(rawDescription)

	var best *rule

	for i := len(m.rules) - 1; i >= 0; i-- {
		r := &m.rules[i]
		if !strings.Contains(raw, strings.ToLower(r.pattern)) {
			continue
		}

		if best == nil || len(r.pattern) > len(best.pattern) {
			best = r
		}
	}

	if best == nil {
		return nil, nil
	}

	id := best.categoryID

	return &id, nil
}

func (m *Memory) CreateRule(_ context.Context, rawPattern string, categoryID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.rules = append(m.rules, rule{pattern: rawPattern, categoryID: categoryID})

	return nil
}
