package model

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/vinicius-lino-figueiredo/warehouse/adapter/data"
)

// slot holds a stored record. A removed record leaves a slot with a nil
// record behind, reused if the id is inserted again.
type slot struct {
	key string
	rec data.M
}

// store is an insertion ordered map of ids to stored records. Records are
// never modified in place: writers replace the whole slot value.
type store struct {
	mu     sync.RWMutex
	slots  []slot
	index  map[string]int
	length int
}

func newStore() *store {
	return &store{index: make(map[string]int)}
}

// key returns the canonical form of an id. Numbers and their decimal string
// form address the same record.
func key(id any) string {
	switch t := id.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	}
	return fmt.Sprint(id)
}

func (s *store) get(k string) (data.M, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[k]
	if !ok || s.slots[i].rec == nil {
		return nil, false
	}
	return s.slots[i].rec, true
}

func (s *store) has(k string) bool {
	_, ok := s.get(k)
	return ok
}

// put stores rec under k, reusing the slot of k if there is one.
func (s *store) put(k string, rec data.M) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[k]
	if !ok {
		s.index[k] = len(s.slots)
		s.slots = append(s.slots, slot{key: k, rec: rec})
		s.length++
		return
	}
	if s.slots[i].rec == nil {
		s.length++
	}
	s.slots[i].rec = rec
}

// clear removes the record stored under k and keeps its slot.
func (s *store) clear(k string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[k]
	if !ok || s.slots[i].rec == nil {
		return
	}
	s.slots[i].rec = nil
	s.length--
}

func (s *store) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.length
}

// records returns the stored records in slot order.
func (s *store) records() []data.M {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]data.M, 0, s.length)
	for _, sl := range s.slots {
		if sl.rec != nil {
			res = append(res, sl.rec)
		}
	}
	return res
}

// scan returns the records accepted by match, in slot order, skipping the
// first skip ones and stopping after limit when limit is positive.
func (s *store) scan(match func(data.M) bool, skip, limit int) []data.M {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []data.M
	for _, sl := range s.slots {
		if limit > 0 && len(res) == limit {
			break
		}
		if sl.rec == nil || !match(sl.rec) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		res = append(res, sl.rec)
	}
	return res
}
