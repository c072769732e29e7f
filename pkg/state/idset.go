package state

import (
	"encoding/json"

	"github.com/elliotchance/orderedmap"
)

// IDSet is a set of block ids iterated in insertion order.
type IDSet struct {
	m *orderedmap.OrderedMap
}

func NewIDSet(ids ...string) *IDSet {
	s := &IDSet{m: orderedmap.NewOrderedMap()}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *IDSet) Add(id string) {
	if _, ok := s.m.Get(id); !ok {
		s.m.Set(id, struct{}{})
	}
}

func (s *IDSet) Has(id string) bool {
	if s == nil {
		return false
	}
	_, ok := s.m.Get(id)
	return ok
}

func (s *IDSet) Len() int {
	if s == nil {
		return 0
	}
	return s.m.Len()
}

// Union adds every id of other that is not in s yet.
func (s *IDSet) Union(other *IDSet) {
	if other == nil {
		return
	}
	for el := other.m.Front(); el != nil; el = el.Next() {
		s.Add(el.Key.(string))
	}
}

func (s *IDSet) IDs() []string {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, s.m.Len())
	for el := s.m.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Key.(string))
	}
	return ids
}

func (s *IDSet) MarshalJSON() ([]byte, error) {
	ids := s.IDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}
