package schema

import (
	"sync"

	"github.com/pkg/errors"
)

// Registry 按注册顺序保存 Schema，类型名和表名都不能重复
type Registry struct {
	mu      sync.RWMutex
	schemas []*Schema
	byName  map[string]*Schema
	byTable map[string]*Schema
}

func NewRegistry() *Registry {
	return &Registry{
		byName:  map[string]*Schema{},
		byTable: map[string]*Schema{},
	}
}

func (r *Registry) Register(s *Schema) error {
	if s == nil {
		return errors.New("schema is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[s.Name()]; ok {
		return errors.Errorf("schema %s already registered", s.Name())
	}
	if other, ok := r.byTable[s.TableName()]; ok {
		return errors.Errorf("table %s already used by schema %s", s.TableName(), other.Name())
	}

	r.schemas = append(r.schemas, s)
	r.byName[s.Name()] = s
	r.byTable[s.TableName()] = s
	return nil
}

func (r *Registry) MustRegister(s *Schema) {
	if err := r.Register(s); err != nil {
		panic(err)
	}
}

func (r *Registry) Lookup(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	return s, ok
}

func (r *Registry) Schemas() []*Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Schema(nil), r.schemas...)
}
