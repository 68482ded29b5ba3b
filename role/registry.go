package role

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrUnknownRole is returned when a role string matches no registered rule.
var ErrUnknownRole = errors.New("unrecognized role")

// ErrRegistryFrozen is returned by Register calls after Freeze.
var ErrRegistryFrozen = errors.New("role registry frozen")

// Backend spellings, already in normalized form.
const (
	NameDean     = "декан"
	NameViceDean = "заместитель декана"
	NameStudent  = "студент"
	NameTeacher  = "преподаватель"

	NameLecturer = "преподаватель (лектор)"
	NamePractice = "преподаватель (практик)"
)

type containsRule struct {
	fragment string
	kind     Kind
}

// Registry maps normalized role strings to a [Kind]. Exact names are checked before
// substring rules; substring rules are checked in registration order.
type Registry struct {
	mu       sync.RWMutex
	exact    map[string]Kind
	variants map[string]Variant
	contains []containsRule
	frozen   bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		exact:    make(map[string]Kind),
		variants: make(map[string]Variant),
	}
}

// DefaultRegistry returns a frozen registry with the roles the backend emits today.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(NameDean, Dean)
	_ = r.Register(NameViceDean, ViceDean)
	_ = r.Register(NameStudent, Student)
	_ = r.RegisterVariant(NameLecturer, VariantLecturer)
	_ = r.RegisterVariant(NamePractice, VariantPractice)
	_ = r.RegisterContains(NameTeacher, Teacher)
	r.Freeze()
	return r
}

// Register maps an exact role name to kind.
func (r *Registry) Register(name string, kind Kind) error {
	name = Normalize(name)
	if name == "" {
		return errors.New("role name empty")
	}
	if kind == Unknown {
		return errors.New("cannot register unknown kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	if _, exists := r.exact[name]; exists {
		return fmt.Errorf("role %q already registered", name)
	}
	r.exact[name] = kind
	return nil
}

// RegisterVariant records the teacher sub-variant for an exact name. The name resolves to
// [Teacher] regardless of the substring rules.
func (r *Registry) RegisterVariant(name string, variant Variant) error {
	name = Normalize(name)
	if name == "" {
		return errors.New("role name empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	r.exact[name] = Teacher
	r.variants[name] = variant
	return nil
}

// RegisterContains maps every role containing fragment to kind.
func (r *Registry) RegisterContains(fragment string, kind Kind) error {
	fragment = Normalize(fragment)
	if fragment == "" {
		return errors.New("role fragment empty")
	}
	if kind == Unknown {
		return errors.New("cannot register unknown kind")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return ErrRegistryFrozen
	}
	r.contains = append(r.contains, containsRule{fragment: fragment, kind: kind})
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Classify resolves a raw backend role string.
func (r *Registry) Classify(raw string) (Kind, Variant, error) {
	name := Normalize(raw)
	if name == "" {
		return Unknown, VariantNone, fmt.Errorf("%w: empty role", ErrUnknownRole)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if kind, ok := r.exact[name]; ok {
		variant := r.variants[name]
		if kind == Teacher && variant == VariantNone {
			variant = VariantOther
		}
		return kind, variant, nil
	}

	for _, rule := range r.contains {
		if strings.Contains(name, rule.fragment) {
			if rule.kind == Teacher {
				return Teacher, VariantOther, nil
			}
			return rule.kind, VariantNone, nil
		}
	}

	return Unknown, VariantNone, fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

// Count returns the number of exact names plus substring rules.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.exact) + len(r.contains)
}
