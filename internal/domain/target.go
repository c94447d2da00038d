package domain

import (
	"reflect"
	"strings"
)

// Identity is anything that carries a stable identity id, e.g. a user record
// owned by another service.
type Identity interface {
	IdentityID() string
}

// IdentityFunc adapts a plain function to Identity.
type IdentityFunc func() string

func (f IdentityFunc) IdentityID() string { return f() }

// Target references the other end of a relationship: either a raw id or an
// identity value. The zero Target is unresolved.
type Target struct {
	id  string
	ref Identity
}

// ID targets a raw identity id.
func ID(id string) Target { return Target{id: id} }

// Ref targets an identity value.
func Ref(identity Identity) Target { return Target{ref: identity} }

// Resolve returns the target id, or false when the target is empty, a nil
// reference, or an identity without an id.
func (t Target) Resolve() (string, bool) {
	if t.ref != nil {
		if isNilRef(t.ref) {
			return "", false
		}
		return clean(t.ref.IdentityID())
	}
	return clean(t.id)
}

func (t Target) String() string {
	id, ok := t.Resolve()
	if !ok {
		return "<unresolved>"
	}
	return id
}

func clean(id string) (string, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	return id, true
}

// isNilRef catches typed nil pointers stored in the interface.
func isNilRef(i Identity) bool {
	v := reflect.ValueOf(i)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Func, reflect.Slice:
		return v.IsNil()
	}
	return false
}
