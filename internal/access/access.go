// Package access decides whether a caller may run a state-changing operation.
package access

import "yatube/internal/model"

type Decision int

const (
	Allow Decision = iota
	AuthRequired
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case AuthRequired:
		return "auth_required"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Authenticated is checked before anything else on every write.
func Authenticated(caller *model.User) Decision {
	if caller == nil || caller.ID == 0 {
		return AuthRequired
	}
	return Allow
}

// Owner allows only the author of the object.
func Owner(caller *model.User, authorID uint64) Decision {
	if d := Authenticated(caller); d != Allow {
		return d
	}
	if caller.ID != authorID {
		return Forbidden
	}
	return Allow
}
