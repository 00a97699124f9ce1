// Package policy decides whether a verified caller may perform an action on a
// resource owned by a given user. Every mutation endpoint goes through
// Authorize so the ownership and role rules live in exactly one place.
package policy

import (
	"fmt"

	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
)

type Action int

const (
	// ReadOwn, WriteOwn and DeleteOwn allow the owner or an admin.
	ReadOwn Action = iota
	WriteOwn
	DeleteOwn
	// WriteAny and DeleteAny act on resources regardless of owner and need admin.
	WriteAny
	DeleteAny
	AdminOnly
	// OwnerOnly requires an exact ownership match. Admin does not bypass it.
	OwnerOnly
	// Authenticated allows any verified caller.
	Authenticated
)

var actionNames = map[Action]string{
	ReadOwn:       "read_own",
	WriteOwn:      "write_own",
	DeleteOwn:     "delete_own",
	WriteAny:      "write_any",
	DeleteAny:     "delete_any",
	AdminOnly:     "admin_only",
	OwnerOnly:     "owner_only",
	Authenticated: "authenticated",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

type Decision bool

const (
	Deny  Decision = false
	Allow Decision = true
)

// CanAct is the pure decision function. A nil claims value means the caller
// is not authenticated and is denied every action.
func CanAct(claims *token.Claims, action Action, ownerID uuid.UUID) Decision {
	if claims == nil {
		return Deny
	}

	isOwner := ownerID != uuid.Nil && claims.UserID == ownerID

	switch action {
	case Authenticated:
		return Allow
	case AdminOnly, WriteAny, DeleteAny:
		return Decision(claims.IsAdmin)
	case ReadOwn, WriteOwn, DeleteOwn:
		return Decision(isOwner || claims.IsAdmin)
	case OwnerOnly:
		return Decision(isOwner)
	}
	return Deny
}

// Authorize turns a decision into an error suitable for the HTTP boundary.
func Authorize(claims *token.Claims, action Action, ownerID uuid.UUID) error {
	if claims == nil {
		return fmt.Errorf("access denied, no token provided: %w", apperror.ErrUnauthorized)
	}
	if !CanAct(claims, action, ownerID) {
		return fmt.Errorf("access denied, not allowed: %w", apperror.ErrForbidden)
	}
	return nil
}
