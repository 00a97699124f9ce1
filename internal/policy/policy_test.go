package policy

import (
	"testing"

	"anoa.com/civicreport/pkg/apperror"
	"anoa.com/civicreport/pkg/token"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanAct(t *testing.T) {
	owner := uuid.New()
	ownerClaims := &token.Claims{UserID: owner}
	stranger := &token.Claims{UserID: uuid.New()}
	admin := &token.Claims{UserID: uuid.New(), IsAdmin: true}

	tests := []struct {
		name   string
		claims *token.Claims
		action Action
		want   Decision
	}{
		{"anonymous authenticated", nil, Authenticated, Deny},
		{"anonymous own", nil, ReadOwn, Deny},
		{"anonymous admin", nil, AdminOnly, Deny},

		{"any caller authenticated", stranger, Authenticated, Allow},

		{"owner read own", ownerClaims, ReadOwn, Allow},
		{"owner write own", ownerClaims, WriteOwn, Allow},
		{"owner delete own", ownerClaims, DeleteOwn, Allow},
		{"stranger write own", stranger, WriteOwn, Deny},
		{"stranger delete own", stranger, DeleteOwn, Deny},
		{"admin write own", admin, WriteOwn, Allow},
		{"admin delete own", admin, DeleteOwn, Allow},

		{"owner owner-only", ownerClaims, OwnerOnly, Allow},
		{"admin owner-only", admin, OwnerOnly, Deny},
		{"stranger owner-only", stranger, OwnerOnly, Deny},

		{"admin admin-only", admin, AdminOnly, Allow},
		{"owner admin-only", ownerClaims, AdminOnly, Deny},
		{"admin write any", admin, WriteAny, Allow},
		{"owner write any", ownerClaims, WriteAny, Deny},
		{"admin delete any", admin, DeleteAny, Allow},
		{"owner delete any", ownerClaims, DeleteAny, Deny},

		{"unknown action", admin, Action(99), Deny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAct(tt.claims, tt.action, owner))
		})
	}
}

func TestCanAct_NilOwnerNeverMatches(t *testing.T) {
	claims := &token.Claims{UserID: uuid.Nil}
	assert.Equal(t, Deny, CanAct(claims, OwnerOnly, uuid.Nil))
}

func TestAuthorize_ReportUpdateDeleteAsymmetry(t *testing.T) {
	owner := uuid.New()
	stranger := &token.Claims{UserID: uuid.New()}
	admin := &token.Claims{UserID: uuid.New(), IsAdmin: true}

	// update of a report is owner-only
	assert.ErrorIs(t, Authorize(stranger, OwnerOnly, owner), apperror.ErrForbidden)
	assert.ErrorIs(t, Authorize(admin, OwnerOnly, owner), apperror.ErrForbidden)

	// delete lets an admin through
	assert.NoError(t, Authorize(admin, DeleteOwn, owner))
	assert.ErrorIs(t, Authorize(stranger, DeleteOwn, owner), apperror.ErrForbidden)
}

func TestAuthorize_Unauthenticated(t *testing.T) {
	assert.ErrorIs(t, Authorize(nil, Authenticated, uuid.Nil), apperror.ErrUnauthorized)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "owner_only", OwnerOnly.String())
	assert.Equal(t, "action(42)", Action(42).String())
}
