package models

import (
	"slices"
	"time"
)

// Principal identifies an account subject to authorization checks.
// The registry compares principals for equality and never interprets them.
type Principal string

func (p Principal) String() string { return string(p) }

// IsZero reports whether the principal is empty.
func (p Principal) IsZero() bool { return p == "" }

// Registry is the aggregate root of the studio verification table.
//
// Invariants:
//   - exactly one admin exists at any time
//   - verified has set semantics (no duplicates, order irrelevant)
//   - only the current admin may change admin or verified
//
// Registry is not safe for concurrent use; the store serializes access so that
// the authorization check and the mutation of every operation are indivisible.
type Registry struct {
	admin     Principal
	verified  map[Principal]struct{}
	updatedAt time.Time
}

// NewRegistry creates a registry owned by admin with an empty verified set.
func NewRegistry(admin Principal, now time.Time) *Registry {
	return &Registry{
		admin:     admin,
		verified:  make(map[Principal]struct{}),
		updatedAt: now,
	}
}

// Admin returns the current admin.
func (r *Registry) Admin() Principal {
	return r.admin
}

// IsAdmin reports whether p is the current admin.
func (r *Registry) IsAdmin(p Principal) bool {
	return r.admin == p
}

// UpdatedAt returns the time of the last successful mutation.
func (r *Registry) UpdatedAt() time.Time {
	return r.updatedAt
}

// VerifyStudio marks target as verified.
func (r *Registry) VerifyStudio(caller, target Principal, now time.Time) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if r.IsVerified(target) {
		return ErrAlreadyVerified
	}
	r.verified[target] = struct{}{}
	r.updatedAt = now
	return nil
}

// RevokeVerification removes target from the verified set.
func (r *Registry) RevokeVerification(caller, target Principal, now time.Time) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	if !r.IsVerified(target) {
		return ErrNotVerified
	}
	delete(r.verified, target)
	r.updatedAt = now
	return nil
}

// IsVerified reports membership of target. No authorization is required.
func (r *Registry) IsVerified(target Principal) bool {
	_, ok := r.verified[target]
	return ok
}

// TransferAdmin replaces the admin. Transferring to the current admin succeeds
// and changes nothing.
func (r *Registry) TransferAdmin(caller, newAdmin Principal, now time.Time) error {
	if err := r.requireAdmin(caller); err != nil {
		return err
	}
	r.admin = newAdmin
	r.updatedAt = now
	return nil
}

// Verified returns the verified principals in ascending order.
func (r *Registry) Verified() []Principal {
	out := make([]Principal, 0, len(r.verified))
	for p := range r.verified {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// VerifiedCount returns the size of the verified set.
func (r *Registry) VerifiedCount() int {
	return len(r.verified)
}

func (r *Registry) requireAdmin(caller Principal) error {
	if caller != r.admin {
		return ErrNotAuthorized
	}
	return nil
}
