// Package order holds the read-only view of the ordering system's data that
// the notifier works with: orders, their owning users, and the mutation events
// emitted by the order store.
//
// Dependency rule: order imports nothing from internal/. Every other package
// may import it.
package order

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusReady is the only order status the notifier reacts to. The comparison
// is exact and case-sensitive.
const StatusReady = "Ready"

// ErrInvalidID is returned by ParseID when the input is not the 24-character
// hex form of a 12-byte object identifier.
var ErrInvalidID = errors.New("order: invalid identifier")

// ParseID validates an identifier string and returns its canonical object id.
// Orders and users share the same identifier format.
func ParseID(s string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return oid, nil
}

// Order is an order document as stored by the ordering system.
type Order struct {
	ID     string // 24-char hex
	Status string
	UserID string // foreign reference to User.ID; may be empty or malformed
}

// User is the owner of an order. Email may be empty.
type User struct {
	ID    string
	Email string
}

// HasEmail reports whether the user carries a non-empty email address. The
// address is not validated here.
func (u User) HasEmail() bool {
	return u.Email != ""
}
