package mypos

import (
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The gateway order reference is bounded and must not contain "-", which is
// the signing delimiter.
const orderReferenceMaxLen = 32

// NewOrderReference derives the gateway order reference from the internal
// order identity plus a random suffix: 24 hex chars of the ObjectID and the
// first 8 chars of a UUID with dashes stripped. Generated once per order and
// cached on it.
func NewOrderReference(orderID primitive.ObjectID) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return orderID.Hex() + suffix[:8]
}

// ValidOrderReference reports whether a stored reference still satisfies the
// gateway's syntactic constraints. References written by older revisions may
// contain UUID dashes and must be regenerated before use.
func ValidOrderReference(ref string) bool {
	if ref == "" || len(ref) > orderReferenceMaxLen {
		return false
	}
	return !strings.Contains(ref, "-")
}
