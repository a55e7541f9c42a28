package cart

import (
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/gin-contrib/sessions"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const sessionKey = "cart"

func init() {
	// The cookie store gob-encodes session values.
	gob.Register(map[string]int{})
}

// Key builds the session cart key for one (product, packaging) choice.
func Key(productID, packagingID primitive.ObjectID) string {
	return productID.Hex() + "_" + packagingID.Hex()
}

// ParseKey splits a session cart key back into its identifiers. Malformed
// keys (legacy sessions, tampered cookies) return an error and are skipped
// during resolution.
func ParseKey(key string) (primitive.ObjectID, primitive.ObjectID, error) {
	parts := strings.Split(key, "_")
	if len(parts) != 2 {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("cart: malformed key %q", key)
	}
	productID, err := primitive.ObjectIDFromHex(parts[0])
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("cart: bad product id in key %q", key)
	}
	packagingID, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, fmt.Errorf("cart: bad packaging id in key %q", key)
	}
	return productID, packagingID, nil
}

// Get reads the cart mapping (cart key → quantity) from the session.
func Get(session sessions.Session) map[string]int {
	if raw := session.Get(sessionKey); raw != nil {
		if cart, ok := raw.(map[string]int); ok {
			return cart
		}
	}
	return map[string]int{}
}

// Save writes the cart mapping back to the session.
func Save(session sessions.Session, cartMap map[string]int) error {
	session.Set(sessionKey, cartMap)
	return session.Save()
}

// Clear empties the session cart.
func Clear(session sessions.Session) error {
	session.Delete(sessionKey)
	return session.Save()
}
