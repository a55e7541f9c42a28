package cart

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestKeyRoundTrip(t *testing.T) {
	productID := primitive.NewObjectID()
	packagingID := primitive.NewObjectID()

	key := Key(productID, packagingID)
	gotProduct, gotPackaging, err := ParseKey(key)
	if err != nil {
		t.Fatalf("parse key: %v", err)
	}
	if gotProduct != productID || gotPackaging != packagingID {
		t.Fatal("round-tripped ids differ")
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"justoneid",
		"a_b_c",
		"nothex_" + primitive.NewObjectID().Hex(),
		primitive.NewObjectID().Hex() + "_nothex",
		strings.Repeat("f", 24), // valid hex, missing separator
	}
	for _, key := range bad {
		if _, _, err := ParseKey(key); err == nil {
			t.Errorf("expected error for key %q", key)
		}
	}
}
