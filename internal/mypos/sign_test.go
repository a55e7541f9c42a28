package mypos

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

func testKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func sampleParamSet() *ParamSet {
	ps := &ParamSet{}
	ps.Add("IPCmethod", "IPCPurchase")
	ps.Add("IPCVersion", "1.4")
	ps.Add("SID", "000000000000010")
	ps.Add("OrderID", "68b0c1d2e3f4a5b6c7d8e9f0abcd1234")
	ps.Add("Amount", "25.00")
	ps.Add("Currency", "BGN")
	return ps
}

func TestSignDeterministic(t *testing.T) {
	key := testKey(t)
	ps := sampleParamSet()

	first, err := Sign(key, ps)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	second, err := Sign(key, ps)
	if err != nil {
		t.Fatalf("sign again: %v", err)
	}
	if first != second {
		t.Fatal("expected identical signatures for identical input")
	}
}

func TestSignChangesWithValue(t *testing.T) {
	key := testKey(t)

	base, err := Sign(key, sampleParamSet())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	changed := sampleParamSet()
	changed.params[4].Value = "25.01"
	other, err := Sign(key, changed)
	if err != nil {
		t.Fatalf("sign changed: %v", err)
	}
	if base == other {
		t.Fatal("expected signature to change when a field value changes")
	}
}

func TestSignChangesWithFieldOrder(t *testing.T) {
	key := testKey(t)

	base, err := Sign(key, sampleParamSet())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	reordered := sampleParamSet()
	reordered.params[4], reordered.params[5] = reordered.params[5], reordered.params[4]
	other, err := Sign(key, reordered)
	if err != nil {
		t.Fatalf("sign reordered: %v", err)
	}
	if base == other {
		t.Fatal("expected signature to change when two fields swap position")
	}
}

func TestSignExcludesSignatureField(t *testing.T) {
	key := testKey(t)

	ps := sampleParamSet()
	base, err := Sign(key, ps)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	ps.Add(FieldSignature, base)
	again, err := Sign(key, ps)
	if err != nil {
		t.Fatalf("sign with signature appended: %v", err)
	}
	if base != again {
		t.Fatal("appended Signature field must not participate in signing")
	}
}

func TestValuesSkipSignature(t *testing.T) {
	ps := sampleParamSet()
	ps.Add(FieldSignature, "abc")

	values := ps.Values()
	if len(values) != 6 {
		t.Fatalf("expected 6 values, got %d", len(values))
	}
	for _, v := range values {
		if v == "abc" {
			t.Fatal("signature value leaked into canonical values")
		}
	}
}
