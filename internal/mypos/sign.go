package mypos

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrKeyFormat is returned when the configured private key cannot be parsed
// as an unencrypted PKCS#1 or PKCS#8 RSA key.
var ErrKeyFormat = errors.New("mypos: unsupported private key format")

// LoadPrivateKey reads a PEM-encoded RSA private key. Both PKCS#1
// ("RSA PRIVATE KEY") and PKCS#8 ("PRIVATE KEY") blocks are accepted;
// encrypted keys are not.
func LoadPrivateKey(path string) (*rsa.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mypos: read private key: %w", err)
	}
	return ParsePrivateKey(raw)
}

func ParsePrivateKey(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, ErrKeyFormat
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("mypos: parse pkcs1 key: %w", err)
		}
		return key, nil
	case "PRIVATE KEY":
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("mypos: parse pkcs8 key: %w", err)
		}
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrKeyFormat
		}
		return rsaKey, nil
	default:
		return nil, ErrKeyFormat
	}
}

// Sign computes the gateway signature over the parameter set.
//
// Canonicalization, reproduced exactly per the IPC spec: join the field
// values (not keys) in insertion order with "-", base64-encode that string,
// sign the base64 text with RSA PKCS#1 v1.5 / SHA-256, then base64-encode
// the signature bytes. Any change to field order or amount formatting
// produces a different signature.
func Sign(key *rsa.PrivateKey, ps *ParamSet) (string, error) {
	canonical := strings.Join(ps.Values(), "-")
	encoded := base64.StdEncoding.EncodeToString([]byte(canonical))

	digest := sha256.Sum256([]byte(encoded))
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("mypos: sign request: %w", err)
	}

	return base64.StdEncoding.EncodeToString(signature), nil
}
