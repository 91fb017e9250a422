// Package secureid reversibly wraps internal numeric identifiers into opaque
// URL-safe tokens. Each Protector is bound to a named purpose: tokens minted
// for one purpose never unprotect under another, because the purpose feeds
// the key derivation.
package secureid

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// ErrInvalidToken is returned when a token is malformed, was minted under a
// different key or purpose, or has been tampered with.
var ErrInvalidToken = errors.New("secureid: invalid token")

const (
	keySize = 32
	idSize  = 8
)

type Protector struct {
	aead    cipher.AEAD
	purpose string
}

// New derives a purpose-scoped subkey from the master key via HKDF-SHA256 and
// builds an AES-256-GCM protector with it. The master key must not be empty.
func New(masterKey []byte, purpose string) (*Protector, error) {
	if len(masterKey) == 0 {
		return nil, errors.New("secureid: master key is required")
	}
	if purpose == "" {
		return nil, errors.New("secureid: purpose is required")
	}

	subKey := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, masterKey, nil, []byte(purpose))
	if _, err := io.ReadFull(kdf, subKey); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(subKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	return &Protector{aead: aead, purpose: purpose}, nil
}

// Purpose reports the purpose this protector was constructed for.
func (p *Protector) Purpose() string {
	return p.purpose
}

// Protect encrypts the id into a URL-safe token. A fresh random nonce is used
// per call, so the output is not deterministic.
func (p *Protector) Protect(id int) (string, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	plain := make([]byte, idSize)
	binary.BigEndian.PutUint64(plain, uint64(id))

	sealed := p.aead.Seal(nonce, nonce, plain, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unprotect reverses Protect. Any failure, from bad encoding to a failed
// authentication tag, collapses to ErrInvalidToken so callers cannot
// distinguish why a token was rejected.
func (p *Protector) Unprotect(token string) (int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}

	nonceSize := p.aead.NonceSize()
	if len(raw) <= nonceSize {
		return 0, ErrInvalidToken
	}

	plain, err := p.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil || len(plain) != idSize {
		return 0, ErrInvalidToken
	}

	return int(binary.BigEndian.Uint64(plain)), nil
}
