// Package secret seals mailbox credentials at rest with nacl/secretbox.
package secret

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrDecryptFailed = errors.New("failed to decrypt sealed secret")

// Sealer encrypts and decrypts small secrets with a key derived from a
// configured passphrase.
type Sealer struct {
	key [32]byte
}

func NewSealer(passphrase string) (*Sealer, error) {
	if passphrase == "" {
		return nil, errors.New("secret passphrase must not be empty")
	}
	s := &Sealer{key: sha256.Sum256([]byte(passphrase))}
	return s, nil
}

// Seal encrypts plaintext, prepending the random nonce to the box.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, &s.key), nil
}

// Open decrypts a box produced by Seal.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceSize {
		return nil, ErrDecryptFailed
	}
	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	plaintext, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrDecryptFailed
	}
	return plaintext, nil
}
