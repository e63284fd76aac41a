package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var errUnseal = errors.New("sealed value cannot be opened")

// sealer encrypts session values at rest with NaCl secretbox. The key is
// the SHA-256 of the configured secret.
type sealer struct {
	key [32]byte
}

func newSealer(secret string) sealer {
	return sealer{key: sha256.Sum256([]byte(secret))}
}

func (s sealer) seal(plain []byte) (string, error) {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(box), nil
}

func (s sealer) open(sealed string) ([]byte, error) {
	box, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(box) < 24+secretbox.Overhead {
		return nil, errUnseal
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return nil, errUnseal
	}
	return plain, nil
}
