// Package securestore seals private key records with a passphrase.
//
// The key is derived with argon2id and the record is sealed with
// XChaCha20-Poly1305. Sealed data starts with a fixed prefix so plaintext
// records written before a passphrase was configured can still be told apart.
package securestore

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	dserrors "github.com/mrz1836/docsign/internal/errors"
)

const (
	envelopeVersion = 1
	saltSize        = 16
	kdfName         = "argon2id"
)

//nolint:gochecknoglobals // Immutable marker prefix
var prefix = []byte("DOCSIGNENC1\n")

// ErrInvalid indicates sealed data that cannot be parsed as an envelope.
var ErrInvalid = errors.New("securestore envelope is invalid")

// Params controls the argon2id cost. Decryption always uses the parameters
// recorded in the envelope.
type Params struct {
	Time     uint32
	MemoryKB uint32
	Threads  uint8
}

// DefaultParams returns the production key derivation cost.
func DefaultParams() Params {
	return Params{Time: 2, MemoryKB: 64 * 1024, Threads: 1}
}

// Envelope is the JSON body of sealed data.
type Envelope struct {
	Version     uint32 `json:"version"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Sealer encrypts and decrypts with a fixed passphrase.
type Sealer struct {
	passphrase string
	params     Params
}

// NewSealer returns a Sealer using the default cost parameters.
func NewSealer(passphrase string) *Sealer {
	return &Sealer{passphrase: passphrase, params: DefaultParams()}
}

// WithParams returns a copy of s using p for new envelopes.
func (s *Sealer) WithParams(p Params) *Sealer {
	return &Sealer{passphrase: s.passphrase, params: p}
}

// IsSealed reports whether data carries the envelope prefix.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, prefix)
}

// Seal encrypts plaintext into prefixed envelope bytes.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("reading salt: %w", err)
	}
	key := deriveKey(s.passphrase, salt, s.params)
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("reading nonce: %w", err)
	}

	raw, err := json.Marshal(Envelope{
		Version:     envelopeVersion,
		KDF:         kdfName,
		KDFTime:     s.params.Time,
		KDFMemoryKB: s.params.MemoryKB,
		KDFThreads:  s.params.Threads,
		Salt:        salt,
		Nonce:       nonce,
		Ciphertext:  aead.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, prefix...), raw...), nil
}

// Open decrypts envelope bytes produced by Seal. A wrong passphrase or
// modified ciphertext returns ErrKeyDecryptFailed.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	if !IsSealed(data) {
		return nil, ErrInvalid
	}
	var env Envelope
	if err := json.Unmarshal(data[len(prefix):], &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if env.Version != envelopeVersion || env.KDF != kdfName || env.KDFThreads == 0 {
		return nil, ErrInvalid
	}

	key := deriveKey(s.passphrase, env.Salt, Params{Time: env.KDFTime, MemoryKB: env.KDFMemoryKB, Threads: env.KDFThreads})
	defer zeroBytes(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrInvalid
	}
	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, dserrors.ErrKeyDecryptFailed
	}
	return plaintext, nil
}

func deriveKey(passphrase string, salt []byte, p Params) []byte {
	return argon2.IDKey([]byte(passphrase), salt, p.Time, p.MemoryKB, p.Threads, chacha20poly1305.KeySize)
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
