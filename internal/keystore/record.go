package keystore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mrz1836/docsign/internal/constants"
	"github.com/mrz1836/docsign/internal/crypto"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/securestore"
)

// record is the persisted form shared by the file and redis backends.
type record struct {
	Version    int       `json:"version"`
	Identity   string    `json:"identity"`
	Algorithm  string    `json:"algorithm"`
	PublicKey  []byte    `json:"public_key"`
	PrivateKey []byte    `json:"private_key"`
	Sealed     bool      `json:"sealed,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type codec struct {
	sealer *securestore.Sealer
}

func (c codec) encode(identity domain.Identity, kp *Keypair) ([]byte, error) {
	rec := record{
		Version:    constants.KeyRecordVersion,
		Identity:   identity.String(),
		Algorithm:  kp.Algorithm,
		PublicKey:  kp.PublicKey,
		PrivateKey: kp.PrivateKey,
		CreatedAt:  kp.CreatedAt.UTC(),
	}
	if c.sealer != nil {
		sealed, err := c.sealer.Seal(kp.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("sealing private key: %w", err)
		}
		rec.PrivateKey = sealed
		rec.Sealed = true
	}
	return json.Marshal(rec)
}

// decode parses a stored record. A record that exists but cannot be read
// is a store failure, never absence.
func (c codec) decode(data []byte) (*record, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: corrupt key record: %w", dserrors.ErrKeyStoreUnavailable, err)
	}
	if rec.Version != constants.KeyRecordVersion {
		return nil, fmt.Errorf("%w: unsupported key record version %d", dserrors.ErrKeyStoreUnavailable, rec.Version)
	}
	if len(rec.PublicKey) == 0 || len(rec.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: key record is missing key material", dserrors.ErrKeyStoreUnavailable)
	}
	return &rec, nil
}

func (c codec) privateKey(rec *record) ([]byte, error) {
	if !rec.Sealed {
		return rec.PrivateKey, nil
	}
	if c.sealer == nil {
		return nil, fmt.Errorf("%w: key is encrypted and no passphrase is configured", dserrors.ErrKeyDecryptFailed)
	}
	return c.sealer.Open(rec.PrivateKey)
}

func (rec *record) entry() *Entry {
	return &Entry{
		Identity:  domain.Identity(rec.Identity),
		Algorithm: rec.Algorithm,
		PublicKey: rec.PublicKey,
		CreatedAt: rec.CreatedAt,
	}
}

// sign decodes the private key and signs digest with the record's algorithm.
func sign(algorithm string, privateKey []byte, digest domain.Digest) (domain.Signature, error) {
	alg, err := crypto.Lookup(algorithm)
	if err != nil {
		return nil, err
	}
	sig, err := alg.Sign(privateKey, digest.Bytes())
	if err != nil {
		return nil, err
	}
	return sig, nil
}

func (c codec) signRecord(rec *record, digest domain.Digest) (domain.Signature, error) {
	priv, err := c.privateKey(rec)
	if err != nil {
		return nil, err
	}
	return sign(rec.Algorithm, priv, digest)
}
