package crypto

import (
	"crypto/x509"
	"fmt"
	"sort"
	"strings"

	"github.com/mrz1836/docsign/internal/crypto/native"
	"github.com/mrz1836/docsign/internal/crypto/rsasig"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = native.Name

//nolint:gochecknoglobals // Fixed, read-only registry of supported schemes
var algorithms = map[string]Algorithm{
	native.Name: native.New(),
	rsasig.Name: rsasig.New(rsasig.DefaultBits),
}

// Lookup returns the algorithm registered under name (case-insensitive).
func Lookup(name string) (Algorithm, error) {
	alg, ok := algorithms[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", dserrors.ErrUnsupportedAlgorithm, name, strings.Join(Names(), ", "))
	}
	return alg, nil
}

// Names returns the registered algorithm names in sorted order.
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParsePublicKey decodes PKIX DER bytes. Any decoding failure is ErrInvalidKeyFormat.
func ParsePublicKey(der domain.PublicKey) (any, error) {
	if len(der) == 0 {
		return nil, fmt.Errorf("%w: empty public key", dserrors.ErrInvalidKeyFormat)
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", dserrors.ErrInvalidKeyFormat, err)
	}
	return key, nil
}

// AlgorithmFor returns the scheme that owns a parsed public key.
func AlgorithmFor(publicKey any) (Algorithm, error) {
	for _, name := range Names() {
		if alg := algorithms[name]; alg.Owns(publicKey) {
			return alg, nil
		}
	}
	return nil, fmt.Errorf("%w: %w: key type %T", dserrors.ErrInvalidKeyFormat, dserrors.ErrUnsupportedAlgorithm, publicKey)
}

// Verify checks signature over digest with PKIX DER public key bytes.
// It never returns an error for a mismatch; errors mean malformed input
// (ErrInvalidKeyFormat or ErrInvalidSignatureFormat).
func Verify(publicKey domain.PublicKey, digest domain.Digest, signature domain.Signature) (bool, error) {
	key, err := ParsePublicKey(publicKey)
	if err != nil {
		return false, err
	}
	alg, err := AlgorithmFor(key)
	if err != nil {
		return false, err
	}
	if len(signature) == 0 {
		return false, fmt.Errorf("%w: empty signature", dserrors.ErrInvalidSignatureFormat)
	}
	return alg.Verify(key, digest.Bytes(), signature)
}
