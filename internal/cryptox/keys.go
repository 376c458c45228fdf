package cryptox

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// DefaultKeyBits is the RSA modulus size used by storage-network wallets.
const DefaultKeyBits = 4096

const publicExponent = 65537

var b64 = base64.RawURLEncoding

// ErrInvalidKey is returned for JWKs that do not describe a usable RSA key.
var ErrInvalidKey = errors.New("invalid RSA JWK")

// JWK is an RSA private key in JSON Web Key form. All big integers are
// unpadded base64url, as produced by storage-network wallet tooling.
type JWK struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d,omitempty"`
	P   string `json:"p,omitempty"`
	Q   string `json:"q,omitempty"`
	Dp  string `json:"dp,omitempty"`
	Dq  string `json:"dq,omitempty"`
	Qi  string `json:"qi,omitempty"`
}

// GenerateJWK creates a fresh RSA keypair of the given size.
func GenerateJWK(bits int) (*JWK, error) {
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, err
	}
	return JWKFromPrivateKey(priv), nil
}

// JWKFromPrivateKey encodes priv as a JWK.
func JWKFromPrivateKey(priv *rsa.PrivateKey) *JWK {
	priv.Precompute()
	return &JWK{
		Kty: "RSA",
		N:   b64.EncodeToString(priv.N.Bytes()),
		E:   b64.EncodeToString(big.NewInt(int64(priv.E)).Bytes()),
		D:   b64.EncodeToString(priv.D.Bytes()),
		P:   b64.EncodeToString(priv.Primes[0].Bytes()),
		Q:   b64.EncodeToString(priv.Primes[1].Bytes()),
		Dp:  b64.EncodeToString(priv.Precomputed.Dp.Bytes()),
		Dq:  b64.EncodeToString(priv.Precomputed.Dq.Bytes()),
		Qi:  b64.EncodeToString(priv.Precomputed.Qinv.Bytes()),
	}
}

// PrivateKey decodes the JWK into a validated *rsa.PrivateKey.
func (k *JWK) PrivateKey() (*rsa.PrivateKey, error) {
	if k == nil || k.Kty != "RSA" {
		return nil, ErrInvalidKey
	}
	n, err := decodeInt(k.N)
	if err != nil {
		return nil, err
	}
	e, err := decodeInt(k.E)
	if err != nil {
		return nil, err
	}
	d, err := decodeInt(k.D)
	if err != nil {
		return nil, err
	}
	p, err := decodeInt(k.P)
	if err != nil {
		return nil, err
	}
	q, err := decodeInt(k.Q)
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() != publicExponent {
		return nil, fmt.Errorf("%w: unsupported exponent", ErrInvalidKey)
	}

	priv := &rsa.PrivateKey{
		PublicKey: rsa.PublicKey{N: n, E: int(e.Int64())},
		D:         d,
		Primes:    []*big.Int{p, q},
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	priv.Precompute()
	return priv, nil
}

// Owner returns the public modulus in base64url, the wallet's owner field.
func (k *JWK) Owner() string { return k.N }

// Address derives the wallet address from the JWK's public modulus.
func (k *JWK) Address() (string, error) {
	return AddressFromOwner(k.N)
}

// AddressFromOwner returns base64url(SHA-256(modulus)) for a base64url
// encoded modulus. The result is always 43 characters.
func AddressFromOwner(owner string) (string, error) {
	n, err := b64.DecodeString(owner)
	if err != nil || len(n) == 0 {
		return "", fmt.Errorf("%w: bad modulus", ErrInvalidKey)
	}
	sum := sha256.Sum256(n)
	return b64.EncodeToString(sum[:]), nil
}

// SignPSS signs a SHA-256 digest with RSA-PSS, salt length equal to the hash.
func SignPSS(priv *rsa.PrivateKey, digest []byte) ([]byte, error) {
	return rsa.SignPSS(rand.Reader, priv, crypto.SHA256, digest, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
}

// VerifyPSS checks a signature produced by SignPSS against a base64url owner.
func VerifyPSS(owner string, digest, signature []byte) error {
	n, err := b64.DecodeString(owner)
	if err != nil {
		return fmt.Errorf("%w: bad modulus", ErrInvalidKey)
	}
	pub := &rsa.PublicKey{N: new(big.Int).SetBytes(n), E: publicExponent}
	return rsa.VerifyPSS(pub, crypto.SHA256, digest, signature, &rsa.PSSOptions{
		SaltLength: rsa.PSSSaltLengthEqualsHash,
	})
}

// ItemID returns the content id of a signed item: base64url(SHA-256(sig)).
func ItemID(signature []byte) string {
	sum := sha256.Sum256(signature)
	return b64.EncodeToString(sum[:])
}

func decodeInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: missing component", ErrInvalidKey)
	}
	raw, err := b64.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return new(big.Int).SetBytes(raw), nil
}
