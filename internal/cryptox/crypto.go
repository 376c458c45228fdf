// Package cryptox implements the wallet cryptography: passphrase-based
// encryption of keypairs (PBKDF2-SHA256 + AES-256-GCM), RSA keypairs in JWK
// form, address derivation and RSA-PSS signing.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/turbouploader/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// KDFIterations is the PBKDF2-HMAC-SHA256 work factor. Changing it breaks
	// every persisted profile.
	KDFIterations = 100_000
	// KeySize is the derived AES-256 key length.
	KeySize = 32
	// SaltSize is the length of the random PBKDF2 salt.
	SaltSize = 16
	// NonceSize is the AES-GCM IV length.
	NonceSize = 12
)

// EncryptedBlob is the persisted form of encrypted wallet material. Every
// field is standard base64. Salt and IV are fresh for every encryption.
type EncryptedBlob struct {
	EncryptedData string `json:"encryptedData"`
	Salt          string `json:"salt"`
	IV            string `json:"iv"`
}

// DeriveKey stretches passphrase with salt into a 256-bit AES key.
// The result is deterministic for identical inputs.
func DeriveKey(passphrase, salt []byte) []byte {
	return pbkdf2.Key(passphrase, salt, KDFIterations, KeySize, sha256.New)
}

// Encrypt seals plaintext under a key derived from passphrase with a fresh
// salt and IV. The ciphertext carries the GCM tag appended, matching the
// WebCrypto layout.
func Encrypt(plaintext, passphrase []byte) (*EncryptedBlob, error) {
	salt := common.GenerateRandByteArray(SaltSize)
	nonce := common.GenerateRandByteArray(NonceSize)

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	ciphertext := aesgcm.Seal(nil, nonce, plaintext, nil)

	return &EncryptedBlob{
		EncryptedData: base64.StdEncoding.EncodeToString(ciphertext),
		Salt:          base64.StdEncoding.EncodeToString(salt),
		IV:            base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt opens blob with a key derived from passphrase. A wrong passphrase
// and a malformed blob both yield common.ErrDecryption; the key derivation
// runs in either case so the two are not told apart by timing.
func Decrypt(blob *EncryptedBlob, passphrase []byte) ([]byte, error) {
	if blob == nil {
		return nil, common.NewError(common.KindDecryption, "no encrypted data", nil)
	}

	ciphertext, errData := base64.StdEncoding.DecodeString(blob.EncryptedData)
	salt, errSalt := base64.StdEncoding.DecodeString(blob.Salt)
	nonce, errIV := base64.StdEncoding.DecodeString(blob.IV)

	malformed := errData != nil || errSalt != nil || errIV != nil || len(nonce) != NonceSize
	if malformed {
		salt = make([]byte, SaltSize)
	}

	key := DeriveKey(passphrase, salt)
	defer common.WipeByteArray(key)

	if malformed {
		return nil, decryptionFailed()
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, decryptionFailed()
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, decryptionFailed()
	}
	return plaintext, nil
}

// EncryptJSON serializes v to JSON and encrypts it with Encrypt.
func EncryptJSON(v any, passphrase []byte) (*EncryptedBlob, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	defer common.WipeByteArray(plaintext)
	return Encrypt(plaintext, passphrase)
}

// DecryptJSON decrypts blob and unmarshals the plaintext into v.
func DecryptJSON(blob *EncryptedBlob, passphrase []byte, v any) error {
	plaintext, err := Decrypt(blob, passphrase)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	if err := json.Unmarshal(plaintext, v); err != nil {
		return decryptionFailed()
	}
	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, NonceSize)
}

func decryptionFailed() error {
	return common.NewError(common.KindDecryption, "wrong passphrase or corrupted wallet data", nil)
}
