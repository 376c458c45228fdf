package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
)

// Profile is the single persisted identity record of the device.
type Profile struct {
	Name           string         `json:"name"`
	WalletMaterial WalletMaterial `json:"walletMaterial"`
	OwnerID        string         `json:"ownerId,omitempty"`
	SponsorAddress string         `json:"sponsorAddress,omitempty"`
}

// WalletMaterial holds exactly one of a plaintext JWK (legacy profiles) or an
// encrypted blob. On the wire it is either the bare JWK object or
// {encryptedData, salt, iv}.
type WalletMaterial struct {
	Plain     *cryptox.JWK
	Encrypted *cryptox.EncryptedBlob
}

var ErrEmptyWalletMaterial = errors.New("wallet material is empty")

// IsEncrypted reports whether the material is an encrypted blob.
func (m WalletMaterial) IsEncrypted() bool { return m.Encrypted != nil }

func (m WalletMaterial) MarshalJSON() ([]byte, error) {
	switch {
	case m.Encrypted != nil:
		return json.Marshal(m.Encrypted)
	case m.Plain != nil:
		return json.Marshal(m.Plain)
	default:
		return nil, ErrEmptyWalletMaterial
	}
}

func (m *WalletMaterial) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return ErrEmptyWalletMaterial
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(b, &probe); err != nil {
		return err
	}

	*m = WalletMaterial{}
	if _, ok := probe["encryptedData"]; ok {
		var blob cryptox.EncryptedBlob
		if err := json.Unmarshal(b, &blob); err != nil {
			return err
		}
		m.Encrypted = &blob
		return nil
	}

	var jwk cryptox.JWK
	if err := json.Unmarshal(b, &jwk); err != nil {
		return err
	}
	m.Plain = &jwk
	return nil
}
