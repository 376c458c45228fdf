package agentd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/turbouploader/internal/cryptox"
	"github.com/dmitrijs2005/turbouploader/internal/filex"
)

var generateJWK = cryptox.GenerateJWK

// LoadOrCreateKey reads the JWK at path, or generates one of the given size
// and writes it there with owner-only permissions.
func LoadOrCreateKey(path string, bits int) (*cryptox.JWK, bool, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var jwk cryptox.JWK
		if err := json.Unmarshal(data, &jwk); err != nil {
			return nil, false, fmt.Errorf("key file %s: %w", path, err)
		}
		if _, err := jwk.PrivateKey(); err != nil {
			return nil, false, fmt.Errorf("key file %s: %w", path, err)
		}
		return &jwk, false, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, false, fmt.Errorf("key file %s: %w", path, err)
	}

	jwk, err := generateJWK(bits)
	if err != nil {
		return nil, false, fmt.Errorf("generate key: %w", err)
	}
	out, err := json.Marshal(jwk)
	if err != nil {
		return nil, false, err
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, false, err
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return nil, false, fmt.Errorf("write key file: %w", err)
	}
	return jwk, true, nil
}
