// Package auth handles SSH public key authentication and buyer identity.
package auth

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/crypto/ssh"
)

// ErrAllowlistNotFound is returned when the allowlist file doesn't exist.
var ErrAllowlistNotFound = errors.New("allowlist file not found")

// Allowlist is a set of authorized public keys.
type Allowlist struct {
	keys [][]byte
}

// LoadAllowlist reads an OpenSSH authorized_keys format file. It skips empty
// lines, comments and lines that do not parse.
func LoadAllowlist(path string) (*Allowlist, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAllowlistNotFound
		}
		return nil, err
	}
	defer file.Close()

	return ParseAllowlist(file)
}

// ParseAllowlist reads authorized_keys lines from r.
func ParseAllowlist(r io.Reader) (*Allowlist, error) {
	a := &Allowlist{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pubKey, _, _, _, err := ssh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			continue
		}
		a.keys = append(a.keys, pubKey.Marshal())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading allowlist: %w", err)
	}
	return a, nil
}

// Len returns the number of keys.
func (a *Allowlist) Len() int {
	return len(a.keys)
}

// Allowed checks if the given public key is in the allowlist.
func (a *Allowlist) Allowed(key ssh.PublicKey) bool {
	if a == nil || key == nil {
		return false
	}
	keyBytes := key.Marshal()
	for _, allowed := range a.keys {
		if bytes.Equal(keyBytes, allowed) {
			return true
		}
	}
	return false
}

// CreateEmptyAllowlist creates an empty allowlist file with a helpful comment.
func CreateEmptyAllowlist(path string) error {
	content := `# SSH Public Key Allowlist
# Add one public key per line in OpenSSH authorized_keys format.
# Example:
# ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIExample... user@host
`
	return os.WriteFile(path, []byte(content), 0o644)
}

// Scope returns the cart scope for a connecting key: its SHA256
// fingerprint, or fallback for keyless sessions.
func Scope(key ssh.PublicKey, fallback string) string {
	if key == nil {
		return fallback
	}
	return ssh.FingerprintSHA256(key)
}
