// Package vault implements authenticated symmetric encryption of provider
// credentials at rest (spec §4.1).
//
// Wire format: base64(salt || nonce || ciphertext || tag), AES-256-GCM
// with a per-encryption PBKDF2-HMAC-SHA256 derived session key. Grounded
// on original_source's encryption_service.py for the exact algorithm and
// layout; rewritten in the teacher's constructor+typed-error idiom.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/driftlog/aiops/types"
	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength    = 16
	nonceLength   = 12
	keyLength     = 32 // AES-256
	pbkdf2Iters   = 100_000
	minMasterLen  = 32
	minPlainLen   = 10
	previewChars  = 4
	maskShowStart = 4
	maskShowEnd   = 4
)

// KeyVault encrypts and decrypts provider credentials. The zero value is
// not usable; construct with New.
type KeyVault struct {
	masterSecret []byte
}

// New constructs a KeyVault from a process-wide master secret. The
// secret is not validated here — Encrypt/Decrypt refuse to operate on a
// too-short secret so construction never fails on an as-yet-unconfigured
// deployment.
func New(masterSecret string) *KeyVault {
	return &KeyVault{masterSecret: []byte(masterSecret)}
}

func (v *KeyVault) checkMasterSecret() *types.Error {
	if len(v.masterSecret) < minMasterLen {
		return types.NewError(types.ErrCryptoFailure, "master encryption key not configured or too short")
	}
	return nil
}

func (v *KeyVault) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(v.masterSecret, salt, pbkdf2Iters, keyLength, sha256.New)
}

// Encrypt authenticated-encrypts plaintext, returning a base64 blob of
// salt||nonce||ciphertext||tag. Each call uses a fresh random salt and
// nonce, so distinct calls on identical plaintext produce distinct blobs.
func (v *KeyVault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", types.NewError(types.ErrBadInput, "cannot encrypt empty value")
	}
	if err := v.checkMasterSecret(); err != nil {
		return "", err
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to generate salt").WithCause(err)
	}
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to generate nonce").WithCause(err)
	}

	key := v.deriveKey(salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to init cipher").WithCause(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to init gcm").WithCause(err)
	}

	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	out := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, ciphertext...)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. A mismatched tag, truncated blob, or
// unconfigured master secret fails with ErrCryptoFailure.
func (v *KeyVault) Decrypt(blob string) (string, error) {
	if blob == "" {
		return "", types.NewError(types.ErrBadInput, "cannot decrypt empty value")
	}
	if err := v.checkMasterSecret(); err != nil {
		return "", err
	}

	data, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "malformed ciphertext encoding").WithCause(err)
	}
	if len(data) < saltLength+nonceLength {
		return "", types.NewError(types.ErrCryptoFailure, "truncated ciphertext")
	}

	salt := data[:saltLength]
	nonce := data[saltLength : saltLength+nonceLength]
	ciphertext := data[saltLength+nonceLength:]

	key := v.deriveKey(salt)
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to init cipher").WithCause(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "failed to init gcm").WithCause(err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", types.NewError(types.ErrCryptoFailure, "decryption failed: invalid key or corrupted data").WithCause(err)
	}

	return string(plaintext), nil
}

// Preview returns a display-safe "…xxxx" form showing the last four
// characters of plaintext.
func Preview(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	if len(plaintext) <= previewChars {
		return strings.Repeat("*", len(plaintext))
	}
	return "…" + plaintext[len(plaintext)-previewChars:]
}

// MaskedForm returns a "sk-p…xxxx" form showing the first and last few
// characters of plaintext.
func MaskedForm(plaintext string) string {
	if plaintext == "" {
		return ""
	}
	if len(plaintext) <= maskShowStart+maskShowEnd {
		return strings.Repeat("*", len(plaintext))
	}
	return plaintext[:maskShowStart] + "…" + plaintext[len(plaintext)-maskShowEnd:]
}

// ValidateFormat checks a plaintext key against the per-provider
// prefix/length rules spec §4.1 defines, returning (ok, reason).
func ValidateFormat(provider types.Provider, plaintext string) (bool, string) {
	if len(plaintext) < minPlainLen {
		return false, "key is too short"
	}

	switch provider {
	case types.ProviderOpenAI:
		if !strings.HasPrefix(plaintext, "sk-") && !strings.HasPrefix(plaintext, "sk-proj-") {
			return false, "openai keys must start with sk- or sk-proj-"
		}
	case types.ProviderAnthropic:
		if !strings.HasPrefix(plaintext, "sk-ant-") {
			return false, "anthropic keys must start with sk-ant-"
		}
	case types.ProviderGemini:
		if len(plaintext) < 20 {
			return false, "gemini keys must be at least 20 characters"
		}
	case types.ProviderAzureOpenAI:
		if len(plaintext) < 20 {
			return false, "azure openai keys must be at least 20 characters"
		}
	default:
		return false, "unrecognized provider"
	}

	return true, ""
}
