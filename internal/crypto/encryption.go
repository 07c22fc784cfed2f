package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	// ciphertextPrefix tags sealed values so legacy plaintext rows can be told apart
	ciphertextPrefix = "enc:v1:"
	masterKeySize    = 32
	keyInfo          = "llmdesk-secret-encryption"
)

// ErrNotCiphertext is returned by Decrypt for values that were never encrypted
var ErrNotCiphertext = errors.New("value is not ciphertext")

// EncryptionService seals stored secrets such as provider API keys.
// Every secret kind gets its own AES-256-GCM key, derived from one master key,
// so a value sealed for one purpose cannot be opened as another.
type EncryptionService struct {
	masterKey []byte
}

// NewEncryptionService parses a hex master key (64 hex chars).
func NewEncryptionService(masterKeyHex string) (*EncryptionService, error) {
	if masterKeyHex == "" {
		return nil, errors.New("master key is empty")
	}
	key, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("master key is not hex: %w", err)
	}
	if len(key) != masterKeySize {
		return nil, fmt.Errorf("master key has %d bytes, want %d", len(key), masterKeySize)
	}
	return &EncryptionService{masterKey: key}, nil
}

// DeriveKey returns the AES key for purpose.
func (e *EncryptionService) DeriveKey(purpose string) ([]byte, error) {
	if purpose == "" {
		return nil, errors.New("key purpose is empty")
	}
	key := make([]byte, masterKeySize)
	r := hkdf.New(sha256.New, e.masterKey, []byte(purpose), []byte(keyInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

func (e *EncryptionService) aead(purpose string) (cipher.AEAD, error) {
	key, err := e.DeriveKey(purpose)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return gcm, nil
}

// Encrypt seals plaintext as "enc:v1:" + base64(nonce || sealed).
// Empty input stays empty.
func (e *EncryptionService) Encrypt(purpose string, plaintext []byte) (string, error) {
	if len(plaintext) == 0 {
		return "", nil
	}
	gcm, err := e.aead(purpose)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return ciphertextPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt with the same purpose.
func (e *EncryptionService) Decrypt(purpose string, value string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	if !IsCiphertext(value) {
		return nil, ErrNotCiphertext
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, ciphertextPrefix))
	if err != nil {
		return nil, fmt.Errorf("ciphertext encoding: %w", err)
	}
	gcm, err := e.aead(purpose)
	if err != nil {
		return nil, err
	}
	n := gcm.NonceSize()
	if len(raw) < n+gcm.Overhead() {
		return nil, errors.New("ciphertext truncated")
	}
	plaintext, err := gcm.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("open %s secret: %w", purpose, err)
	}
	return plaintext, nil
}

func (e *EncryptionService) EncryptString(purpose, plaintext string) (string, error) {
	return e.Encrypt(purpose, []byte(plaintext))
}

func (e *EncryptionService) DecryptString(purpose, value string) (string, error) {
	b, err := e.Decrypt(purpose, value)
	return string(b), err
}

// IsCiphertext reports whether value carries the envelope prefix.
func IsCiphertext(value string) bool {
	return strings.HasPrefix(value, ciphertextPrefix)
}

// GenerateMasterKey returns a fresh random master key, hex encoded.
func GenerateMasterKey() (string, error) {
	key := make([]byte, masterKeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate master key: %w", err)
	}
	return hex.EncodeToString(key), nil
}
