package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/rngsync/pkg/domain"
	"github.com/aretw0/rngsync/pkg/ports"
)

// EncryptedMarker is the SourcePeer of the single opaque entry that carries the ciphertext.
const EncryptedMarker = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt.
	// This enables key rotation without losing persisted history.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts the persisted history with AES-GCM.
// The theme stays readable; every entry is sealed into one opaque envelope entry.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, errors.New("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, key string, state domain.HistoryState) error {
	plainText, err := json.Marshal(state.Entries)
	if err != nil {
		return fmt.Errorf("failed to marshal entries: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt entries: %w", err)
	}

	envelope := domain.HistoryState{
		Theme: state.Theme,
		Entries: []domain.ResultEntry{{
			SourcePeer: EncryptedMarker,
			Context:    base64.StdEncoding.EncodeToString(ciphertext),
		}},
	}

	return m.next.Save(ctx, key, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, key string) (domain.HistoryState, error) {
	envelope, err := m.next.Load(ctx, key)
	if err != nil {
		return domain.HistoryState{}, err
	}

	// Fail secure: with encryption configured, plain history is not accepted.
	if len(envelope.Entries) != 1 || envelope.Entries[0].SourcePeer != EncryptedMarker {
		return domain.HistoryState{}, errors.New("state is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope.Entries[0].Context)
	if err != nil {
		return domain.HistoryState{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.HistoryState{}, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var entries []domain.ResultEntry
	if err := json.Unmarshal(plainText, &entries); err != nil {
		return domain.HistoryState{}, fmt.Errorf("failed to unmarshal decrypted entries: %w", err)
	}
	if entries == nil {
		entries = []domain.ResultEntry{}
	}

	return domain.HistoryState{Entries: entries, Theme: envelope.Theme}, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
