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

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// envelopeKey is the answer under which a sealed session is stored.
const envelopeKey = "__encrypted__"

// sealVersion prefixes every sealed session.
const sealVersion byte = 1

var (
	ErrInvalidKey    = errors.New("encryption key must be 32 bytes (AES-256)")
	ErrNotEncrypted  = errors.New("session is not encrypted")
	ErrUndecryptable = errors.New("no key opens the session")
)

// EncryptionConfig lists the keys of an encrypting store.
type EncryptionConfig struct {
	// ActiveKey seals every saved session.
	ActiveKey []byte
	// FallbackKeys still open sessions sealed before a key rotation.
	FallbackKeys [][]byte
}

type keyring struct {
	active cipher.AEAD
	open   []cipher.AEAD
}

func newKeyring(config EncryptionConfig) (*keyring, error) {
	kr := &keyring{}
	for i, key := range append([][]byte{config.ActiveKey}, config.FallbackKeys...) {
		if len(key) != 32 {
			if i == 0 {
				return nil, ErrInvalidKey
			}
			return nil, fmt.Errorf("fallback key %d: %w", i-1, ErrInvalidKey)
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return nil, err
		}
		kr.open = append(kr.open, aead)
	}
	kr.active = kr.open[0]
	return kr, nil
}

// seal binds the ciphertext to sessionID, so a sealed session copied under another ID does not open.
func (kr *keyring) seal(sessionID string, plain []byte) ([]byte, error) {
	nonce := make([]byte, kr.active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := append([]byte{sealVersion}, nonce...)
	return kr.active.Seal(out, nonce, plain, []byte(sessionID)), nil
}

func (kr *keyring) unseal(sessionID string, sealed []byte) ([]byte, error) {
	if len(sealed) == 0 || sealed[0] != sealVersion {
		return nil, fmt.Errorf("%w: unknown format", ErrUndecryptable)
	}
	sealed = sealed[1:]
	for _, aead := range kr.open {
		n := aead.NonceSize()
		if len(sealed) < n {
			continue
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], []byte(sessionID)); err == nil {
			return plain, nil
		}
	}
	return nil, ErrUndecryptable
}

type encryptingStore struct {
	next ports.StateStore
	keys *keyring
}

// NewEncryptionMiddleware seals whole sessions with AES-256-GCM. The stored envelope keeps
// the session ID, funnel and status in clear so sessions can still be listed and inspected.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	keys, err := newKeyring(config)
	if err != nil {
		return nil, err
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptingStore{next: next, keys: keys}
	}, nil
}

func (s *encryptingStore) Save(ctx context.Context, sessionID string, state *domain.State) error {
	plain, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sessionID, err)
	}
	sealed, err := s.keys.seal(sessionID, plain)
	if err != nil {
		return fmt.Errorf("encrypt session %s: %w", sessionID, err)
	}

	envelope := &domain.State{
		SessionID: state.SessionID,
		FunnelID:  state.FunnelID,
		Status:    state.Status,
		Answers:   map[string]any{envelopeKey: base64.StdEncoding.EncodeToString(sealed)},
		Variables: map[string]any{},
		StartedAt: state.StartedAt,
	}
	return s.next.Save(ctx, sessionID, envelope)
}

// Load refuses sessions saved in clear.
func (s *encryptingStore) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	envelope, err := s.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	encoded, ok := envelope.Answers[envelopeKey].(string)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotEncrypted)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: %v", sessionID, ErrUndecryptable, err)
	}
	plain, err := s.keys.unseal(sessionID, sealed)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	state := &domain.State{}
	if err := json.Unmarshal(plain, state); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return state, nil
}

func (s *encryptingStore) Delete(ctx context.Context, sessionID string) error {
	return s.next.Delete(ctx, sessionID)
}

func (s *encryptingStore) List(ctx context.Context) ([]string, error) {
	return s.next.List(ctx)
}
