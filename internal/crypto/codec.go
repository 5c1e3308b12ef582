package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/chxru/sem5-webdev/internal/domain"
)

// Codec encodes structured documents to the opaque text stored in the
// patients.info and patients.bedtickets blob columns, and back. Implementations
// must be safe for concurrent use.
type Codec interface {
	Encode(v any) (string, error)
	Decode(blob string, v any) error
}

// AESCodec AES-GCM over the JSON form of the document. The sealed bytes
// (nonce || ciphertext) are base64-encoded so the column stays text, matching
// the existing schema.
type AESCodec struct {
	aead cipher.AEAD
}

// NewAESCodec builds a codec from a 16/24/32-byte key. Key material comes
// from config; rotation/versioning is out of scope here.
func NewAESCodec(key []byte) (*AESCodec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &AESCodec{aead: aead}, nil
}

func (c *AESCodec) Encode(v any) (string, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to create nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *AESCodec) Decode(blob string, v any) error {
	sealed, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return fmt.Errorf("blob is not base64: %w", domain.ErrCorruptDocument)
	}

	nonceSize := c.aead.NonceSize()
	if len(sealed) < nonceSize {
		return fmt.Errorf("blob shorter than nonce: %w", domain.ErrCorruptDocument)
	}

	nonce, ciphertext := sealed[:nonceSize], sealed[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", domain.ErrCorruptDocument)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", domain.ErrCorruptDocument)
	}
	return nil
}
