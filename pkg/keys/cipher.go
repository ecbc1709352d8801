// Package keys provides custodial wallet key generation and encryption.
// Private keys are encrypted at rest with AES-256-CBC and stored keyed by
// wallet address.
package keys

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// GeneratedWallet is a freshly created custodial wallet keypair.
type GeneratedWallet struct {
	Address       string // EIP-55 checksummed 0x address
	PrivateKeyHex string // 0x-prefixed 32-byte private key
}

// GenerateWallet creates a new random secp256k1 keypair.
func GenerateWallet() (*GeneratedWallet, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	return &GeneratedWallet{
		Address:       crypto.PubkeyToAddress(privateKey.PublicKey).Hex(),
		PrivateKeyHex: "0x" + hex.EncodeToString(crypto.FromECDSA(privateKey)),
	}, nil
}

// Cipher encrypts and decrypts custodial private keys with AES-256-CBC.
// Ciphertext is encoded as "iv_hex:ciphertext_hex" with a random 16-byte IV
// per encryption and PKCS#7 padding.
type Cipher struct {
	key []byte
}

// NewCipher builds a Cipher from deployment key material. The material is
// truncated or zero-padded to exactly 32 bytes.
func NewCipher(keyMaterial string) (*Cipher, error) {
	if keyMaterial == "" {
		return nil, fmt.Errorf("encryption key material is empty")
	}

	key := make([]byte, 32)
	copy(key, keyMaterial)

	return &Cipher{key: key}, nil
}

// Encrypt encrypts plaintext and returns the iv_hex:ciphertext_hex encoding.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt reverses Encrypt. It fails on malformed encodings rather than
// returning garbage plaintext.
func (c *Cipher) Decrypt(encoded string) ([]byte, error) {
	ivHex, ctHex, ok := strings.Cut(encoded, ":")
	if !ok {
		return nil, fmt.Errorf("invalid encrypted key format")
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, fmt.Errorf("invalid IV encoding: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("invalid IV length: got %d, want %d", len(iv), aes.BlockSize)
	}

	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil {
		return nil, fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("invalid ciphertext length: %d", len(ciphertext))
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, aes.BlockSize)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded data length: %d", len(data))
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-padLen], nil
}
