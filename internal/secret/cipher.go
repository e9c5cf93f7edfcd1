// Package secret encrypts and decrypts passwords shared with the job producer.
//
// The format matches the producer's utility: the key is PBKDF2-SHA1 of the
// shared secret over a fixed salt, and a payload is
// base64(uint32le(len(iv)) || iv || AES-256-CBC(PKCS#7 plaintext)).
package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	salt       = "o6806642kbM7c5"
	iterations = 1000
	keyLen     = 32
)

var (
	ErrEmptySecret    = errors.New("shared secret is empty")
	ErrMalformedInput = errors.New("malformed ciphertext")
)

type Cipher struct {
	key []byte
}

func New(sharedSecret string) (*Cipher, error) {
	if sharedSecret == "" {
		return nil, ErrEmptySecret
	}
	return &Cipher{key: pbkdf2.Key([]byte(sharedSecret), []byte(salt), iterations, keyLen, sha1.New)}, nil
}

func (c *Cipher) Encrypt(plain string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}
	padded := pad([]byte(plain), aes.BlockSize)
	out := make([]byte, 4+len(iv)+len(padded))
	binary.LittleEndian.PutUint32(out, uint32(len(iv)))
	copy(out[4:], iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[4+len(iv):], padded)
	return base64.StdEncoding.EncodeToString(out), nil
}

func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if len(raw) < 4 {
		return "", fmt.Errorf("%w: too short", ErrMalformedInput)
	}
	ivLen := int(binary.LittleEndian.Uint32(raw))
	if ivLen != aes.BlockSize || len(raw) < 4+ivLen {
		return "", fmt.Errorf("%w: iv length %d", ErrMalformedInput, ivLen)
	}
	iv := raw[4 : 4+ivLen]
	body := raw[4+ivLen:]
	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d", ErrMalformedInput, len(body))
	}
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", err
	}
	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)
	unpadded, err := unpad(plain, aes.BlockSize)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pad(b []byte, size int) []byte {
	n := size - len(b)%size
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte, size int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > size || n > len(b) {
		return nil, fmt.Errorf("%w: bad padding", ErrMalformedInput)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: bad padding", ErrMalformedInput)
		}
	}
	return b[:len(b)-n], nil
}
