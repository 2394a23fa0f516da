// SPDX-FileCopyrightText: Copyright 2025 The Towns GitHub Bot Authors
// SPDX-License-Identifier: Apache-2.0

// Package crypto provides the symmetric encryption used for tokens at rest.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ivSize  = 12
	tagSize = 16
)

// ErrMalformedCiphertext is returned when stored ciphertext does not have
// the expected iv:tag:ciphertext shape.
var ErrMalformedCiphertext = errors.New("malformed ciphertext")

// Engine encrypts and decrypts token material with AES-256-GCM. The stored
// form is hex(iv):hex(tag):hex(ciphertext) with a fresh random IV per
// encryption.
type Engine interface {
	EncryptString(data string) (string, error)
	DecryptString(encData string) (string, error)
}

type engine struct {
	key [32]byte
}

// NewEngine derives the AES-256 key as SHA-256 of the configured secret.
// The secret must carry at least 32 bytes of entropy; config validation
// enforces that before this is called.
func NewEngine(secret string) Engine {
	return &engine{key: sha256.Sum256([]byte(secret))}
}

// EncryptString encrypts data and returns the hex-encoded iv:tag:ciphertext form.
func (e *engine) EncryptString(data string) (string, error) {
	gcm, err := e.newGCM(ivSize)
	if err != nil {
		return "", err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("unable to generate IV: %w", err)
	}

	// Seal appends the tag after the ciphertext; the stored form wants it
	// between the IV and the ciphertext.
	sealed := gcm.Seal(nil, iv, []byte(data), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptString decrypts the hex-encoded iv:tag:ciphertext form. Both
// 96-bit and 128-bit IVs are accepted.
func (e *engine) DecryptString(encData string) (string, error) {
	parts := strings.SplitN(encData, ":", 3)
	if len(parts) != 3 {
		return "", ErrMalformedCiphertext
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", ErrMalformedCiphertext
	}
	if (len(iv) != ivSize && len(iv) != 16) || len(tag) != tagSize {
		return "", ErrMalformedCiphertext
	}

	gcm, err := e.newGCM(len(iv))
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", fmt.Errorf("unable to decrypt: %w", err)
	}
	return string(plaintext), nil
}

func (e *engine) newGCM(nonceSize int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}
