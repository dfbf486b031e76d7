// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind_test

import (
	"bytes"
	"crypto"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/blind"
	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

/*
TestParseHash accepts the spellings clients send.
*/
func TestParseHash(t *testing.T) {
	tests := []struct {
		name string
		want crypto.Hash
		ok   bool
	}{
		{"Sha256", crypto.SHA256, true},
		{"Sha384", crypto.SHA384, true},
		{"SHA-512", crypto.SHA512, true},
		{"sha384", crypto.SHA384, true},
		{"Sha1", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := blind.ParseHash(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestOptions_Validate checks salt rules against a 2048-bit modulus (emLen 256).
*/
func TestOptions_Validate(t *testing.T) {
	publicKey := &testKeys(t)[0].PublicKey

	tests := []struct {
		name    string
		options blind.Options
		salt    int
		valid   bool
	}{
		{"default", blind.DefaultOptions(), 48, true},
		{"deterministic_no_salt", blind.Options{Hash: "Sha384", Deterministic: true}, 0, true},
		{"deterministic_zero_salt", blind.Options{Hash: "Sha256", Deterministic: true, SaltLength: pointer.To(0)}, 0, true},
		{"deterministic_with_salt", blind.Options{Hash: "Sha384", Deterministic: true, SaltLength: pointer.To(48)}, 0, false},
		{"randomized_without_salt", blind.Options{Hash: "Sha384"}, 0, false},
		{"randomized_negative_salt", blind.Options{Hash: "Sha384", SaltLength: pointer.To(-1)}, 0, false},
		{"largest_fitting_salt", blind.Options{Hash: "Sha512", SaltLength: pointer.To(190)}, 190, true},
		{"salt_too_large", blind.Options{Hash: "Sha512", SaltLength: pointer.To(191)}, 0, false},
		{"unknown_hash", blind.Options{Hash: "Md5", SaltLength: pointer.To(16)}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			salt, err := tt.options.Validate(publicKey)
			if !tt.valid {
				require.Error(t, err)
				assert.Equal(t, apperr.CodeProtocolError, apperr.As(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.salt, salt)
		})
	}
}

/*
TestDecodeMessage enforces encoding, length and range of the blinded message.
*/
func TestDecodeMessage(t *testing.T) {
	publicKey := &testKeys(t)[0].PublicKey
	size := publicKey.Size()

	valid := make([]byte, size)
	valid[size-1] = 7

	tests := []struct {
		name    string
		encoded string
		valid   bool
	}{
		{"valid", base64.RawURLEncoding.EncodeToString(valid), true},
		{"padded", base64.URLEncoding.EncodeToString(append(valid, 0)), false},
		{"standard_alphabet", "ab+/", false},
		{"short", base64.RawURLEncoding.EncodeToString(valid[1:]), false},
		{"not_below_modulus", base64.RawURLEncoding.EncodeToString(bytes.Repeat([]byte{0xff}, size)), false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, err := blind.DecodeMessage(tt.encoded, publicKey)
			if !tt.valid {
				require.Error(t, err)
				assert.Equal(t, apperr.CodeProtocolError, apperr.As(err).Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, valid, message)
		})
	}
}
