// Package encryption implements the XOR key-cycling obfuscation filter
// grounded on original_source/encryption.c. This is explicitly not a
// cryptographic cipher — it exists to make casual inspection of a
// compressed stream harder, nothing more. The reference implementation
// bridges compress-then-encrypt through a temporary file
// (compress_and_encrypt); this package's CompressAndEncrypt/
// DecryptAndDecompress instead pipe an in-memory buffer straight from the
// LZ77 codec into the XOR filter, per spec.md §9's redesign note
// eliminating the string-typed temp-file bridge.
package encryption

import (
	"bytes"
	"fmt"

	"github.com/wrenfield-io/filecompressor/internal/errs"
	"github.com/wrenfield-io/filecompressor/internal/lz77"
)

// Header is the fixed 9-byte ASCII marker prefixing every encrypted stream.
const Header = "ENCRYPTED"

// xorBuffer XORs every byte of buf against key, cycling the key modulo
// its length. Its own inverse, since XOR undoes itself.
func xorBuffer(buf []byte, key []byte) {
	for i := range buf {
		buf[i] ^= key[i%len(key)]
	}
}

// XORCycle returns a copy of data XORed against key, cycling key bytes
// modulo its length, without the ENCRYPTED framing header. Used by
// components (the progressive container's per-block encryption flag)
// that need the raw cipher without a second copy of the stream marker.
func XORCycle(data []byte, key []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	xorBuffer(out, key)
	return out
}

// Encrypt prepends the ENCRYPTED header and XORs plaintext with key,
// cycling key bytes modulo its length. An empty key is Config::Invalid.
func Encrypt(plaintext []byte, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("encryption: %w: empty key", errs.ConfigInvalid)
	}
	out := make([]byte, 0, len(Header)+len(plaintext))
	out = append(out, Header...)
	body := make([]byte, len(plaintext))
	copy(body, plaintext)
	xorBuffer(body, key)
	out = append(out, body...)
	return out, nil
}

// Decrypt verifies the ENCRYPTED header and reverses Encrypt's XOR.
func Decrypt(data []byte, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("encryption: %w: empty key", errs.ConfigInvalid)
	}
	if len(data) < len(Header) || string(data[:len(Header)]) != Header {
		return nil, errs.NewCorrupt("encryption.filter", fmt.Errorf("missing or invalid %q header", Header))
	}
	body := make([]byte, len(data)-len(Header))
	copy(body, data[len(Header):])
	xorBuffer(body, key)
	return body, nil
}

// CompressAndEncrypt runs the LZ77 codec into an in-memory buffer, then
// encrypts that buffer, matching the LZ77-Encrypted algorithm's combined
// compress_and_encrypt operation without ever touching the filesystem.
func CompressAndEncrypt(plaintext []byte, params lz77.Params, key []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(lz77.Compress(plaintext, params))
	return Encrypt(buf.Bytes(), key)
}

// DecryptAndDecompress reverses CompressAndEncrypt: decrypts the buffer,
// then runs it through the LZ77 decoder.
func DecryptAndDecompress(data []byte, key []byte) ([]byte, error) {
	decrypted, err := Decrypt(data, key)
	if err != nil {
		return nil, err
	}
	return lz77.Decompress(decrypted)
}
