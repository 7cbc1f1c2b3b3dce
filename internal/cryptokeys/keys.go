// Package cryptokeys extrae el material criptográfico que Warp 10 persiste en
// su configuración al arrancar (warp.aes.token, warp.hash.app, warp.hash.token).
package cryptokeys

import (
	"encoding/hex"
	"fmt"
)

// Longitudes esperadas en caracteres hex.
const (
	AESTokenKeyLen     = 64 // 32 bytes
	SipHashAppKeyLen   = 32 // 16 bytes
	SipHashTokenKeyLen = 32 // 16 bytes
)

// CryptoKeySet es inmutable. Un campo vacío significa "ausente".
type CryptoKeySet struct {
	aesTokenKey     string
	sipHashAppKey   string
	sipHashTokenKey string
}

// New construye un set; pasar "" para una clave ausente.
func New(aesTokenKey, sipHashAppKey, sipHashTokenKey string) CryptoKeySet {
	return CryptoKeySet{
		aesTokenKey:     aesTokenKey,
		sipHashAppKey:   sipHashAppKey,
		sipHashTokenKey: sipHashTokenKey,
	}
}

// AESTokenKey devuelve la clave AES de tokens en hex.
func (k CryptoKeySet) AESTokenKey() (string, bool) {
	return k.aesTokenKey, k.aesTokenKey != ""
}

// SipHashAppKey devuelve la clave SipHash de aplicaciones en hex.
func (k CryptoKeySet) SipHashAppKey() (string, bool) {
	return k.sipHashAppKey, k.sipHashAppKey != ""
}

// SipHashTokenKey devuelve la clave SipHash de tokens en hex.
func (k CryptoKeySet) SipHashTokenKey() (string, bool) {
	return k.sipHashTokenKey, k.sipHashTokenKey != ""
}

// IsEmpty reporta si no se encontró ninguna clave.
func (k CryptoKeySet) IsEmpty() bool {
	return k == CryptoKeySet{}
}

// IsValid es true sii las tres claves están presentes con longitudes 64/32/32.
func (k CryptoKeySet) IsValid() bool {
	return len(k.aesTokenKey) == AESTokenKeyLen &&
		len(k.sipHashAppKey) == SipHashAppKeyLen &&
		len(k.sipHashTokenKey) == SipHashTokenKeyLen
}

// AESTokenKeyBytes decodifica la clave AES.
func (k CryptoKeySet) AESTokenKeyBytes() ([]byte, error) {
	return decode("warp.aes.token", k.aesTokenKey)
}

// SipHashAppKeyBytes decodifica la clave SipHash de aplicaciones.
func (k CryptoKeySet) SipHashAppKeyBytes() ([]byte, error) {
	return decode("warp.hash.app", k.sipHashAppKey)
}

// SipHashTokenKeyBytes decodifica la clave SipHash de tokens.
func (k CryptoKeySet) SipHashTokenKeyBytes() ([]byte, error) {
	return decode("warp.hash.token", k.sipHashTokenKey)
}

// String nunca imprime el material, solo las longitudes.
func (k CryptoKeySet) String() string {
	return fmt.Sprintf("CryptoKeySet{aesTokenKey=%s, sipHashAppKey=%s, sipHashTokenKey=%s}",
		redact(k.aesTokenKey), redact(k.sipHashAppKey), redact(k.sipHashTokenKey))
}

func redact(v string) string {
	if v == "" {
		return "<absent>"
	}
	return fmt.Sprintf("[REDACTED:%d chars]", len(v))
}

func decode(name, v string) ([]byte, error) {
	if v == "" {
		return nil, fmt.Errorf("%s: %w", name, ErrKeyAbsent)
	}
	b, err := hex.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return b, nil
}
