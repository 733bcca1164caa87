package utils

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// SigningKeyEnv holds a base64 Ed25519 seed (32 bytes) or full private key
// (64 bytes). The key is read at the point of use and never logged.
const SigningKeyEnv = "LICENSE_SIGNING_KEY"

// Token kinds.
const (
	TokenTypeLicense  = "license"
	TokenTypeRecovery = "recovery"
)

// License modes.
const (
	ModePermanent = "permanent"
	ModePeriodic  = "periodic"
)

type TokenHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
}

type TokenPayload struct {
	V    int    `json:"v"`
	Type string `json:"type"`
	DID  string `json:"did"`
	IAT  int64  `json:"iat"`
	Mode string `json:"mode,omitempty"`
	Exp  int64  `json:"exp,omitempty"`
	Note string `json:"note,omitempty"`
}

func signingKey() (ed25519.PrivateKey, error) {
	raw := os.Getenv(SigningKeyEnv)
	if raw == "" {
		return nil, &ConfigError{Msg: SigningKeyEnv + " is not set"}
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return nil, &ConfigError{Msg: SigningKeyEnv + " is not valid base64"}
	}
	switch len(decoded) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(decoded), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(decoded), nil
	default:
		return nil, &ConfigError{Msg: fmt.Sprintf("%s has invalid length %d", SigningKeyEnv, len(decoded))}
	}
}

// IssueLicense builds a signed license token. Permanent tokens carry no
// expiry field at all; periodic ones expire days from now.
func IssueLicense(deviceID, mode string, days int, note string) (string, error) {
	if mode != ModePermanent && mode != ModePeriodic {
		return "", fmt.Errorf("unknown license mode %q", mode)
	}
	payload := TokenPayload{
		V:    1,
		Type: TokenTypeLicense,
		DID:  deviceID,
		IAT:  time.Now().Unix(),
		Mode: mode,
		Note: note,
	}
	if mode == ModePeriodic {
		payload.Exp = time.Now().Add(time.Duration(days) * 24 * time.Hour).Unix()
	}
	return sign(payload)
}

// IssueRecovery builds a signed recovery token expiring minutes from now.
func IssueRecovery(deviceID string, minutes int, note string) (string, error) {
	payload := TokenPayload{
		V:    1,
		Type: TokenTypeRecovery,
		DID:  deviceID,
		IAT:  time.Now().Unix(),
		Exp:  time.Now().Add(time.Duration(minutes) * time.Minute).Unix(),
		Note: note,
	}
	return sign(payload)
}

func sign(payload TokenPayload) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	headerJSON, err := json.Marshal(TokenHeader{Alg: "Ed25519", Kid: "v1"})
	if err != nil {
		return "", err
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	signingInput := enc.EncodeToString(headerJSON) + "." + enc.EncodeToString(payloadJSON)
	signature := ed25519.Sign(key, []byte(signingInput))

	return signingInput + "." + enc.EncodeToString(signature), nil
}

// Decode splits and decodes a token without verifying its signature;
// verification lives in the consuming device-licensing system.
func Decode(token string) (TokenHeader, TokenPayload, []byte, error) {
	var header TokenHeader
	var payload TokenPayload

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return header, payload, nil, fmt.Errorf("token must have 3 segments, got %d", len(parts))
	}

	enc := base64.RawURLEncoding
	headerJSON, err := enc.DecodeString(parts[0])
	if err != nil {
		return header, payload, nil, fmt.Errorf("decode header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, payload, nil, fmt.Errorf("parse header: %w", err)
	}

	payloadJSON, err := enc.DecodeString(parts[1])
	if err != nil {
		return header, payload, nil, fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(payloadJSON, &payload); err != nil {
		return header, payload, nil, fmt.Errorf("parse payload: %w", err)
	}

	signature, err := enc.DecodeString(parts[2])
	if err != nil {
		return header, payload, nil, fmt.Errorf("decode signature: %w", err)
	}

	return header, payload, signature, nil
}
