package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// algorithm to change without colliding with stored hashes.
const (
	DomainAsset = "comboseq/asset/v1"
	DomainCalls = "comboseq/calls/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// AssetHash identifies a compiled asset by content. Recorded sessions carry
// it so replay can refuse an asset that changed since recording.
func AssetHash(a *Asset) (string, error) {
	canonical, err := MarshalCanonical(a)
	if err != nil {
		return "", fmt.Errorf("AssetHash: %w", err)
	}
	return hashWithDomain(DomainAsset, canonical), nil
}

// CallsDigest hashes one frame's emitted calls in order.
func CallsDigest(calls []EventCall) (string, error) {
	if calls == nil {
		calls = []EventCall{}
	}
	canonical, err := MarshalCanonical(calls)
	if err != nil {
		return "", fmt.Errorf("CallsDigest: %w", err)
	}
	return hashWithDomain(DomainCalls, canonical), nil
}
