package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const SignatureHeader = "Gateway-Signature"

var (
	ErrMissingSignature   = errors.New("missing signature header")
	ErrMalformedSignature = errors.New("malformed signature header")
	ErrSignatureExpired   = errors.New("signature timestamp outside tolerance")
	ErrSignatureMismatch  = errors.New("signature mismatch")
)

// Sign returns the hex HMAC-SHA256 of "<unix>.<body>".
func Sign(secret string, ts time.Time, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignatureHeaderValue formats "t=<unix>,v1=<hex>".
func SignatureHeaderValue(secret string, ts time.Time, body []byte) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), Sign(secret, ts, body))
}

// VerifySignature checks header against body. Any v1 entry may match, which
// lets the provider roll secrets.
func VerifySignature(header string, body []byte, secret string, tolerance time.Duration, now time.Time) error {
	if header == "" {
		return ErrMissingSignature
	}
	if secret == "" {
		return fmt.Errorf("webhook secret not configured: %w", ErrSignatureMismatch)
	}

	var (
		ts     int64
		hasTS  bool
		hashes []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return ErrMalformedSignature
		}
		switch key {
		case "t":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return ErrMalformedSignature
			}
			ts, hasTS = n, true
		case "v1":
			hashes = append(hashes, value)
		}
	}
	if !hasTS || len(hashes) == 0 {
		return ErrMalformedSignature
	}

	signedAt := time.Unix(ts, 0)
	if d := now.Sub(signedAt); d > tolerance || d < -tolerance {
		return ErrSignatureExpired
	}

	expected := []byte(Sign(secret, signedAt, body))
	for _, h := range hashes {
		if hmac.Equal(expected, []byte(h)) {
			return nil
		}
	}
	return ErrSignatureMismatch
}
