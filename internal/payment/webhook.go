package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MikeMC777/printshop-orders/internal/apperr"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw callback body.
const SignatureHeader = "X-Signature"

// Sign returns the signature a gateway sends for payload.
func Sign(secret, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// HandleCallback verifies a gateway callback and settles the attempt it names.
func (t *Tracker) HandleCallback(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if t.cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: payment callbacks are not configured", apperr.ErrForbidden)
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return nil, fmt.Errorf("%w: malformed callback signature", apperr.ErrForbidden)
	}
	want, _ := hex.DecodeString(Sign([]byte(t.cfg.WebhookSecret), payload))
	if !hmac.Equal(got, want) {
		return nil, fmt.Errorf("%w: callback signature mismatch", apperr.ErrForbidden)
	}

	var cb Callback
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cb); err != nil {
		return nil, apperr.Invalid("callback body: %v", err)
	}
	return t.Complete(ctx, cb.Token, cb.Succeeded)
}
