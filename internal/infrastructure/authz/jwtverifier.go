// Package authz verifies holder proofs. The proof is a signed JWT issued at
// purchase time binding a holder identity to a receipt.
package authz

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	appauthz "sealpay/internal/application/coupon/authz"
)

// JWTVerifier validates HS256-signed holder proofs. The subject claim must
// match the coupon's receipt and the holder claim identifies who is acting.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("proof secret is required")
	}
	return &JWTVerifier{secret: []byte(secret)}, nil
}

var _ appauthz.Verifier = (*JWTVerifier)(nil)

type proofClaims struct {
	Holder string `json:"holder"`
	jwt.RegisteredClaims
}

func (v *JWTVerifier) Check(_ context.Context, holderProof, subjectID string) (string, error) {
	claims := &proofClaims{}
	token, err := jwt.ParseWithClaims(holderProof, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", fmt.Errorf("invalid holder proof: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid holder proof")
	}

	if claims.Subject != subjectID {
		return "", fmt.Errorf("proof subject does not match receipt")
	}
	if claims.Holder == "" {
		return "", fmt.Errorf("proof is missing holder identity")
	}
	return claims.Holder, nil
}

// IssueProof signs a holder proof for a receipt. Exists for dev tooling and
// tests; production proofs come from the purchase flow.
func (v *JWTVerifier) IssueProof(holder, subjectID string, opts ...func(*jwt.RegisteredClaims)) (string, error) {
	claims := proofClaims{
		Holder: holder,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: subjectID,
		},
	}
	for _, opt := range opts {
		opt(&claims.RegisteredClaims)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign holder proof: %w", err)
	}
	return signed, nil
}
