package authz

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T) *JWTVerifier {
	t.Helper()
	v, err := NewJWTVerifier("test-proof-secret")
	require.NoError(t, err)
	return v
}

func TestNewJWTVerifier_RequiresSecret(t *testing.T) {
	_, err := NewJWTVerifier("")
	assert.Error(t, err)
}

func TestJWTVerifier_RoundTrip(t *testing.T) {
	v := newVerifier(t)

	proof, err := v.IssueProof("holder-1", "rcpt_1")
	require.NoError(t, err)

	holder, err := v.Check(context.Background(), proof, "rcpt_1")
	require.NoError(t, err)
	assert.Equal(t, "holder-1", holder)
}

func TestJWTVerifier_SubjectMismatch(t *testing.T) {
	v := newVerifier(t)

	proof, err := v.IssueProof("holder-1", "rcpt_1")
	require.NoError(t, err)

	_, err = v.Check(context.Background(), proof, "rcpt_other")
	assert.Error(t, err)
}

func TestJWTVerifier_MissingHolder(t *testing.T) {
	v := newVerifier(t)

	proof, err := v.IssueProof("", "rcpt_1")
	require.NoError(t, err)

	_, err = v.Check(context.Background(), proof, "rcpt_1")
	assert.Error(t, err)
}

func TestJWTVerifier_WrongSecretRejected(t *testing.T) {
	v := newVerifier(t)
	other, err := NewJWTVerifier("another-secret")
	require.NoError(t, err)

	proof, err := other.IssueProof("holder-1", "rcpt_1")
	require.NoError(t, err)

	_, err = v.Check(context.Background(), proof, "rcpt_1")
	assert.Error(t, err)
}

func TestJWTVerifier_ExpiredProofRejected(t *testing.T) {
	v := newVerifier(t)

	proof, err := v.IssueProof("holder-1", "rcpt_1", func(c *jwt.RegisteredClaims) {
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	})
	require.NoError(t, err)

	_, err = v.Check(context.Background(), proof, "rcpt_1")
	assert.Error(t, err)
}

func TestJWTVerifier_MalformedProofRejected(t *testing.T) {
	v := newVerifier(t)

	_, err := v.Check(context.Background(), "not.a.jwt", "rcpt_1")
	assert.Error(t, err)
}

func TestJWTVerifier_UnsignedAlgorithmRejected(t *testing.T) {
	v := newVerifier(t)

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":    "rcpt_1",
		"holder": "holder-1",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Check(context.Background(), unsigned, "rcpt_1")
	assert.Error(t, err)
}
