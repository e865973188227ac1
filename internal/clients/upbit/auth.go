package upbit

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// signToken builds the bearer token for a private request.
// rawQuery is the unescaped parameter string; empty for requests without parameters.
func signToken(accessKey, secretKey, rawQuery string) (string, error) {
	claims := jwt.MapClaims{
		"access_key": accessKey,
		"nonce":      uuid.NewString(),
	}

	if rawQuery != "" {
		sum := sha512.Sum512([]byte(rawQuery))
		claims["query_hash"] = hex.EncodeToString(sum[:])
		claims["query_hash_alg"] = "SHA512"
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// rawQuery renders query the way it is sent, unescaped
func rawQuery(query url.Values) (string, error) {
	if len(query) == 0 {
		return "", nil
	}
	return url.QueryUnescape(query.Encode())
}

// bodyQuery renders order parameters in body field order
func bodyQuery(req orderRequest) string {
	parts := []string{"market=" + req.Market, "side=" + req.Side}
	if req.Volume != "" {
		parts = append(parts, "volume="+req.Volume)
	}
	if req.Price != "" {
		parts = append(parts, "price="+req.Price)
	}
	parts = append(parts, "ord_type="+req.OrdType)
	return strings.Join(parts, "&")
}
