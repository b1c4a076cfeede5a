package rpc

import (
	"errors"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"launchpad/crypto"
)

// authenticator resolves the caller of a mutating method from the subject of
// an HMAC signed bearer token.
type authenticator struct {
	secret    []byte
	issuer    string
	clockSkew time.Duration
}

func newAuthenticator(secret, issuer string) *authenticator {
	return &authenticator{
		secret:    []byte(strings.TrimSpace(secret)),
		issuer:    strings.TrimSpace(issuer),
		clockSkew: 2 * time.Minute,
	}
}

func (a *authenticator) caller(r *http.Request) ([20]byte, *RPCError) {
	if len(a.secret) == 0 {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "RPC authentication not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	claims, err := a.parseToken(tokenString)
	if err != nil {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "invalid token", Data: err.Error()}
	}
	subject, err := claims.GetSubject()
	if err != nil || strings.TrimSpace(subject) == "" {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "token subject required"}
	}
	addr, err := decodeAccount(subject)
	if err != nil {
		return [20]byte{}, &RPCError{Code: codeUnauthorized, Message: "token subject is not an account", Data: err.Error()}
	}
	return addr, nil
}

func (a *authenticator) parseToken(tokenString string) (jwt.MapClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithLeeway(a.clockSkew),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token invalid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("claims not map")
	}
	return claims, nil
}

// IssueToken signs a bearer token naming subject as the caller.
func IssueToken(secret, issuer string, subject [20]byte, ttl time.Duration) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("rpc: empty JWT secret")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   crypto.FormatAccount(subject),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	if issuer = strings.TrimSpace(issuer); issuer != "" {
		claims.Issuer = issuer
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}
