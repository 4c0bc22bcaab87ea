package stubapi

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var errInvalidToken = errors.New("invalid token")

// sessionClaims matches the hosted API's token payload.
type sessionClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(username string) (string, error) {
	claims := sessionClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(s.now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// verifyToken returns the username a token was issued to.
func (s *Server) verifyToken(tokenString string) (string, error) {
	if tokenString == "" {
		return "", errInvalidToken
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if !token.Valid || claims.Username == "" {
		return "", errInvalidToken
	}
	return claims.Username, nil
}

// authorize resolves a token to an existing account. Callers hold s.mu.
func (s *Server) authorize(tokenString string) (*account, error) {
	username, err := s.verifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	acct, ok := s.accounts[username]
	if !ok {
		return nil, errInvalidToken
	}
	return acct, nil
}

func hashPassword(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
}

func checkPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
