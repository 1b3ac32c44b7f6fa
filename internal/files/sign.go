package files

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid file token")

// URLClaims bind a file URL to one recipient: the file, the room session
// uid, the whiteboard object uid and the client connection uid. URLs are
// single-session-scoped, so every broadcast re-signs per recipient.
type URLClaims struct {
	jwt.RegisteredClaims
	FileID    int64  `json:"fid"`
	RoomUID   string `json:"ruid"`
	ObjectUID string `json:"wuid"`
	ClientUID string `json:"cuid"`
}

// Signer issues and verifies per-session file URLs.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret []byte, ttl time.Duration) *Signer {
	return &Signer{secret: secret, ttl: ttl}
}

// SignURL returns a relative URL for the file, valid for the signer's ttl
// and only for the given recipient.
func (s *Signer) SignURL(fileID int64, roomUID, objectUID, clientUID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, URLClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
		FileID:    fileID,
		RoomUID:   roomUID,
		ObjectUID: objectUID,
		ClientUID: clientUID,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/files/%d?token=%s", fileID, signed), nil
}

// Verify parses a token and returns its claims.
func (s *Signer) Verify(tokenString string) (*URLClaims, error) {
	claims := &URLClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
