package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"ridehail/internal/domain"
)

const partyContextKey = "party"

var (
	errMissingToken = errors.New("missing authorization token")
	errBadHeader    = errors.New("invalid authorization header")
)

// Claims carries the authenticated party. Subject is the party id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// SignToken issues an HS256 token for party.
func SignToken(secret string, party domain.Party, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: string(party.Type),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   party.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken validates a token and returns the party it names.
func ParseToken(secret, tokenString string) (domain.Party, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return domain.Party{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return domain.Party{}, jwt.ErrSignatureInvalid
	}
	partyType, ok := domain.ParsePartyType(claims.Role)
	if !ok {
		return domain.Party{}, errors.New("unknown role")
	}
	return domain.Party{ID: claims.Subject, Type: partyType}, nil
}

// AuthMiddleware requires a valid bearer token and stores the party in the context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		party, err := ParseToken(secret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(partyContextKey, party)
		c.Next()
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errBadHeader
	}
	return parts[1], nil
}

// SocketAuthenticator checks the bearer token of a websocket upgrade.
// Browsers cannot set headers on the handshake, so a token query parameter
// is accepted when the header is absent.
type SocketAuthenticator struct {
	Secret string
}

// Authenticate returns the party named by the request's token.
func (a SocketAuthenticator) Authenticate(r *http.Request) (domain.Party, error) {
	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); header != "" || token == "" {
		var err error
		if token, err = bearerToken(header); err != nil {
			return domain.Party{}, err
		}
	}
	return ParseToken(a.Secret, token)
}

// RequireRole rejects parties of any other type. It must run after AuthMiddleware.
func RequireRole(role domain.PartyType) gin.HandlerFunc {
	return func(c *gin.Context) {
		party, ok := PartyFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if party.Type != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "only a " + string(role) + " can do this"})
			return
		}
		c.Next()
	}
}

// PartyFromContext returns the party set by AuthMiddleware.
func PartyFromContext(c *gin.Context) (domain.Party, bool) {
	v, ok := c.Get(partyContextKey)
	if !ok {
		return domain.Party{}, false
	}
	party, ok := v.(domain.Party)
	return party, ok
}
