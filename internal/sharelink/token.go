package sharelink

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"vaultlink-go/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// tokenBytes is the entropy behind each share token. 24 random bytes encode
// to 32 url-safe characters; guessing one is infeasible, so holding the token
// is holding the capability.
const tokenBytes = 24

// GenerateToken mints a URL-safe share token from the system's secure random
// source. An entropy failure is returned as-is: link creation fails rather
// than falling back to anything weaker.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashPassword creates a bcrypt hash from a link password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword compares a supplied password with the stored hash
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueRequest carries the creation parameters for a new shared link.
type IssueRequest struct {
	FileID         int64
	UserID         *int64
	Password       string
	ExpiresAt      *time.Time
	MaxAccessCount *int
}

// Issuer mints tokens and registers new links. An expiry already in the past
// is accepted here and only enforced at access time, which tolerates clock
// skew between callers and this service.
type Issuer struct {
	repo Repository
}

func NewIssuer(repo Repository) *Issuer {
	return &Issuer{repo: repo}
}

// Issue creates and persists a new shared link for the given file.
func (i *Issuer) Issue(ctx context.Context, req *IssueRequest) (*models.SharedLink, error) {
	if req.MaxAccessCount != nil && *req.MaxAccessCount < 1 {
		return nil, ErrInvalidAccessLimit
	}

	token, err := i.uniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	link := &models.SharedLink{
		FileID:         req.FileID,
		UserID:         req.UserID,
		Token:          token,
		ExpiresAt:      req.ExpiresAt,
		MaxAccessCount: req.MaxAccessCount,
	}

	if req.Password != "" {
		hash, err := HashPassword(req.Password)
		if err != nil {
			return nil, fmt.Errorf("hashing link password: %w", err)
		}
		link.PasswordHash = &hash
	}

	if err := i.repo.Create(ctx, link); err != nil {
		return nil, fmt.Errorf("creating link: %w", err)
	}

	return link, nil
}

// uniqueToken retries a handful of times against the registry. With 24 bytes
// of entropy a collision effectively never happens; the loop exists so a
// duplicate stays an inconvenience instead of an insert error.
func (i *Issuer) uniqueToken(ctx context.Context) (string, error) {
	for attempts := 0; attempts < 3; attempts++ {
		token, err := GenerateToken()
		if err != nil {
			return "", err
		}

		exists, err := i.repo.TokenExists(ctx, token)
		if err != nil {
			return "", fmt.Errorf("checking token uniqueness: %w", err)
		}
		if !exists {
			return token, nil
		}
	}

	return "", fmt.Errorf("%w: exhausted uniqueness attempts", ErrTokenGeneration)
}
