package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/darkodi/urlshorten/internal/encoder"
	"github.com/darkodi/urlshorten/internal/logger"
	"github.com/darkodi/urlshorten/internal/model"
	"github.com/darkodi/urlshorten/internal/repository"
	"github.com/darkodi/urlshorten/internal/validator"
)

// Custom errors for the service layer
var (
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrEmptyURL          = errors.New("URL cannot be empty")
	ErrURLNotFound       = errors.New("short URL not found")
	ErrInvalidCode       = encoder.ErrInvalidCode
	ErrInvalidPage       = errors.New("page must be a positive integer")
	ErrReservedCollision = errors.New("allocated code collides with a reserved path")
	ErrStorage           = errors.New("storage error")
)

const (
	// PageSize is the number of URLs returned per List page.
	PageSize = 25

	defaultSecretLength       = 5
	secretAttemptsPerLength   = 10
	defaultMaxReservedRetries = 8
)

// reservedCodes are path segments the router claims for itself. An encoded
// ID equal to one of them can never be served as a redirect.
var reservedCodes = map[string]bool{
	"urls":   true,
	"health": true,
	".":      true,
	"..":     true,
}

// IsReserved reports whether code is claimed by the router.
func IsReserved(code string) bool {
	return reservedCodes[code]
}

// Store is the persistence the service needs for both URL tables.
type Store interface {
	CreateURL(ctx context.Context, url string) (uint64, error)
	GetURL(ctx context.Context, id uint64) (string, error)
	ListURLs(ctx context.Context, limit, offset int) ([]model.ShortURL, error)
	SecretExists(ctx context.Context, id string) (bool, error)
	CreateSecretURL(ctx context.Context, secret *model.SecretShortURL) error
	GetSecretURL(ctx context.Context, id string) (string, error)
}

// Cache is an optional read-through cache for Resolve.
type Cache interface {
	Get(ctx context.Context, code string) (string, bool, error)
	Set(ctx context.Context, code, url string) error
}

// Option configures a URLService.
type Option func(*URLService)

// WithCache enables the read-through cache.
func WithCache(c Cache) Option {
	return func(s *URLService) { s.cache = c }
}

// WithRandIndex replaces the source used to pick secret code symbols.
// randIndex must return a value in [0, n).
func WithRandIndex(randIndex func(n int) (int, error)) Option {
	return func(s *URLService) { s.randIndex = randIndex }
}

// WithMaxReservedRetries bounds the inserts made for one public code.
func WithMaxReservedRetries(n int) Option {
	return func(s *URLService) { s.maxReservedRetries = n }
}

// URLService handles business logic for URL operations
type URLService struct {
	repo               Store
	cache              Cache
	log                *logger.Logger
	randIndex          func(n int) (int, error)
	secretLength       int
	maxReservedRetries int
}

// NewURLService creates a new service instance
func NewURLService(repo Store, log *logger.Logger, opts ...Option) *URLService {
	s := &URLService{
		repo:               repo,
		log:                log,
		randIndex:          cryptoRandIndex,
		secretLength:       defaultSecretLength,
		maxReservedRetries: defaultMaxReservedRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateShortURL validates the request and allocates a public or secret code.
func (s *URLService) CreateShortURL(ctx context.Context, req model.CreateURLRequest) (string, error) {
	if strings.TrimSpace(req.URL) == "" {
		return "", ErrEmptyURL
	}
	if !validator.IsValidURL(req.URL) {
		return "", ErrInvalidURL
	}

	if req.Secret {
		return s.ShortenSecret(ctx, req.URL)
	}
	return s.Shorten(ctx, req.URL)
}

// Shorten stores url under the next sequential ID and returns its code.
// Allocations that encode to a reserved code are discarded and the whole
// insert is repeated; the discarded row stays in the store.
func (s *URLService) Shorten(ctx context.Context, url string) (string, error) {
	for attempt := 1; attempt <= s.maxReservedRetries; attempt++ {
		code, err := s.allocateSequential(ctx, url)
		if errors.Is(err, ErrReservedCollision) {
			s.log.Debug("discarding reserved code", "code", code, "attempt", attempt)
			continue
		}
		if err != nil {
			return "", err
		}
		return code, nil
	}
	return "", fmt.Errorf("%w: %w after %d attempts", ErrStorage, ErrReservedCollision, s.maxReservedRetries)
}

func (s *URLService) allocateSequential(ctx context.Context, url string) (string, error) {
	id, err := s.repo.CreateURL(ctx, url)
	if err != nil {
		return "", storageError("create url", err)
	}

	code := encoder.Encode(id)
	if IsReserved(code) {
		return code, ErrReservedCollision
	}
	return code, nil
}

// ShortenSecret stores url under a random code prefixed with
// model.SecretPrefix. The code starts at five symbols; every ten consecutive
// collisions widen it by one symbol. The loop has no upper bound: the
// collision probability shrinks by a factor of the alphabet size per
// widening, so it ends unless the store keeps reporting every candidate taken.
func (s *URLService) ShortenSecret(ctx context.Context, url string) (string, error) {
	length := s.secretLength
	attempts := 0

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if attempts == secretAttemptsPerLength {
			length++
			attempts = 0
			s.log.Debug("widening secret code", "length", length)
		}
		attempts++

		code, err := s.secretCandidate(length)
		if err != nil {
			return "", fmt.Errorf("generate secret code: %w", err)
		}

		exists, err := s.repo.SecretExists(ctx, code)
		if err != nil {
			return "", storageError("check secret", err)
		}
		if exists {
			continue
		}

		err = s.repo.CreateSecretURL(ctx, &model.SecretShortURL{ID: code, URL: url})
		if errors.Is(err, repository.ErrDuplicate) {
			// taken by a concurrent allocation since the existence check
			continue
		}
		if err != nil {
			return "", storageError("create secret", err)
		}
		return code, nil
	}
}

func (s *URLService) secretCandidate(length int) (string, error) {
	var sb strings.Builder
	sb.Grow(len(model.SecretPrefix) + length)
	sb.WriteString(model.SecretPrefix)
	for i := 0; i < length; i++ {
		idx, err := s.randIndex(encoder.Base())
		if err != nil {
			return "", err
		}
		sb.WriteByte(encoder.Symbol(idx))
	}
	return sb.String(), nil
}

// Resolve finds the original URL for a public or secret code.
func (s *URLService) Resolve(ctx context.Context, code string) (string, error) {
	if s.cache != nil {
		url, ok, err := s.cache.Get(ctx, code)
		if err != nil {
			s.log.Warn("cache get failed", "code", code, "error", err.Error())
		} else if ok {
			return url, nil
		}
	}

	url, err := s.lookup(ctx, code)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, code, url); err != nil {
			s.log.Warn("cache set failed", "code", code, "error", err.Error())
		}
	}
	return url, nil
}

func (s *URLService) lookup(ctx context.Context, code string) (string, error) {
	var (
		url string
		err error
	)

	if strings.HasPrefix(code, model.SecretPrefix) {
		url, err = s.repo.GetSecretURL(ctx, code)
	} else {
		id, decodeErr := encoder.Decode(code)
		if decodeErr != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
		url, err = s.repo.GetURL(ctx, id)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrURLNotFound
	}
	if err != nil {
		return "", storageError("get url", err)
	}
	return url, nil
}

// List returns one page of public URLs, newest first. Pages start at 1.
func (s *URLService) List(ctx context.Context, page int) ([]model.ShortURLEntry, error) {
	if page < 1 {
		return nil, ErrInvalidPage
	}

	urls, err := s.repo.ListURLs(ctx, PageSize, PageSize*(page-1))
	if err != nil {
		return nil, storageError("list urls", err)
	}

	entries := make([]model.ShortURLEntry, 0, len(urls))
	for _, u := range urls {
		entries = append(entries, model.ShortURLEntry{
			Code: encoder.Encode(u.ID),
			URL:  u.URL,
		})
	}
	return entries, nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func cryptoRandIndex(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
