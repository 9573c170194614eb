package sharelink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vaultlink-go/internal/files"
	"vaultlink-go/internal/models"
	"vaultlink-go/internal/storage"
	"vaultlink-go/internal/stream"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// Service composes issuer, registry, gate and streamer into the link
// lifecycle operations. Every policy decision is derived fresh from the
// stored record; nothing about expiry or revocation is cached across
// requests.
type Service struct {
	repo     Repository
	files    files.Store
	provider storage.Provider
	issuer   *Issuer
	gate     *Gate
	streamer *stream.Streamer
	baseURL  string
}

func NewService(repo Repository, fileStore files.Store, provider storage.Provider, baseURL string) *Service {
	return &Service{
		repo:     repo,
		files:    fileStore,
		provider: provider,
		issuer:   NewIssuer(repo),
		gate:     NewGate(repo),
		streamer: stream.NewStreamer(provider),
		baseURL:  baseURL,
	}
}

// CreateLink validates that the file exists and mints a new share link for
// it. Both the metadata record and the stored bytes must be present; a link
// for a file that can never be served helps nobody. The requester identity,
// when present, is recorded for audit only.
func (s *Service) CreateLink(ctx context.Context, req *models.CreateLinkRequest, userID *int64) (*models.CreateLinkResponse, error) {
	file, err := s.files.GetByID(ctx, req.FileID)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			return nil, ErrFileMissing
		}
		return nil, fmt.Errorf("looking up file: %w", err)
	}

	exists, err := s.provider.Exists(ctx, file.StorageName)
	if err != nil {
		return nil, fmt.Errorf("checking stored bytes: %w", err)
	}
	if !exists {
		log.Warn().Int64("file_id", file.ID).Msg("file record without stored bytes")
		return nil, ErrFileMissing
	}

	link, err := s.issuer.Issue(ctx, &IssueRequest{
		FileID:         req.FileID,
		UserID:         userID,
		Password:       req.Password,
		ExpiresAt:      req.ExpiresAt,
		MaxAccessCount: req.MaxAccessCount,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("file_id", link.FileID).
		Bool("password_protected", link.HasPassword()).
		Msg("shared link created")

	return &models.CreateLinkResponse{
		Token: link.Token,
		URL:   s.shareURL(link.Token),
	}, nil
}

// GetLinkMetadata runs the access gate and, on allow, returns the public file
// attributes and the link's usage counters. Viewing metadata does not consume
// a use; only downloads and explicit access registrations do.
func (s *Service) GetLinkMetadata(ctx context.Context, token, password string) (*models.LinkMetadataResponse, error) {
	decision, err := s.gate.Check(ctx, token, password)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Reason.Err()
	}

	file, err := s.lookupFile(ctx, decision.Link)
	if err != nil {
		return nil, err
	}

	return &models.LinkMetadataResponse{
		File: models.FilePublic{
			Name:     file.OriginalName,
			MimeType: file.MimeType,
			Size:     file.FileSize,
		},
		Link: models.LinkUsage{
			Token:          decision.Link.Token,
			ExpiresAt:      decision.Link.ExpiresAt,
			MaxAccessCount: decision.Link.MaxAccessCount,
			AccessCount:    decision.Link.AccessCount,
			Revoked:        decision.Link.Revoked,
		},
	}, nil
}

// RegisterAccess consumes one use of the link without streaming anything, for
// clients that separate checking from consuming.
func (s *Service) RegisterAccess(ctx context.Context, token, password string) (*models.AccessResponse, error) {
	decision, err := s.gate.Check(ctx, token, password)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Reason.Err()
	}

	count, err := s.repo.IncrementAccess(ctx, token)
	if err != nil {
		return nil, err
	}

	resp := &models.AccessResponse{AccessCount: count}
	if decision.Link.MaxAccessCount != nil {
		remaining := *decision.Link.MaxAccessCount - count
		resp.Remaining = &remaining
	}
	return resp, nil
}

// Download gates the request, consumes exactly one use, and streams the file
// with range support. The increment happens before the first byte is
// written; a denial never reaches the streamer and never mutates state.
func (s *Service) Download(ctx context.Context, w http.ResponseWriter, token, password, rangeHeader string) error {
	decision, err := s.gate.Check(ctx, token, password)
	if err != nil {
		return err
	}
	if !decision.Allowed() {
		return decision.Reason.Err()
	}

	file, err := s.lookupFile(ctx, decision.Link)
	if err != nil {
		return err
	}

	count, err := s.repo.IncrementAccess(ctx, token)
	if err != nil {
		// Lost the race against a concurrent request consuming the
		// last use.
		return err
	}

	log.Debug().
		Int64("file_id", file.ID).
		Str("size", humanize.IBytes(uint64(file.FileSize))).
		Int("access_count", count).
		Msg("serving shared file")

	return s.streamer.Serve(ctx, w, &stream.ServeRequest{
		StorageName:  file.StorageName,
		OriginalName: file.OriginalName,
		MimeType:     file.MimeType,
		Size:         file.FileSize,
		RangeHeader:  rangeHeader,
	})
}

// ActiveLinkForFile returns the most recent live link for a file.
func (s *Service) ActiveLinkForFile(ctx context.Context, fileID int64) (*models.SharedLink, error) {
	return s.repo.GetActiveByFileID(ctx, fileID)
}

// Revoke permanently disables a link. Revoking an unknown or already-revoked
// token is a successful no-op so cleanup callers stay simple.
func (s *Service) Revoke(ctx context.Context, token string) error {
	return s.repo.Revoke(ctx, token)
}

// Delete removes a link record entirely. Idempotent like Revoke.
func (s *Service) Delete(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

// DeleteForFile removes every link pointing at a file, for the cascade when
// the external store deletes the file itself.
func (s *Service) DeleteForFile(ctx context.Context, fileID int64) (int64, error) {
	removed, err := s.repo.DeleteByFileID(ctx, fileID)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		log.Info().Int64("file_id", fileID).Int64("removed", removed).Msg("cascade-deleted links for file")
	}
	return removed, nil
}

// PurgeExpired deletes links whose expiry passed before the retention window.
// Links without an expiry are never touched; explicit revoke or delete is the
// only way to retire them.
func (s *Service) PurgeExpired(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.PurgeExpired(ctx, time.Now().Add(-retention))
}

func (s *Service) shareURL(token string) string {
	return fmt.Sprintf("%s/shared/%s", s.baseURL, token)
}

// lookupFile resolves the link's file record. A missing record while the link
// lives on is logged and reported as not-found; the storage path never leaks
// into the error.
func (s *Service) lookupFile(ctx context.Context, link *models.SharedLink) (*models.File, error) {
	file, err := s.files.GetByID(ctx, link.FileID)
	if err != nil {
		if errors.Is(err, files.ErrNotFound) {
			log.Warn().
				Int64("file_id", link.FileID).
				Int64("link_id", link.ID).
				Msg("link points at a missing file")
			return nil, ErrFileMissing
		}
		return nil, fmt.Errorf("looking up file: %w", err)
	}
	return file, nil
}
