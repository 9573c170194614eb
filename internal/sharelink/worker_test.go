package sharelink

import (
	"context"
	"testing"
	"time"

	"vaultlink-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeWorker(t *testing.T) {
	fx := setupService(t)
	ctx := context.Background()

	longGone := time.Now().Add(-48 * time.Hour)
	old, err := fx.service.CreateLink(ctx, &models.CreateLinkRequest{FileID: fx.file.ID, ExpiresAt: &longGone}, nil)
	require.NoError(t, err)
	kept, err := fx.service.CreateLink(ctx, &models.CreateLinkRequest{FileID: fx.file.ID}, nil)
	require.NoError(t, err)

	worker := NewPurgeWorker(fx.service, time.Hour, 24*time.Hour)
	worker.Start(ctx)
	defer worker.Stop()

	// Start runs one purge synchronously before the ticker takes over
	_, err = fx.repo.GetByToken(ctx, old.Token)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = fx.repo.GetByToken(ctx, kept.Token)
	assert.NoError(t, err)
}

func TestPurgeWorker_StopTwice(t *testing.T) {
	fx := setupService(t)

	worker := NewPurgeWorker(fx.service, time.Hour, 24*time.Hour)
	worker.Start(context.Background())

	worker.Stop()
	assert.NotPanics(t, func() { worker.Stop() })
}
