package background

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/denuncias/internal/storage"
)

// PhotoReferences lists the photo URLs still referenced by complaints
type PhotoReferences interface {
	PhotoURLs(ctx context.Context) ([]string, error)
}

// PhotoFiles is the on-disk side of the photo store
type PhotoFiles interface {
	List() ([]storage.StoredPhoto, error)
	Delete(url string) error
}

// CleanupManager periodically removes photo files that no complaint references.
// Files younger than the grace period are left alone so an upload whose
// complaint row is still being inserted is never removed.
type CleanupManager struct {
	refs     PhotoReferences
	files    PhotoFiles
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	refs PhotoReferences,
	files PhotoFiles,
	logger *slog.Logger,
	interval time.Duration,
	grace time.Duration,
) *CleanupManager {
	return &CleanupManager{
		refs:     refs,
		files:    files,
		logger:   logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the periodic cleanup task
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	// Run immediately on startup
	cm.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			cm.RunOnce(ctx)
		case <-cm.stopCh:
			cm.logger.Info("photo cleanup stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("photo cleanup context cancelled")
			return
		}
	}
}

// RunOnce removes orphaned photos and returns how many were deleted
func (cm *CleanupManager) RunOnce(ctx context.Context) int {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	urls, err := cm.refs.PhotoURLs(cleanupCtx)
	if err != nil {
		cm.logger.Error("failed to load photo references", slog.Any("error", err))
		return 0
	}

	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		referenced[u] = struct{}{}
	}

	photos, err := cm.files.List()
	if err != nil {
		cm.logger.Error("failed to list stored photos", slog.Any("error", err))
		return 0
	}

	cutoff := cm.now().Add(-cm.grace)
	removed := 0
	for _, p := range photos {
		if _, ok := referenced[p.URL]; ok || p.ModTime.After(cutoff) {
			continue
		}
		if err := cm.files.Delete(p.URL); err != nil {
			cm.logger.Warn("failed to delete orphaned photo",
				slog.String("url", p.URL),
				slog.Any("error", err),
			)
			continue
		}
		removed++
	}

	if removed > 0 {
		cm.logger.Info("orphaned photo cleanup completed", slog.Int("removed", removed))
	}

	return removed
}

// Stop signals the cleanup manager to stop
func (cm *CleanupManager) Stop() {
	close(cm.stopCh)
}
