package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/logger"
)

const (
	dumpPattern  = "*.txt"
	doneSuffix   = ".done"
	failedSuffix = ".failed"
	maxFileBytes = 10 << 20
)

// DirInbox picks up dump files dropped into a directory and stores them as
// pending dumps. A picked-up file is renamed with a .done suffix.
type DirInbox struct {
	dir          string
	dumpRepo     repository.DumpRepository
	logger       logger.Logger
	pollInterval time.Duration
}

// NewDirInbox creates a new directory inbox
func NewDirInbox(dir string, dumpRepo repository.DumpRepository, logger logger.Logger, pollInterval time.Duration) (*DirInbox, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("inbox %s is not a directory", dir)
	}

	return &DirInbox{
		dir:          dir,
		dumpRepo:     dumpRepo,
		logger:       logger,
		pollInterval: pollInterval,
	}, nil
}

// FetchDumps stores every waiting file, oldest name first
func (s *DirInbox) FetchDumps(ctx context.Context) (int, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, dumpPattern))
	if err != nil {
		return 0, err
	}
	sort.Strings(paths)

	stored := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return stored, ctx.Err()
		}

		name := filepath.Base(path)
		info, err := os.Stat(path)
		if err != nil {
			s.logger.Warn("Failed to stat dump file", "file", name, "error", err)
			continue
		}
		if info.Size() > maxFileBytes {
			s.logger.Error("Dump file too large, moved aside", "file", name, "size", info.Size())
			s.rename(path, failedSuffix)
			continue
		}

		content, err := os.ReadFile(path)
		if err != nil {
			s.logger.Error("Failed to read dump file", "file", name, "error", err)
			continue
		}

		dump := entity.NewDump(entity.SourceInbox, name, string(content), info.ModTime())
		if err := s.dumpRepo.Save(ctx, dump); err != nil {
			s.logger.Error("Failed to save dump", "file", name, "error", err)
			continue
		}
		s.rename(path, doneSuffix)

		s.logger.Info("Dump picked up from inbox", "file", name, "dumpId", dump.ID, "bytes", len(content))
		stored++
	}

	return stored, nil
}

func (s *DirInbox) rename(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		s.logger.Error("Failed to rename dump file", "file", filepath.Base(path), "error", err)
	}
}

// StartPolling polls the directory until ctx is done
func (s *DirInbox) StartPolling(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Inbox polling stopped")
			return
		case <-ticker.C:
			if _, err := s.FetchDumps(ctx); err != nil {
				s.logger.Error("Error polling inbox", "dir", s.dir, "error", err)
			}
		}
	}
}
