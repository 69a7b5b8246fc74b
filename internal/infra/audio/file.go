package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"capitals/internal/domain"
)

var audioExtensions = []string{".wav", ".mp3", ".m4a", ".webm"}

// FileSource watches a directory for dropped recordings and .txt questions.
// Each file is consumed once and renamed with a .processed suffix.
type FileSource struct {
	dir      string
	interval time.Duration
}

func NewFileSource(dir string) *FileSource {
	return &FileSource{
		dir:      dir,
		interval: 500 * time.Millisecond,
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Stop() error {
	return nil
}

func (f *FileSource) NextCommand(ctx context.Context) ([]byte, error) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if data, err := f.takeNext(); err != nil || data != nil {
			return data, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// takeNext consumes the oldest-named pending file, or returns nil.
func (f *FileSource) takeNext() ([]byte, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		isText := ext == ".txt"
		if !isText && !slices.Contains(audioExtensions, ext) {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading file %s: %w", path, err)
		}

		if err := os.Rename(path, path+".processed"); err != nil {
			return nil, fmt.Errorf("marking %s processed: %w", path, err)
		}

		if isText {
			return domain.TextCommand(strings.TrimSpace(string(data))), nil
		}
		return data, nil
	}

	return nil, nil
}
