package beatmapgen

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/okian/beatclash/internal/adapters/beatmapfile"
	"github.com/okian/beatclash/internal/domain/model"
	"github.com/okian/beatclash/pkg/logger"
)

// Records flattens events into beatmap file records.
func Records(events []model.Event) []beatmapfile.Record {
	out := make([]beatmapfile.Record, 0, len(events))
	for i := range events {
		out = append(out, beatmapfile.FromEvent(&events[i]))
	}
	return out
}

// DefaultPath names a fresh beatmap file inside dir.
func DefaultPath(dir string) string {
	return filepath.Join(dir, "beatmap-"+uuid.NewString()+".json")
}

// WriteFile generates a beatmap for cfg and writes it to path. An empty path
// writes a uniquely named file in the working directory. It returns the path
// written and the number of events.
func WriteFile(ctx context.Context, cfg Config, path string) (string, int, error) {
	events, err := Generate(ctx, cfg)
	if err != nil {
		return "", 0, err
	}
	if path == "" {
		path = DefaultPath(".")
	}
	if err := beatmapfile.WriteFile(path, Records(events)); err != nil {
		return "", 0, fmt.Errorf("write generated beatmap: %w", err)
	}
	logger.NamedOrNop("beatmapgen").Info(ctx, "beatmap written",
		logger.String("path", path),
		logger.Int("events", len(events)))
	return path, len(events), nil
}
