package feed

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSources reads the feed list file. A missing or malformed file is an
// error; the caller is expected to abort before any network activity.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	sources := make([]Source, 0, len(file.Feeds))
	for i, source := range file.Feeds {
		source.Name = strings.TrimSpace(source.Name)
		source.URL = strings.TrimSpace(source.URL)

		if source.URL == "" {
			return nil, fmt.Errorf("feed URL is required at index %d", i)
		}

		sources = append(sources, source)
		slog.Debug("Feed source loaded", "name", source.Name, "url", source.URL)
	}

	return sources, nil
}

// DisplayName resolves the name shown in posts: configured name, then the
// feed's declared title, then the URL.
func (s Source) DisplayName(declaredTitle string) string {
	if s.Name != "" {
		return s.Name
	}
	if title := strings.TrimSpace(declaredTitle); title != "" {
		return title
	}
	return s.URL
}
