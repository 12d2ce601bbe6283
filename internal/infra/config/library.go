package config

import (
	"fmt"
	"os"

	"github.com/laielli/vlmlabel/internal/domain/entity"
	"gopkg.in/yaml.v3"
)

type libraryFile struct {
	Videos []videoEntry `yaml:"videos"`
}

type videoEntry struct {
	ID                  string      `yaml:"id"`
	SourceVideo         string      `yaml:"source_video"`
	FPSVariants         []int       `yaml:"fps_variants"`
	Clips               []clipEntry `yaml:"clips"`
	CanonicalVariant    string      `yaml:"canonical_variant"`
	DefaultCanonicalFPS int         `yaml:"default_canonical_fps"`
}

type clipEntry struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	FPS   []int  `yaml:"fps"`
}

// LoadLibrary reads the video library YAML and returns fully validated
// typed configs. Malformed entries are rejected here, before any
// processing begins; nothing downstream re-validates.
func LoadLibrary(path string) ([]entity.VideoConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library %s: %w", path, err)
	}

	var file libraryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse library %s: %w", path, err)
	}
	if len(file.Videos) == 0 {
		return nil, entity.Validationf("no videos defined in %s", path)
	}

	seen := make(map[string]bool, len(file.Videos))
	configs := make([]entity.VideoConfig, 0, len(file.Videos))
	for _, v := range file.Videos {
		cfg := entity.VideoConfig{
			ID:                  v.ID,
			SourcePath:          v.SourceVideo,
			FPSVariants:         v.FPSVariants,
			CanonicalVariant:    v.CanonicalVariant,
			DefaultCanonicalFPS: v.DefaultCanonicalFPS,
		}
		for _, c := range v.Clips {
			cfg.Clips = append(cfg.Clips, entity.ClipConfig{
				Name:  c.Name,
				Start: c.Start,
				End:   c.End,
				FPS:   c.FPS,
			})
		}

		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if seen[cfg.ID] {
			return nil, entity.Validationf("duplicate video id %q", cfg.ID)
		}
		seen[cfg.ID] = true

		if err := checkReadable(cfg.SourcePath); err != nil {
			return nil, entity.Validationf("video %q: %v", cfg.ID, err)
		}

		configs = append(configs, cfg)
	}
	return configs, nil
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("source video not readable: %w", err)
	}
	return f.Close()
}
