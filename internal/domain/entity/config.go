package entity

import (
	"github.com/laielli/vlmlabel/internal/timecode"
)

// ClipConfig describes one time-bounded sub-range of a source video and the
// frame rates it should be rendered at. Start and End keep their original
// string form because ffmpeg consumes them verbatim; Validate checks they
// parse and are ordered.
type ClipConfig struct {
	Name  string
	Start string
	End   string
	FPS   []int
}

// VideoConfig is one entry of the video library: a source file plus the
// variants and clips to derive from it. It is immutable during a
// processing run.
type VideoConfig struct {
	ID                  string
	SourcePath          string
	FPSVariants         []int
	Clips               []ClipConfig
	CanonicalVariant    string
	DefaultCanonicalFPS int
}

// Validate checks the structural invariants of the config. Filesystem
// checks (source existence and readability) belong to the loader.
func (c VideoConfig) Validate() error {
	if c.ID == "" {
		return Validationf("video entry missing id")
	}
	if c.SourcePath == "" {
		return Validationf("video %q missing source path", c.ID)
	}
	if len(c.FPSVariants) == 0 && len(c.Clips) == 0 {
		return Validationf("video %q defines no variants and no clips", c.ID)
	}
	for _, fps := range c.FPSVariants {
		if fps <= 0 {
			return Validationf("video %q: fps variant must be positive, got %d", c.ID, fps)
		}
	}

	seen := make(map[string]bool, len(c.Clips))
	for _, clip := range c.Clips {
		if err := c.validateClip(clip, seen); err != nil {
			return err
		}
	}

	if c.CanonicalVariant != "" {
		key, err := ParseVariantKey(c.CanonicalVariant)
		if err != nil {
			return Validationf("video %q: canonical variant %q: %v", c.ID, c.CanonicalVariant, err)
		}
		if !c.hasVariant(key) {
			return Validationf("video %q: canonical variant %q is not a configured variant", c.ID, c.CanonicalVariant)
		}
	}
	return nil
}

func (c VideoConfig) validateClip(clip ClipConfig, seen map[string]bool) error {
	if clip.Name == "" {
		return Validationf("video %q: clip missing name", c.ID)
	}
	if clip.Name == ScopeFull {
		return Validationf("video %q: clip name %q is reserved", c.ID, clip.Name)
	}
	if seen[clip.Name] {
		return Validationf("video %q: duplicate clip name %q", c.ID, clip.Name)
	}
	seen[clip.Name] = true

	start, err := timecode.Parse(clip.Start)
	if err != nil {
		return Validationf("video %q: clip %q start: %v", c.ID, clip.Name, err)
	}
	end, err := timecode.Parse(clip.End)
	if err != nil {
		return Validationf("video %q: clip %q end: %v", c.ID, clip.Name, err)
	}
	if end <= start {
		return Validationf("video %q: clip %q end %s is not after start %s", c.ID, clip.Name, clip.End, clip.Start)
	}
	if len(clip.FPS) == 0 {
		return Validationf("video %q: clip %q defines no fps rates", c.ID, clip.Name)
	}
	for _, fps := range clip.FPS {
		if fps <= 0 {
			return Validationf("video %q: clip %q fps must be positive, got %d", c.ID, clip.Name, fps)
		}
	}
	return nil
}

func (c VideoConfig) hasVariant(key VariantKey) bool {
	for _, k := range c.ExpectedVariants() {
		if k == key {
			return true
		}
	}
	return false
}

// ExpectedVariants enumerates every VariantKey this config will produce,
// full-video variants first, then clip variants in declaration order.
func (c VideoConfig) ExpectedVariants() []VariantKey {
	keys := make([]VariantKey, 0, len(c.FPSVariants))
	for _, fps := range c.FPSVariants {
		keys = append(keys, FullVariant(fps))
	}
	for _, clip := range c.Clips {
		for _, fps := range clip.FPS {
			keys = append(keys, ClipVariant(clip.Name, fps))
		}
	}
	return keys
}
