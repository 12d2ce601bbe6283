package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// ScopeFull is the variant scope covering the whole source video. Any other
// scope value names a configured clip.
const ScopeFull = "full"

// VariantKey identifies one derived rendition of a video: either the full
// video or a named clip, at a specific target frame rate. Its string form
// ("<scope>_<fps>") namespaces every artifact on disk; the structured form
// is used everywhere else.
type VariantKey struct {
	Scope string
	FPS   int
}

func FullVariant(fps int) VariantKey {
	return VariantKey{Scope: ScopeFull, FPS: fps}
}

func ClipVariant(clipName string, fps int) VariantKey {
	return VariantKey{Scope: clipName, FPS: fps}
}

func (k VariantKey) IsFull() bool {
	return k.Scope == ScopeFull
}

// String serializes the key in its on-disk form, e.g. "full_30" or
// "clip_001_10".
func (k VariantKey) String() string {
	return fmt.Sprintf("%s_%d", k.Scope, k.FPS)
}

// ParseVariantKey parses the on-disk form back into a structured key. The
// fps component is everything after the last underscore; clip names may
// themselves contain underscores.
func ParseVariantKey(s string) (VariantKey, error) {
	i := strings.LastIndex(s, "_")
	if i <= 0 || i == len(s)-1 {
		return VariantKey{}, fmt.Errorf("malformed variant key %q", s)
	}
	fps, err := strconv.Atoi(s[i+1:])
	if err != nil || fps <= 0 {
		return VariantKey{}, fmt.Errorf("malformed variant key %q: bad fps component", s)
	}
	return VariantKey{Scope: s[:i], FPS: fps}, nil
}
