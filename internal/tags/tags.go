// Package tags reads embedded metadata from the original source file as a
// fallback when fingerprint lookup yields nothing. Tags describe the whole
// file, not a sub-segment, so callers decide how widely to apply the result.
package tags

import (
	"os"
	"strings"

	"github.com/dhowden/tag"
)

// Read returns the title and artist embedded in the file. The tag library
// already folds ID3v2 frames (TIT2/TPE1), MP4 atoms and Vorbis comments into
// generic accessors, which covers the structured-vs-generic key split. Any
// open or parse failure reads as "no tags".
func Read(path string) (title, artist string, ok bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", "", false
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return "", "", false
	}

	title = strings.TrimSpace(m.Title())
	artist = strings.TrimSpace(m.Artist())
	if title == "" {
		return "", "", false
	}
	return title, artist, true
}
