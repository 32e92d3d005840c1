package downloader

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ComputeContentHash digests a skill's file set: the sorted relative file
// list plus file contents. Input order does not affect the result; any
// content change, added file or removed file does.
func ComputeContentHash(dir string, files []string) (string, error) {
	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	h := sha256.New()
	for _, file := range sorted {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(file)))
		if err != nil {
			return "", fmt.Errorf("failed to read %s for hashing: %w", file, err)
		}
		h.Write([]byte(file))
		h.Write([]byte{0})
		h.Write(data)
		h.Write([]byte{0})
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
