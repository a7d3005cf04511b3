package core

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/zeebo/blake3"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// contentDigest returns the hex blake3 digest of data.
func contentDigest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fileDigest returns the digest of the file at p, or "" when it cannot be read.
func fileDigest(p string) string {
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	return contentDigest(data)
}

// exists reports whether p exists.
func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// ensureDir creates a directory if it does not exist. Returns true if created.
func ensureDir(p string) (bool, error) {
	if _, err := os.Stat(p); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(p, 0o755); err != nil {
		return false, err
	}
	return true, nil
}

// writeGenerated writes data to p unconditionally and applies mode
// explicitly, since os.WriteFile keeps the mode of an existing file.
// The returned action compares digests taken before and after.
func writeGenerated(p string, data []byte, mode os.FileMode) (string, string, error) {
	before := fileDigest(p)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", "", fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, data, mode); err != nil {
		return "", "", fmt.Errorf("writing %s: %w", p, err)
	}
	if err := os.Chmod(p, mode); err != nil {
		return "", "", fmt.Errorf("setting mode on %s: %w", p, err)
	}
	after := contentDigest(data)
	switch before {
	case "":
		return models.ActionCreated, after, nil
	case after:
		return models.ActionUnchanged, after, nil
	default:
		return models.ActionUpdated, after, nil
	}
}

// writeIfAbsent writes the output of contentFn to p only when p does not
// exist. It reports whether the file was created.
func writeIfAbsent(p string, contentFn func() ([]byte, error)) (bool, error) {
	if exists(p) {
		return false, nil
	}
	content, err := contentFn()
	if err != nil {
		return false, fmt.Errorf("generating content for %s: %w", p, err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return false, fmt.Errorf("creating %s: %w", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", p, err)
	}
	return true, nil
}

// removeIfPresent deletes p. A missing file is not an error.
func removeIfPresent(p string) (bool, error) {
	err := os.Remove(p)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("removing %s: %w", p, err)
	}
}

// mirrorDir copies the tree rooted at dir in src into dest, creating
// directories as needed and overwriting files. It stops at the first error.
// Files that are already byte-identical are left alone.
func mirrorDir(src fs.FS, dir, dest string) (int, error) {
	var copied int
	err := fs.WalkDir(src, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(filepath.FromSlash(dir), filepath.FromSlash(p))
		if relErr != nil {
			return relErr
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if existing, readErr := os.ReadFile(target); readErr == nil && bytes.Equal(existing, data) {
			copied++
			return nil
		}
		if err := os.WriteFile(target, data, sourceMode(src, p)); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("mirroring %s to %s: %w", dir, dest, err)
	}
	return copied, nil
}

// sourceMode keeps executable bits from the source when it carries any.
func sourceMode(src fs.FS, p string) os.FileMode {
	info, err := fs.Stat(src, p)
	if err != nil || info.Mode().Perm()&0o111 == 0 {
		return 0o644
	}
	return 0o755
}

// listFiles returns the names of regular files directly under dir in src
// whose extension is ext, sorted. A missing dir yields no names.
func listFiles(src fs.FS, dir, ext string) ([]string, error) {
	entries, err := fs.ReadDir(src, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ext {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
