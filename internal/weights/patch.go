package weights

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
)

// ApplyPatch replaces every occurrence of oldURL with newURL inside the file
// at path. A missing file is skipped without error, matching the conditional
// build step it replaces. A second run is a no-op because the old substring
// is no longer present. Returns whether the file was modified.
func ApplyPatch(path, oldURL, newURL string) (bool, error) {
	if path == "" {
		return false, nil
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		slog.Debug("patch target missing, skipping", "path", path)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read patch target %s: %w", path, err)
	}

	if !bytes.Contains(raw, []byte(oldURL)) {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat patch target %s: %w", path, err)
	}

	patched := bytes.ReplaceAll(raw, []byte(oldURL), []byte(newURL))
	if err := os.WriteFile(path, patched, info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write patch target %s: %w", path, err)
	}

	slog.Info("patched download URL", "path", path, "new_url", newURL)
	return true, nil
}
