package weights

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// EnsureVolume verifies the persistent volume exists and is writable by
// creating and removing a probe file. The symlink and model-load steps both
// depend on this; there is no retry, a bad volume fails startup.
func EnsureVolume(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("volume %s is not available: %w", path, err)
	}

	probe := filepath.Join(path, ".write-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("volume %s is not writable: %w", path, err)
	}
	if err := os.Remove(probe); err != nil {
		return fmt.Errorf("volume %s probe cleanup: %w", path, err)
	}
	return nil
}

// LinkCache redirects the engine's hardcoded cache directory to the volume
// via symlink, so downloads the engine performs itself persist across
// restarts. Idempotent: a symlink already pointing at target is left alone, a
// stale symlink is replaced. A real directory at cacheDir is only replaced
// when empty; anything else is an operator decision, not ours.
func LinkCache(cacheDir, target string) error {
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolve target %s: %w", target, err)
	}
	if err := os.MkdirAll(absTarget, 0o755); err != nil {
		return fmt.Errorf("create link target %s: %w", absTarget, err)
	}
	if err := os.MkdirAll(filepath.Dir(cacheDir), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", cacheDir, err)
	}

	info, err := os.Lstat(cacheDir)
	switch {
	case os.IsNotExist(err):
		// Fresh link below.
	case err != nil:
		return fmt.Errorf("inspect %s: %w", cacheDir, err)
	case info.Mode()&os.ModeSymlink != 0:
		current, err := os.Readlink(cacheDir)
		if err != nil {
			return fmt.Errorf("read existing symlink %s: %w", cacheDir, err)
		}
		if current == absTarget {
			slog.Debug("cache symlink already in place", "cache", cacheDir, "target", absTarget)
			return nil
		}
		if err := os.Remove(cacheDir); err != nil {
			return fmt.Errorf("replace stale symlink %s: %w", cacheDir, err)
		}
	case info.IsDir():
		entries, err := os.ReadDir(cacheDir)
		if err != nil {
			return fmt.Errorf("read %s: %w", cacheDir, err)
		}
		if len(entries) > 0 {
			return fmt.Errorf("cache directory %s exists and is not empty; move its contents to %s first", cacheDir, absTarget)
		}
		if err := os.Remove(cacheDir); err != nil {
			return fmt.Errorf("remove empty cache directory %s: %w", cacheDir, err)
		}
	default:
		return fmt.Errorf("cache path %s exists and is not a directory or symlink", cacheDir)
	}

	if err := os.Symlink(absTarget, cacheDir); err != nil {
		return fmt.Errorf("symlink %s -> %s: %w", cacheDir, absTarget, err)
	}
	slog.Info("cache symlink created", "cache", cacheDir, "target", absTarget)
	return nil
}
