package weights

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Provisioner places every manifest file at its exact expected path under the
// weights directory. Sources, in order: already present on the volume, copied
// from a local seed directory, downloaded from the manifest URL (or its
// mirror override). Running it twice is a no-op.
type Provisioner struct {
	manifest   *Manifest
	weightsDir string
	seedDir    string
	dl         *downloader
}

// NewProvisioner creates a provisioner for the given weights directory.
// seedDir may be empty; progress controls download progress bars.
func NewProvisioner(manifest *Manifest, weightsDir, seedDir string, progress bool) *Provisioner {
	return &Provisioner{
		manifest:   manifest,
		weightsDir: weightsDir,
		seedDir:    seedDir,
		dl:         newDownloader(progress),
	}
}

// Sync brings the weights directory up to the manifest and verifies the
// result.
func (p *Provisioner) Sync(ctx context.Context) error {
	if err := os.MkdirAll(p.weightsDir, 0o755); err != nil {
		return fmt.Errorf("create weights directory %s: %w", p.weightsDir, err)
	}

	if err := p.copySeed(); err != nil {
		return err
	}

	for i := range p.manifest.Models {
		wf := &p.manifest.Models[i]
		dest := filepath.Join(p.weightsDir, filepath.FromSlash(wf.Path))

		if fileHasContent(dest) {
			slog.Debug("weight file present", "model", wf.Name, "path", dest)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("create directory for %s: %w", wf.Path, err)
		}

		url := wf.DownloadURL()
		slog.Info("downloading weight file", "model", wf.Name, "url", url)
		if err := p.dl.fetch(ctx, url, dest); err != nil {
			return fmt.Errorf("provision %s: %w", wf.Name, err)
		}
		slog.Info("weight file downloaded", "model", wf.Name, "path", dest)
	}

	return p.Verify()
}

// Verify checks that every manifest file exists at its exact path with
// nonzero size.
func (p *Provisioner) Verify() error {
	for i := range p.manifest.Models {
		wf := &p.manifest.Models[i]
		dest := filepath.Join(p.weightsDir, filepath.FromSlash(wf.Path))

		info, err := os.Stat(dest)
		if err != nil {
			return fmt.Errorf("weight file %s missing at %s: %w", wf.Name, dest, err)
		}
		if info.Size() == 0 {
			return fmt.Errorf("weight file %s at %s is empty", wf.Name, dest)
		}
	}
	return nil
}

// Missing returns the manifest entries not yet present on disk.
func (p *Provisioner) Missing() []WeightFile {
	var missing []WeightFile
	for i := range p.manifest.Models {
		wf := p.manifest.Models[i]
		if !fileHasContent(filepath.Join(p.weightsDir, filepath.FromSlash(wf.Path))) {
			missing = append(missing, wf)
		}
	}
	return missing
}

// copySeed copies weight files and subdirectories from the seed directory
// into the volume. Existing destination files are left alone, matching the
// never-mutated lifecycle of weight blobs.
func (p *Provisioner) copySeed() error {
	if p.seedDir == "" {
		return nil
	}
	if _, err := os.Stat(p.seedDir); os.IsNotExist(err) {
		return nil
	}

	err := filepath.Walk(p.seedDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(p.seedDir, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		if rel == "." {
			return nil
		}

		dest := filepath.Join(p.weightsDir, rel)
		if info.IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("create directory %s: %w", dest, err)
			}
			return nil
		}

		if fileHasContent(dest) {
			return nil
		}

		if err := copyFile(path, dest); err != nil {
			return err
		}
		slog.Info("weight file copied from seed", "src", path, "dest", dest)
		return nil
	})
	if err != nil {
		return fmt.Errorf("copy seed weights from %s: %w", p.seedDir, err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dest, err)
	}
	return nil
}

func fileHasContent(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Size() > 0
}
