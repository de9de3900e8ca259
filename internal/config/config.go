package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Volume   VolumeConfig
	Engine   EngineConfig
	Database DatabaseConfig
	Weights  WeightsConfig
	Match    MatchConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port     int    // TCP port the HTTP server binds to (default 8000)
	Host     string // bind address (default 0.0.0.0)
	APIToken string // bearer token for protected endpoints; empty disables auth
}

// VolumeConfig describes the persistent volume that survives container
// restarts. Model weights and user images both live under it.
type VolumeConfig struct {
	Path string
}

// ImagesDir returns the directory for stored user images.
func (v *VolumeConfig) ImagesDir() string {
	return filepath.Join(v.Path, "images")
}

// ModelsDir returns the engine home directory on the volume. The engine's
// cache path is symlinked here so its downloads persist across restarts.
func (v *VolumeConfig) ModelsDir() string {
	return filepath.Join(v.Path, "models", "deepface")
}

// WeightsDir returns the directory where weight files must reside. The layout
// below it is a hardcoded convention of the face engine, not ours.
func (v *VolumeConfig) WeightsDir() string {
	return filepath.Join(v.ModelsDir(), "weights")
}

type EngineConfig struct {
	URL          string // base URL of the face engine sidecar
	CacheDir     string // the engine's hardcoded cache path (symlinked to the volume)
	EmbeddingDim int    // dimension of face embeddings (512 for Facenet512)
}

type DatabaseConfig struct {
	Driver       string // "postgres" or "mysql"
	URL          string // connection URL / DSN
	MaxOpenConns int
	MaxIdleConns int
}

type WeightsConfig struct {
	SeedDir      string // local directory with pre-downloaded weights, copied to the volume on startup
	ManifestPath string // optional external manifest overriding the embedded one
	Patch        PatchConfig
}

// PatchConfig configures the URL substitution applied to the engine's
// installed source. The old hardcoded Drive link is dead; we point it at a
// release mirror instead. Empty File disables the step.
type PatchConfig struct {
	File   string
	OldURL string
	NewURL string
}

type MatchConfig struct {
	// Threshold is the maximum cosine distance between two face embeddings
	// for them to count as the same person.
	Threshold float64
}

type LogConfig struct {
	Level string // debug, info, warn, error
	File  string // optional log file (rotated); empty logs to stderr only
}

const (
	defaultPort         = 8000
	defaultVolumePath   = "uploads"
	defaultEngineURL    = "http://localhost:5000"
	defaultEmbeddingDim = 512
	defaultThreshold    = 0.33
	defaultSeedDir      = "models/weights"

	// The retinaface package ships with a Google Drive link that no longer
	// serves the file. The mirror hosts the identical blob.
	defaultPatchOldURL = "https://drive.google.com/uc?id=1oZRSG0ZegbVkVwUd8wUIQx8W7yfZ_ki1"
	defaultPatchNewURL = "https://github.com/serengil/deepface_models/releases/download/v1.0/retinaface.h5"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envStr reads an environment variable with a fallback default.
func envStr(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     envInt("PORT", defaultPort),
			Host:     envStr("HOST", "0.0.0.0"),
			APIToken: os.Getenv("API_TOKEN"),
		},
		Volume: VolumeConfig{
			Path: envStr("VOLUME_PATH", defaultVolumePath),
		},
		Engine: EngineConfig{
			URL:          envStr("ENGINE_URL", defaultEngineURL),
			CacheDir:     os.Getenv("ENGINE_CACHE_DIR"),
			EmbeddingDim: envInt("ENGINE_EMBEDDING_DIM", defaultEmbeddingDim),
		},
		Database: DatabaseConfig{
			Driver:       envStr("DATABASE_DRIVER", "postgres"),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Weights: WeightsConfig{
			SeedDir:      envStr("WEIGHTS_SEED_DIR", defaultSeedDir),
			ManifestPath: os.Getenv("WEIGHTS_MANIFEST"),
			Patch: PatchConfig{
				File:   os.Getenv("PATCH_FILE"),
				OldURL: envStr("PATCH_OLD_URL", defaultPatchOldURL),
				NewURL: envStr("PATCH_NEW_URL", defaultPatchNewURL),
			},
		},
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", defaultThreshold),
		},
		Log: LogConfig{
			Level: envStr("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
	}
}

// EngineCacheDir resolves the engine's cache directory. The engine hardcodes
// ~/.deepface unless told otherwise; ENGINE_CACHE_DIR overrides for tests and
// non-standard homes.
func (c *Config) EngineCacheDir() string {
	if c.Engine.CacheDir != "" {
		return c.Engine.CacheDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".deepface"
	}
	return filepath.Join(home, ".deepface")
}
