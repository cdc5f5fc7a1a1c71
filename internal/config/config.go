// Package config implements InnerFS's YAML configuration file, following
// the teacher's config.Manager shape but with a YAML codec matching
// original_source's config.rs wire format.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BackendConfig describes one storage backend: the primary, or one entry
// in Replicas. Type selects which of the remaining fields apply, the same
// tagged-union convention the teacher's VaultConfig uses.
type BackendConfig struct {
	Type string `yaml:"storage_backend"` // "filesystem" | "sqlar" | "s3" | "kv"

	BlobStorage string `yaml:"blob_storage,omitempty"` // filesystem/kv root directory

	S3EndpointURL string `yaml:"s3_endpoint_url,omitempty"`
	S3Region      string `yaml:"s3_region,omitempty"`
	S3Bucket      string `yaml:"s3_bucket,omitempty"`
	S3BasePath    string `yaml:"s3_base_path,omitempty"`
	S3AccessKey   string `yaml:"s3_access_key,omitempty"`
	S3SecretKey   string `yaml:"s3_secret_key,omitempty"`
}

// Config is the full contents of config.yml.
type Config struct {
	DatabaseFile string `yaml:"database_file"`
	MountPoint   string `yaml:"mount_point"`

	BackendConfig `yaml:",inline"`

	EncryptionKey          string `yaml:"encryption_key"`
	UpdateAccessTime       bool   `yaml:"update_access_time"`
	UseHashAsFilename      bool   `yaml:"use_hash_as_filename"`
	StoreFileChangeHistory bool   `yaml:"store_file_change_history"`
	CompressionLevel       int    `yaml:"compression_level"`

	Replicas []BackendConfig `yaml:"replicas,omitempty"`
}

// Encrypted reports whether a passphrase was configured.
func (c *Config) Encrypted() bool { return c.EncryptionKey != "" }

// Default returns the configuration Read starts from: every field a config
// file leaves out keeps the value set here.
func Default() *Config {
	return &Config{
		DatabaseFile: "./index.db",
		MountPoint:   "./data",
		BackendConfig: BackendConfig{
			Type:        "filesystem",
			BlobStorage: "./blob",
		},
		StoreFileChangeHistory: true,
		CompressionLevel:       6,
	}
}

// ReadFromFile decodes a Config from path, applying the same defaults as
// original_source's read_config for any field the file omits.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Read decodes a Config from r, filling in defaults for anything the
// caller's YAML document leaves unset.
func Read(r io.Reader) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg to w.
func Write(w io.Writer, cfg *Config) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Init writes a fresh config file at path, refusing to overwrite an
// existing one, matching the teacher's config.Init.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()
	return Write(f, cfg)
}

// InitTemplate writes the documented default_config.yml template to path,
// refusing to overwrite an existing file. This is what the generate-config
// command uses instead of Init, so that a first-time user gets the
// commented template rather than a bare Default() dump.
func InitTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return os.WriteFile(path, DefaultTemplate(), 0o644)
}

// Validate checks the cross-field requirements original_source's
// read_config enforces for the S3 and filesystem backends.
func (c *BackendConfig) Validate() error {
	switch c.Type {
	case "s3":
		var missing []string
		if c.S3AccessKey == "" {
			missing = append(missing, "s3_access_key")
		}
		if c.S3SecretKey == "" {
			missing = append(missing, "s3_secret_key")
		}
		if c.S3Bucket == "" {
			missing = append(missing, "s3_bucket")
		}
		if c.S3Region == "" && c.S3EndpointURL == "" {
			missing = append(missing, "s3_region or s3_endpoint_url")
		}
		if len(missing) > 0 {
			return fmt.Errorf("s3 backend missing required fields: %v", missing)
		}
	case "filesystem", "kv":
		if c.BlobStorage == "" {
			return fmt.Errorf("%s backend requires blob_storage to be set", c.Type)
		}
	case "sqlar":
		// shares the metadata database, nothing extra to validate.
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Type)
	}
	return nil
}
