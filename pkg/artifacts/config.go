package artifacts

import (
	"fmt"
	"path"
	"strings"

	"github.com/marmos91/artifactguard/internal/bytesize"
)

// Type selects the artifact backend.
type Type string

const (
	TypeFilesystem Type = "filesystem"
	TypeS3         Type = "s3"
)

// DefaultPreserve keeps the console logs of purged stages.
var DefaultPreserve = []string{"cruise-output"}

// Config configures the artifact store.
type Config struct {
	Type Type `mapstructure:"type" validate:"required,oneof=filesystem s3" yaml:"type"`

	// Preserve lists paths, relative to a stage directory, that are never
	// deleted.
	Preserve []string `mapstructure:"preserve" yaml:"preserve"`

	Filesystem FilesystemConfig `mapstructure:"filesystem" yaml:"filesystem"`
	S3         S3Config         `mapstructure:"s3" yaml:"s3"`
}

// FilesystemConfig configures the local artifact directory.
type FilesystemConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket          string `mapstructure:"bucket" yaml:"bucket,omitempty"`
	Prefix          string `mapstructure:"prefix" yaml:"prefix,omitempty"`
	Region          string `mapstructure:"region" yaml:"region,omitempty"`
	Endpoint        string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`
	ForcePathStyle  bool   `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`

	// Capacity is the quota the bucket prefix may use; free space is
	// Capacity minus the bytes stored under Prefix.
	Capacity bytesize.ByteSize `mapstructure:"capacity" yaml:"capacity,omitempty"`
}

// ApplyDefaults fills missing values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = TypeFilesystem
	}
	if c.Preserve == nil {
		c.Preserve = append([]string(nil), DefaultPreserve...)
	}
	if c.Type == TypeS3 && c.S3.Prefix != "" && !strings.HasSuffix(c.S3.Prefix, "/") {
		c.S3.Prefix += "/"
	}
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	for _, p := range c.Preserve {
		clean := path.Clean(p)
		if p == "" || path.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
			return fmt.Errorf("artifacts.preserve: %q must be a relative path inside the stage directory", p)
		}
	}

	switch c.Type {
	case TypeFilesystem:
		if c.Filesystem.Root == "" {
			return fmt.Errorf("artifacts.filesystem.root is required")
		}
	case TypeS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("artifacts.s3.bucket is required")
		}
		if c.S3.Capacity == 0 {
			return fmt.Errorf("artifacts.s3.capacity is required to measure free space")
		}
		if (c.S3.AccessKeyID == "") != (c.S3.SecretAccessKey == "") {
			return fmt.Errorf("artifacts.s3 access_key_id and secret_access_key must be set together")
		}
	default:
		return fmt.Errorf("unsupported artifacts type: %s", c.Type)
	}
	return nil
}

// Preserved reports whether rel, a slash-separated path relative to a stage
// directory, falls under one of the preserved paths.
func Preserved(rel string, preserve []string) bool {
	rel = path.Clean(rel)
	for _, p := range preserve {
		p = path.Clean(p)
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
