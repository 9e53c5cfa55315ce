package artifacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/artifactguard/internal/bytesize"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	assert.Equal(t, TypeFilesystem, cfg.Type)
	assert.Equal(t, []string{"cruise-output"}, cfg.Preserve)

	s3cfg := Config{Type: TypeS3, S3: S3Config{Prefix: "ci"}}
	s3cfg.ApplyDefaults()
	assert.Equal(t, "ci/", s3cfg.S3.Prefix)

	empty := Config{Preserve: []string{}}
	empty.ApplyDefaults()
	assert.Empty(t, empty.Preserve, "explicit empty list disables preservation")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"filesystem ok", Config{Type: TypeFilesystem, Filesystem: FilesystemConfig{Root: "/srv"}}, ""},
		{"filesystem no root", Config{Type: TypeFilesystem}, "root is required"},
		{"s3 ok", Config{Type: TypeS3, S3: S3Config{Bucket: "b", Capacity: bytesize.GiB}}, ""},
		{"s3 no bucket", Config{Type: TypeS3, S3: S3Config{Capacity: bytesize.GiB}}, "bucket is required"},
		{"s3 no capacity", Config{Type: TypeS3, S3: S3Config{Bucket: "b"}}, "capacity"},
		{"s3 half credentials", Config{Type: TypeS3, S3: S3Config{Bucket: "b", Capacity: 1, AccessKeyID: "k"}}, "together"},
		{"escaping preserve", Config{Type: TypeFilesystem, Filesystem: FilesystemConfig{Root: "/srv"}, Preserve: []string{"../x"}}, "preserve"},
		{"unknown", Config{Type: "ftp"}, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPreserved(t *testing.T) {
	keep := []string{"cruise-output", "logs/keep"}
	assert.True(t, Preserved("cruise-output", keep))
	assert.True(t, Preserved("cruise-output/console.log", keep))
	assert.True(t, Preserved("logs/keep/a", keep))
	assert.False(t, Preserved("logs/other", keep))
	assert.False(t, Preserved("cruise-output-old/x", keep))
}

func TestLocatorPath(t *testing.T) {
	loc := Locator{Pipeline: "deploy", PipelineCounter: 12, Stage: "ship", StageCounter: 3}
	assert.Equal(t, "pipelines/deploy/12/ship/3", loc.Path())
}

func TestLocatorValidate(t *testing.T) {
	require.NoError(t, Locator{Pipeline: "deploy", PipelineCounter: 12, Stage: "ship", StageCounter: 3}.Validate())

	for name, loc := range map[string]Locator{
		"dotdot":      {Pipeline: "..", PipelineCounter: 1, Stage: "..", StageCounter: 1},
		"dot":         {Pipeline: "deploy", PipelineCounter: 1, Stage: ".", StageCounter: 1},
		"empty":       {Pipeline: "", PipelineCounter: 1, Stage: "ship", StageCounter: 1},
		"separator":   {Pipeline: "a/b", PipelineCounter: 1, Stage: "ship", StageCounter: 1},
		"zeroCounter": {Pipeline: "deploy", PipelineCounter: 0, Stage: "ship", StageCounter: 1},
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, loc.Validate(), ErrInvalidLocator)
		})
	}
}
