package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ByteSize
		wantErr bool
	}{
		{"plain zero", "0", 0, false},
		{"plain bytes", "1024", 1024, false},
		{"bytes suffix", "1024B", 1024, false},

		{"kibibytes", "1KiB", KiB, false},
		{"kibibytes short", "1Ki", KiB, false},
		{"mebibytes", "100MiB", 100 * MiB, false},
		{"gibibytes", "10GiB", 10 * GiB, false},
		{"tebibytes", "2TiB", 2 * TiB, false},

		{"kilobytes", "1KB", KB, false},
		{"megabytes", "500MB", 500 * MB, false},
		{"gigabytes", "1GB", GB, false},

		{"lowercase", "1gib", GiB, false},
		{"space between", "1 GiB", GiB, false},
		{"surrounding space", "  5GiB  ", 5 * GiB, false},
		{"fraction", "1.5GiB", ByteSize(1.5 * float64(GiB)), false},

		{"empty", "", 0, true},
		{"blank", "   ", 0, true},
		{"negative", "-1GiB", 0, true},
		{"unknown unit", "10XB", 0, true},
		{"letters only", "GiB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExact(t *testing.T) {
	assert.Equal(t, "0", ByteSize(0).Exact())
	assert.Equal(t, "10GiB", (10 * GiB).Exact())
	assert.Equal(t, "1536MiB", (1536 * MiB).Exact())
	assert.Equal(t, "1500", ByteSize(1500).Exact())
	assert.Equal(t, "3TiB", (3 * TiB).Exact())
}

func TestExact_RoundTrips(t *testing.T) {
	for _, v := range []ByteSize{0, 1, 999, KiB, 7 * MiB, 10 * GiB, 2*GiB + KiB, 4 * TiB} {
		got, err := Parse(v.Exact())
		require.NoError(t, err)
		assert.Equal(t, v, got, "round trip of %s", v.Exact())
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "10 GiB", (10 * GiB).String())
	assert.Equal(t, "512 B", ByteSize(512).String())
}

func TestYAML(t *testing.T) {
	type cfg struct {
		Start  ByteSize `yaml:"start"`
		Target ByteSize `yaml:"target"`
	}

	var c cfg
	require.NoError(t, yaml.Unmarshal([]byte("start: 10GiB\ntarget: 20GiB\n"), &c))
	assert.Equal(t, 10*GiB, c.Start)
	assert.Equal(t, 20*GiB, c.Target)

	out, err := yaml.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "start: 10GiB\ntarget: 20GiB\n", string(out))
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("lots") })
	assert.Equal(t, 4*GiB, MustParse("4GiB"))
}
