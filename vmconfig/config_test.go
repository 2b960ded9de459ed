package vmconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jniruntime "github.com/wippyai/jni-runtime"
)

func TestParseEnvDefaults(t *testing.T) {
	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, "1.8", cfg.Version)
	assert.True(t, cfg.IgnoreUnrecognized)
	assert.Empty(t, cfg.Classpath)
	assert.Empty(t, cfg.Options)
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("JNIRT_VERSION", "1.6")
	t.Setenv("JNIRT_CLASSPATH", "/opt/app/classes")
	t.Setenv("JNIRT_HEAP_MIN", "64m")
	t.Setenv("JNIRT_HEAP_MAX", "512m")
	t.Setenv("JNIRT_CHECK_JNI", "true")
	t.Setenv("JNIRT_OPTIONS", "-verbose:gc, -Dapp.mode=test")
	t.Setenv("JNIRT_IGNORE_UNRECOGNIZED", "false")

	cfg, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, "1.6", cfg.Version)
	assert.Equal(t, "/opt/app/classes", cfg.Classpath)
	assert.True(t, cfg.CheckJNI)
	assert.False(t, cfg.IgnoreUnrecognized)

	args, err := cfg.InitArgs()
	require.NoError(t, err)

	assert.Equal(t, jniruntime.Version16, args.Version)
	assert.False(t, args.IgnoreUnrecognized)

	var opts []string
	for _, o := range args.Options {
		opts = append(opts, o.Option)
	}
	assert.Equal(t, []string{
		"-Djava.class.path=/opt/app/classes",
		"-Xms64m",
		"-Xmx512m",
		"-Xcheck:jni",
		"-verbose:gc",
		"-Dapp.mode=test",
	}, opts)
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    jniruntime.Version
		wantErr bool
	}{
		{"1.1", jniruntime.Version11, false},
		{"1.2", jniruntime.Version12, false},
		{"1.4", jniruntime.Version14, false},
		{"1.6", jniruntime.Version16, false},
		{"1.8", jniruntime.Version18, false},
		{" 1.8 ", jniruntime.Version18, false},
		{"1.3", 0, true},
		{"2.0", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseVersion(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestInitArgsRejectsBadVersion(t *testing.T) {
	cfg := Config{Version: "9"}
	_, err := cfg.InitArgs()
	assert.Error(t, err)
}
