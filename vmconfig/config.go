// Package vmconfig loads runtime startup configuration from the
// process environment and converts it into the initialization
// arguments the native interface takes. All variables share the
// JNIRT_ prefix.
package vmconfig

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	jniruntime "github.com/wippyai/jni-runtime"
	jnierrors "github.com/wippyai/jni-runtime/errors"
)

// Config is the environment-driven startup configuration.
type Config struct {
	// Version is the interface revision to request ("1.1" through "1.8").
	Version string `env:"VERSION" envDefault:"1.8"`

	// Classpath becomes the java.class.path system property.
	Classpath string `env:"CLASSPATH"`

	// HeapMin and HeapMax become -Xms / -Xmx options when set.
	HeapMin string `env:"HEAP_MIN"`
	HeapMax string `env:"HEAP_MAX"`

	// CheckJNI enables the runtime's extended call checking.
	CheckJNI bool `env:"CHECK_JNI"`

	// Options are passed through verbatim after the generated ones.
	Options []string `env:"OPTIONS" envSeparator:","`

	// IgnoreUnrecognized forwards unknown options instead of failing
	// startup on them.
	IgnoreUnrecognized bool `env:"IGNORE_UNRECOGNIZED" envDefault:"true"`
}

// ParseEnv reads the JNIRT_-prefixed variables.
func ParseEnv() (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: "JNIRT_"})
	if err != nil {
		return Config{}, fmt.Errorf("vmconfig: %w", err)
	}
	return cfg, nil
}

// ParseVersion maps a dotted revision string to its interface
// identifier.
func ParseVersion(s string) (jniruntime.Version, error) {
	switch strings.TrimSpace(s) {
	case "1.1":
		return jniruntime.Version11, nil
	case "1.2":
		return jniruntime.Version12, nil
	case "1.4":
		return jniruntime.Version14, nil
	case "1.6":
		return jniruntime.Version16, nil
	case "1.8":
		return jniruntime.Version18, nil
	}
	return 0, jnierrors.InvalidInput(jnierrors.PhaseStartup,
		fmt.Sprintf("unknown interface version %q", s))
}

// InitArgs converts the configuration into native initialization
// arguments. Generated options come first so explicit Options can
// override them.
func (c Config) InitArgs() (*jniruntime.InitArgs, error) {
	version, err := ParseVersion(c.Version)
	if err != nil {
		return nil, err
	}

	var opts []jniruntime.VMOption
	if c.Classpath != "" {
		opts = append(opts, jniruntime.VMOption{Option: "-Djava.class.path=" + c.Classpath})
	}
	if c.HeapMin != "" {
		opts = append(opts, jniruntime.VMOption{Option: "-Xms" + c.HeapMin})
	}
	if c.HeapMax != "" {
		opts = append(opts, jniruntime.VMOption{Option: "-Xmx" + c.HeapMax})
	}
	if c.CheckJNI {
		opts = append(opts, jniruntime.VMOption{Option: "-Xcheck:jni"})
	}
	for _, o := range c.Options {
		if o = strings.TrimSpace(o); o != "" {
			opts = append(opts, jniruntime.VMOption{Option: o})
		}
	}

	return &jniruntime.InitArgs{
		Version:            version,
		Options:            opts,
		IgnoreUnrecognized: c.IgnoreUnrecognized,
	}, nil
}
