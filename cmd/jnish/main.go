package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	jniruntime "github.com/wippyai/jni-runtime"
	"github.com/wippyai/jni-runtime/jni"
	"github.com/wippyai/jni-runtime/simvm"
	"github.com/wippyai/jni-runtime/vmconfig"
)

func main() {
	var (
		eval        = flag.String("eval", "", "Commands to run, separated by ';'")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		debug       = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *eval == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: jnish -eval 'find java/lang/String; info'")
		fmt.Fprintln(os.Stderr, "       jnish -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       jnish < script  (one command per line)")
		if term.IsTerminal(int(os.Stdin.Fd())) {
			os.Exit(1)
		}
	}

	logger := zap.NewNop()
	if *debug {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		jni.SetLogger(logger)
	}

	cfg, err := vmconfig.ParseEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	args, err := cfg.InitArgs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(args, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(args, logger, *eval); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args *jniruntime.InitArgs, logger *zap.Logger, eval string) error {
	s, err := startSession(args, simvm.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.close()

	if eval != "" {
		for _, line := range strings.Split(eval, ";") {
			if err := runLine(s, strings.TrimSpace(line)); err != nil {
				return err
			}
		}
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := runLine(s, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func runLine(s *session, line string) error {
	if line == "" {
		return nil
	}
	out, err := s.eval(line)
	if err != nil {
		return fmt.Errorf("%s: %w", line, err)
	}
	if out != "" {
		fmt.Println(out)
	}
	return nil
}
