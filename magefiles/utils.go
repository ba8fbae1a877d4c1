//go:build mage

package main

import (
	"fmt"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

type cmdOptions struct {
	args   []string
	env    map[string]string
	stream bool
}

type cmdOption func(*cmdOptions)

func withArgs(args ...string) cmdOption {
	return func(o *cmdOptions) {
		o.args = args
	}
}

func withEnv(key, value string) cmdOption {
	return func(o *cmdOptions) {
		o.env[key] = value
	}
}

func withStream() cmdOption {
	return func(o *cmdOptions) {
		o.stream = true
	}
}

// executeCmd runs command and returns its output. Streamed commands (or any
// command under mage -v) print as they run and return no output.
func executeCmd(command string, options ...cmdOption) (string, error) {
	opts := &cmdOptions{env: map[string]string{}}
	for _, o := range options {
		o(opts)
	}

	fmt.Printf("Executing: %s %s\n", command, strings.Join(opts.args, " "))
	if mg.Verbose() || opts.stream {
		if err := sh.RunWithV(opts.env, command, opts.args...); err != nil {
			return "", fmt.Errorf("error executing %s: %w", command, err)
		}
		return "", nil
	}

	out, err := sh.OutputWith(opts.env, command, opts.args...)
	if err != nil {
		fmt.Println("... failed command output:")
		fmt.Println(out)
		return "", fmt.Errorf("error executing %s: %w", command, err)
	}
	return out, nil
}

func goTidy() error {
	_, err := executeCmd("go", withArgs("mod", "tidy"))
	if err != nil {
		return fmt.Errorf("failed to run go mod tidy: %w", err)
	}
	return nil
}
