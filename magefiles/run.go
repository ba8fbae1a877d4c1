//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Builds the viewer and runs it with viewer.toml.
func (Run) Viewer() error {
	mg.Deps(Build.Viewer)
	fmt.Println("Run viewer...")
	if _, err := executeCmd("bin/md5viewer", withArgs("-config", "viewer.toml"), withStream()); err != nil {
		return err
	}
	return nil
}

// Loads every configured model once, writes the basis previews and exits.
func (Run) Previews() error {
	mg.Deps(Build.Viewer)
	if _, err := executeCmd("bin/md5viewer", withArgs("-config", "viewer.toml", "-preview", "previews", "-frames", "1"), withStream()); err != nil {
		return err
	}
	return nil
}
