package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jorgenskogmo/webpub/internal/config"
	dberrors "github.com/jorgenskogmo/webpub/internal/foundation/errors"
)

const starterPage = `---
title: Welcome
---
This page lives in content/index.md. Add a folder with its own index.md to create a child page.
`

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(root.Config, i.Force)
}

// RunInit writes the starter config and, when missing, a content directory
// with a root page next to it.
func RunInit(configPath string, force bool) error {
	fmt.Println("Initializing webpub project")
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}

	contentDir := filepath.Join(filepath.Dir(configPath), config.Default().ContentDirectory)
	index := filepath.Join(contentDir, "index.md")
	if _, err := os.Stat(index); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(contentDir, 0o755); err != nil {
			return dberrors.WrapError(err, dberrors.CategoryFileSystem, "create content directory").
				WithContext("path", contentDir).Build()
		}
		if err := os.WriteFile(index, []byte(starterPage), 0o644); err != nil {
			return dberrors.WrapError(err, dberrors.CategoryFileSystem, "write starter page").
				WithContext("path", index).Build()
		}
		fmt.Printf("Created %s\n", index)
	}
	fmt.Println("initialized successfully")
	return nil
}
