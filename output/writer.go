// Package output persists the result files of a run as one unit.
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"cmpimg/logging"
	"cmpimg/types"
)

// Artifact is one file of the output set
type Artifact struct {
	// Path is the final location; an existing file there is replaced
	Path string
	// Data is written verbatim unless Render is set
	Data []byte
	// Render fills the staged file itself, given its temporary path
	Render func(path string) error
}

type staged struct {
	tmp       string
	target    string
	backup    string
	published bool
}

// WriteSet stages every artifact in a temporary file next to its target and
// moves them into place only once all of them were written. Existing
// targets are kept aside until the whole set is published, so a failure at
// any point leaves the previous files untouched.
func WriteSet(artifacts []Artifact) error {
	var files []staged
	for _, a := range artifacts {
		tmp, err := stage(a)
		if err != nil {
			rollback(files)
			return &types.OutputError{Path: a.Path, Err: err}
		}
		files = append(files, staged{tmp: tmp, target: a.Path})
	}

	for i := range files {
		f := &files[i]
		backup, err := setAside(f.target)
		if err != nil {
			rollback(files)
			return &types.OutputError{Path: f.target, Err: err}
		}
		f.backup = backup

		if err := os.Rename(f.tmp, f.target); err != nil {
			rollback(files)
			return &types.OutputError{Path: f.target, Err: err}
		}
		f.published = true
	}

	for _, f := range files {
		if f.backup != "" {
			os.Remove(f.backup)
		}
		logging.DebugLog("Wrote %s", f.target)
	}
	return nil
}

// setAside moves an existing target to a hidden backup name in the same
// directory and returns that name, or "" when there is nothing to keep
func setAside(target string) (string, error) {
	info, err := os.Lstat(target)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", target)
	}

	dir, name := filepath.Split(target)
	if dir == "" {
		dir = "."
	}
	f, err := os.CreateTemp(dir, "."+name+".*.bak")
	if err != nil {
		return "", err
	}
	backup := f.Name()
	f.Close()

	if err := os.Rename(target, backup); err != nil {
		os.Remove(backup)
		return "", err
	}
	return backup, nil
}

// rollback undoes a partially published set: staged files are removed and
// every target goes back to its previous content, or away if it had none
func rollback(files []staged) {
	for i := len(files) - 1; i >= 0; i-- {
		f := files[i]
		switch {
		case f.backup != "":
			if err := os.Rename(f.backup, f.target); err != nil {
				logging.LogError("Cannot restore %s from %s: %v", f.target, f.backup, err)
			}
		case f.published:
			os.Remove(f.target)
		}
		if !f.published {
			os.Remove(f.tmp)
		}
	}
}

func stage(a Artifact) (string, error) {
	dir, name := filepath.Split(a.Path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	tmp := f.Name()

	if a.Render != nil {
		if err := f.Close(); err != nil {
			os.Remove(tmp)
			return "", err
		}
		if err := a.Render(tmp); err != nil {
			os.Remove(tmp)
			return "", fmt.Errorf("render: %w", err)
		}
		return tmp, publish(tmp)
	}

	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, publish(tmp)
}

// publish gives a staged file the permissions of a regular output file
func publish(tmp string) error {
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
