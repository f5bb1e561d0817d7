package utils

import (
	"path/filepath"
	"strings"

	"github.com/facette/natsort"
)

// RootName returns the file name without directory and extension.
// A trailing ".gz" is removed together with the extension before it.
func RootName(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	root := strings.TrimSuffix(base, ext)
	if strings.ToLower(ext) == ".gz" {
		root = strings.TrimSuffix(root, filepath.Ext(root))
	}
	return root
}

// UniqueNaturalSorted removes duplicate paths and orders the rest
// naturally, so that "img2" sorts before "img10"
func UniqueNaturalSorted(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	natsort.Sort(unique)
	return unique
}
