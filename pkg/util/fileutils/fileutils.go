/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package fileutils provides utilities supplementing the standard 'os' and 'path' package.
package fileutils

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// MkdirAll creates a directory named path on perm(0755).
func MkdirAll(path string) error {
	return os.MkdirAll(path, 0755)
}

// OpenFile opens a file. If the parent directory of the file isn't exist,
// it will create the directory.
func OpenFile(path string, flag int, perm os.FileMode) (*os.File, error) {
	if PathExist(path) {
		return os.OpenFile(path, flag, perm)
	}

	if err := MkdirAll(filepath.Dir(path)); err != nil {
		return nil, err
	}

	return os.OpenFile(path, flag, perm)
}

// Touch creates an empty file if it does not exist.
func Touch(path string) error {
	f, err := OpenFile(path, os.O_WRONLY|os.O_CREATE, 0600)
	if err != nil {
		return err
	}

	return f.Close()
}

// CopyFile copies the file src to dst.
func CopyFile(dst string, src string) (written int64, err error) {
	if !IsRegular(src) {
		return 0, errors.Errorf("copy %s to %s: src is not a regular file", src, dst)
	}

	s, err := os.Open(src)
	if err != nil {
		return 0, errors.Wrapf(err, "copy %s to %s: open src", src, dst)
	}
	defer s.Close()

	d, err := OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, errors.Wrapf(err, "copy %s to %s: open dst", src, dst)
	}
	defer d.Close()

	return io.Copy(d, s)
}

// PathExist reports whether the path is exist.
func PathExist(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsDir reports whether the path is a directory.
func IsDir(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}

	return f.IsDir()
}

// IsRegular reports whether the path is a regular file.
func IsRegular(path string) bool {
	f, err := os.Stat(path)
	if err != nil {
		return false
	}

	return f.Mode().IsRegular()
}

// RegularFiles returns the names of regular files in dir, sorted by name.
func RegularFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}
