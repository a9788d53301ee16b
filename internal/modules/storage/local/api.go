package local

import (
	"io"
	"os"
	"path/filepath"
)

func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0770)
}

func SaveFile(f io.Reader, path string) error {
	err := EnsureDir(filepath.Dir(path))
	if err != nil {
		return err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(file, f)
	if err != nil {
		return err
	}
	return nil
}

func DeleteFile(path string) error {
	return os.Remove(path)
}
