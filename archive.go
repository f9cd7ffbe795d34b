package main

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// ArchiveReceipts zips every file under dir into archivePath, replacing any
// previous archive. Entry names are relative to dir. An empty dir produces an
// empty archive.
func ArchiveReceipts(dir, archivePath string) (int, error) {
	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return 0, err
	}

	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if abs == absArchive {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if err := addToZip(zw, path, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("failed to archive %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		zw.Close()
		return count, err
	}

	if err := zw.Close(); err != nil {
		return count, err
	}
	return count, out.Close()
}

func addToZip(zw *zip.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, file)
	return err
}
