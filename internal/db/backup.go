package db

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Backup writes a consistent copy of the live database to dst.
func Backup(ctx context.Context, d *DB, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("backup target %s already exists", dst)
	}
	if _, err := d.Exec(ctx, `VACUUM INTO ?`, dst); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dst, err)
	}
	return nil
}

// Restore copies a backup file over the database file at dst. The copy is
// written next to dst and renamed into place, so dst is either the old file or
// the complete backup. The database must not be open while restoring.
func Restore(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat backup: %w", err)
	}
	if dstInfo, err := os.Stat(dst); err == nil && os.SameFile(srcInfo, dstInfo) {
		return fmt.Errorf("backup %s is the database file itself", src)
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open backup: %w", err)
	}
	defer srcFile.Close()

	tmp := dst + ".tmp"
	tmpFile, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp database file: %w", err)
	}

	if err := copyAndSync(tmpFile, srcFile); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace database file: %w", err)
	}
	return nil
}

func copyAndSync(dst *os.File, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return fmt.Errorf("sync database file: %w", err)
	}
	return dst.Close()
}
