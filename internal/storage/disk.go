package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// CorpusFiles lists the on-disk files of a prepared corpus: the chunk database with its
// SQLite sidecars and the vector index, which FAISS splits into .faiss and .labels files.
// Files that do not exist are included; DiskUsageBytes skips them.
func CorpusFiles(dbPath, indexPath string) []string {
	files := []string{dbPath, dbPath + "-wal", dbPath + "-shm", dbPath + "-journal"}
	if indexPath == "" {
		return files
	}
	return append(files, indexPath, indexPath+".faiss", indexPath+".labels")
}

// DiskUsageBytes returns the total size in bytes of the given paths. A directory is summed
// recursively. Empty and missing paths contribute 0.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !info.IsDir() {
			total += info.Size()
			continue
		}
		n, err := dirSize(p)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
