package app

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"cadgen/internal/storage"
)

func newTestPaths(t *testing.T) *storage.Paths {
	t.Helper()
	root := t.TempDir()
	return storage.New(filepath.Join(root, "uploaded_files"), filepath.Join(root, "output"))
}

func nop() *zap.Logger { return zap.NewNop() }
