package command

import (
	"fmt"
	"os"

	"github.com/davide97g/mini-world/internal/storage"
	"github.com/pixil98/go-errors"
)

type StorageConfig struct {
	Path       string `json:"path"`
	QuotaBytes int64  `json:"quota_bytes"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("storage: path is required"))
	} else if _, err := os.Stat(c.Path); err != nil {
		el.Add(fmt.Errorf("storage: invalid path %q: %w", c.Path, err))
	}

	if c.QuotaBytes < 0 {
		el.Add(fmt.Errorf("storage: quota_bytes must be non-negative"))
	}

	return el.Err()
}

func (c *StorageConfig) buildStore() (*storage.FileStore, error) {
	var opts []storage.FileStoreOpt
	if c.QuotaBytes > 0 {
		opts = append(opts, storage.WithQuota(c.QuotaBytes))
	}

	return storage.NewFileStore(c.Path, opts...)
}
