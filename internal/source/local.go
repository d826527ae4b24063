package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	elerrors "github.com/arkilian/eventlog/internal/errors"
)

// LocalSource implements Source using the local filesystem.
type LocalSource struct{}

// NewLocalSource creates a filesystem source. Keys are paths.
func NewLocalSource() *LocalSource {
	return &LocalSource{}
}

// ReadAll reads the whole file at path.
func (l *LocalSource) ReadAll(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, elerrors.NewSourceError(elerrors.CodeObjectNotFound,
				fmt.Sprintf("input %s does not exist", path), err)
		}
		// Local read failures are permanent.
		e := elerrors.NewSourceError(elerrors.CodeReadFailed, fmt.Sprintf("read %s", path), err)
		e.Retryable = false
		return nil, e
	}
	return data, nil
}
