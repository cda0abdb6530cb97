package auth

import (
	"mime/multipart"
	"os"
	"path"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DiskFileStore keeps uploads on the local filesystem. The returned path
// is the public URL path stored on the user record.
type DiskFileStore struct {
	dir      string
	basePath string
	logger   Logger
}

// NewDiskFileStore creates a store rooted at dir, serving from basePath
func NewDiskFileStore(dir, basePath string) *DiskFileStore {
	return &DiskFileStore{
		dir:      dir,
		basePath: basePath,
		logger:   defLogger{},
	}
}

func (s *DiskFileStore) WithLogger(logger Logger) *DiskFileStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// Save writes the uploaded file under a generated name
func (s *DiskFileStore) Save(c *fiber.Ctx, file *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create upload directory")
	}

	name := uuid.New().String() + filepath.Ext(file.Filename)
	dest := filepath.Join(s.dir, name)

	if err := c.SaveFile(file, dest); err != nil {
		s.logger.Error("file store failed to save upload %s: %v", file.Filename, err)
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save uploaded file")
	}

	return path.Join(s.basePath, name), nil
}

var _ FileStore = (*DiskFileStore)(nil)
