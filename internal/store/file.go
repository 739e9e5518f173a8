package store

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// File is a Store kept in a JSON file. Every Set rewrites the file.
type File struct {
	mu     sync.Mutex
	v      *viper.Viper
	fs     afero.Fs
	path   string
	logger golog.Logger
}

// OpenFile opens the store at path on the OS filesystem.
func OpenFile(path string, logger golog.Logger) (*File, error) {
	return OpenFileFs(afero.NewOsFs(), path, logger)
}

// OpenFileFs opens the store at path on fs. A missing file is an empty
// store; an unreadable one is logged and treated as empty, so that corrupt
// data never prevents startup.
func OpenFileFs(fs afero.Fs, path string, logger golog.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("store path is empty")
	}

	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("json")

	f := &File{v: v, fs: fs, path: path, logger: logger}

	if _, err := fs.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "cannot stat store %s", path)
		}
		logger.Infof("Store %s does not exist yet, starting empty", path)
		return f, nil
	}

	if err := v.ReadInConfig(); err != nil {
		logger.Warnf("Store %s is unreadable, starting empty: %v", path, err)
		f.v = viper.New()
		f.v.SetFs(fs)
		f.v.SetConfigFile(path)
		f.v.SetConfigType("json")
	}
	return f, nil
}

// Path returns the file the store writes to.
func (f *File) Path() string {
	return f.path
}

// Get implements Store. Values that are not strings are reported absent.
func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.v.IsSet(key) {
		return "", false
	}
	s, ok := f.v.Get(key).(string)
	return s, ok
}

// Set implements Store.
func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.v.Set(key, value)

	if err := f.fs.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrapf(err, "cannot create directory for %s", f.path)
	}
	if err := f.v.WriteConfigAs(f.path); err != nil {
		return errors.Wrapf(err, "cannot write store %s", f.path)
	}
	return nil
}
