package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is one log file to analyse.
type Source struct {
	// Name identifies the file in reports.
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource reads the file at path. Reports carry its base name.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// BytesSource serves data already in memory.
func BytesSource(name string, data []byte) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func (s Source) read() ([]byte, error) {
	rc, err := s.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.Name, err)
	}
	return data, nil
}
