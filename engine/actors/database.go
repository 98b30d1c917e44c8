package actors

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"keeperx/engine/library"
)

// Open returns the flat file for db inside the mind's directory, if one has been written.
func Open(mind, db string) (*os.File, bool) {
	if err := os.MkdirAll(directory(mind), 0777); err != nil {
		library.LogCLI(err.Error(), 1)
		return nil, false
	}
	_, err := os.Stat(filename(mind, db))
	if os.IsNotExist(err) {
		return nil, false
	}
	file, err := os.Open(filename(mind, db))
	if err != nil {
		library.LogCLI(err.Error(), 1)
		return nil, false
	}
	return file, true
}

// Write replaces the flat file for db. The new content is written to a temporary file first
// so a crash never leaves a truncated state file behind.
func Write(mind, db string, b []byte) error {
	if err := os.MkdirAll(directory(mind), 0777); err != nil {
		return err
	}
	tmp := filename(mind, db) + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err = io.Copy(f, bytes.NewReader(b)); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filename(mind, db))
}

func filename(mind, db string) string {
	return filepath.Join(directory(mind), db+".dat")
}

func directory(mind string) string {
	dir := MakeOrGetConfig().GetString("rootDir")
	dir = filepath.Join(dir, MakeOrGetConfig().GetString("flatFileDir"))
	return filepath.Join(dir, mind)
}
