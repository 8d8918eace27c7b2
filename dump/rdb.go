package dump

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/conclist/lib/logger"
	rdb "github.com/hdt3213/rdb/encoder"
)

// WriteList writes vals as a single Redis list stored under key into an RDB
// file at filename, head first. The file is written to a temp file next to
// filename and renamed into place once complete.
func WriteList(filename string, key string, vals [][]byte) error {
	if filename == "" {
		filename = "dump.rdb"
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(filename), "*.rdb")
	if err != nil {
		logger.Warn("tmp file create failed")
		return err
	}
	defer func() {
		// no-op once renamed
		_ = os.Remove(tmpFile.Name())
	}()

	err = writeList(tmpFile, key, vals)
	if closeErr := tmpFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}
	return os.Rename(tmpFile.Name(), filename)
}

func writeList(f *os.File, key string, vals [][]byte) error {
	encoder := rdb.NewEncoder(f).EnableCompress()
	err := encoder.WriteHeader()
	if err != nil {
		return err
	}
	auxMap := map[string]string{
		"redis-ver":    "6.0.0",
		"redis-bits":   "64",
		"aof-preamble": "0",
		"ctime":        strconv.FormatInt(time.Now().Unix(), 10),
	}
	for k, v := range auxMap {
		err = encoder.WriteAux(k, v)
		if err != nil {
			return err
		}
	}

	if len(vals) > 0 {
		err = encoder.WriteDBHeader(0, 1, 0)
		if err != nil {
			return err
		}
		err = encoder.WriteListObject(key, vals)
		if err != nil {
			return err
		}
	}
	return encoder.WriteEnd()
}
