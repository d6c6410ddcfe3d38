package pipeline

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"lukechampine.com/blake3"
)

// hashLen is the BLAKE3 digest size in bytes.
const hashLen = 32

// spool copies r to path and returns the hex BLAKE3 digest and byte count
// of what was written.
func spool(r io.Reader, path string) (string, int64, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", path, err)
	}

	h := blake3.New(hashLen, nil)
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", n, fmt.Errorf("spool video: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// defaultName derives a transcript name from a content hash.
func defaultName(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
