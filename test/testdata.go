package test_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// UTCTime returns unix seconds as time in UTC so that test expectations do not depend on machine timezone
func UTCTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// LoadBytes reads file from `testdata` directory of the package under test. Tests run with package directory as
// working directory.
func LoadBytes(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("loading testdata file %v: %v", name, err)
	}
	return b
}
