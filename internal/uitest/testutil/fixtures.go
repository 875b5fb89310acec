package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// FixturesDir returns internal/uitest/site/<site>/testdata/fixtures.
func FixturesDir(site string) string {
	_, filename, _, _ := runtime.Caller(0)
	base := filepath.Join(filepath.Dir(filepath.Dir(filename)), "site")
	return filepath.Join(base, site, "testdata", "fixtures")
}

// LoadFixture reads the HTML fixture name of a site.
func LoadFixture(t testing.TB, site, name string) string {
	t.Helper()
	path := filepath.Join(FixturesDir(site), name+".html")
	data, err := os.ReadFile(path)
	require.NoError(t, err, "load fixture %s/%s", site, name)
	return string(data)
}

// FixtureFS serves a site's fixtures, e.g. to htmldriver.WithFS.
func FixtureFS(t testing.TB, site string) fs.FS {
	t.Helper()
	dir := FixturesDir(site)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir(), "%s is not a directory", dir)
	return os.DirFS(dir)
}
