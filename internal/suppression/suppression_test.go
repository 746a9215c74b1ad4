package suppression

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/lintgate/internal/engine"
	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exclude-cpd.properties")
	content := "# generated code\n\ncom/acme/A.java, com/acme/B.java\n  ,  \norg.acme.Legacy\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Count())

	empty, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count())
	assert.False(t, empty.IsSuppressed([]string{"/p/A.java"}))

	_, err = Load(filepath.Join(dir, "absent.properties"))
	var cfgErr *lgerrors.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "absent.properties")
}

func TestIsSuppressed(t *testing.T) {
	f, err := Parse(strings.NewReader(strings.Join([]string{
		"com/acme/A.java,com/acme/B.java",
		"com.acme.Single",
		"Foo,FooBar",
	}, "\n")))
	require.NoError(t, err)

	tests := []struct {
		name  string
		files []string
		want  bool
	}{
		{"pair in any order", []string{"/src/com/acme/B.java", "/src/com/acme/A.java"}, true},
		{"windows separators", []string{`C:\src\com\acme\A.java`, `C:\src\com\acme\B.java`}, true},
		{"size mismatch", []string{"/src/com/acme/A.java", "/src/com/acme/B.java", "/src/com/acme/C.java"}, false},
		{"duplicated file counts once", []string{"/src/com/acme/Single.java", "/src/com/acme/Single.java"}, true},
		{"single fragment", []string{"/src/com/acme/Single.java"}, true},
		{"pair missing member", []string{"/src/com/acme/A.java", "/src/com/acme/Z.java"}, false},
		{"backtracking finds bijection", []string{"/x/FooBar.java", "/x/Foo.java"}, true},
		{"one file cannot satisfy two fragments", []string{"/x/FooBar.java", "/x/Baz.java"}, false},
		{"no files", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsSuppressed(tt.files))
		})
	}
}

func TestFindingFiles(t *testing.T) {
	d := engine.Duplication{Marks: []engine.Mark{{File: "/a/A.java"}, {File: "/a/B.java"}}}
	assert.Equal(t, []string{"/a/A.java", "/a/B.java"}, DuplicationFiles(d))
	assert.Equal(t, []string{"/a/A.java"}, ViolationFiles(engine.Violation{File: "/a/A.java"}))
}
