package request

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSpecifier(t *testing.T) {
	tests := []struct {
		spec         string
		wantLocation string
		wantRule     string
	}{
		{"https://example.com/rules/custom.xml", "https://example.com/rules/custom.xml", ""},
		{"s3://bucket/rules/custom", "s3://bucket/rules/custom", ""},
		{"config/custom.xml", "config/custom.xml", ""},
		{"rulesets/java/basic.xml/EmptyCatchBlock", "rulesets/java/basic.xml", "EmptyCatchBlock"},
		{"java-basic/EmptyCatchBlock", "rulesets/java/basic.xml", "EmptyCatchBlock"},
		{"java-basic", "rulesets/java/basic.xml", ""},
		{"java-best-practices", "java-best-practices", ""},
		{"custom", "custom", ""},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			location, rule := ResolveSpecifier(tt.spec)
			assert.Equal(t, tt.wantLocation, location)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestTargetName(t *testing.T) {
	tests := map[string]string{
		"rulesets/java/basic.xml":             "basic.xml",
		"https://host/get?name=rules&v=1%202": "get_name_rules_v_1_202.xml",
		`C:\rules\custom`:                     "custom.xml",
		"s3://bucket/team/rules":              "rules.xml",
	}
	for in, want := range tests {
		assert.Equal(t, want, TargetName(in), in)
	}
}

type fakeObjects struct {
	bucket, key string
	data        []byte
}

func (f *fakeObjects) Fetch(ctx context.Context, bucket, key string) ([]byte, error) {
	f.bucket, f.key = bucket, key
	return f.data, nil
}

func TestRulesetFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.xml" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<ruleset name=\"remote\"/>"))
	}))
	defer srv.Close()

	local := filepath.Join(t.TempDir(), "local.xml")
	require.NoError(t, os.WriteFile(local, []byte("<ruleset name=\"local\"/>"), 0o644))

	objects := &fakeObjects{data: []byte("<ruleset name=\"s3\"/>")}
	f := NewRulesetFetcher(resty.New(), objects)
	ctx := context.Background()

	data, err := f.Fetch(ctx, srv.URL+"/custom.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "remote")

	_, err = f.Fetch(ctx, srv.URL+"/missing.xml")
	assert.ErrorContains(t, err, "404")

	data, err = f.Fetch(ctx, local)
	require.NoError(t, err)
	assert.Contains(t, string(data), "local")

	data, err = f.Fetch(ctx, "file://"+filepath.ToSlash(local))
	require.NoError(t, err)
	assert.Contains(t, string(data), "local")

	data, err = f.Fetch(ctx, "rulesets/java/basic.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "EmptyCatchBlock")

	data, err = f.Fetch(ctx, "s3://team-bucket/rules/custom.xml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "s3")
	assert.Equal(t, "team-bucket", objects.bucket)
	assert.Equal(t, "rules/custom.xml", objects.key)

	_, err = f.Fetch(ctx, "rulesets/cobol/none.xml")
	assert.Error(t, err)
}
