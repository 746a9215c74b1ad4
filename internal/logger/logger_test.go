package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/lintgate/internal/config"
)

func TestDetermineLogLevel(t *testing.T) {
	t.Setenv("LINTGATE_LOG_LEVEL", "")
	assert.Equal(t, hclog.Info, determineLogLevel(nil))
	assert.Equal(t, hclog.Debug, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))

	t.Setenv("LINTGATE_LOG_LEVEL", "error")
	assert.Equal(t, hclog.Error, determineLogLevel(&config.Config{Logger: config.Logger{Level: "debug"}}))
}

func TestRedirectStdLogInstallsOnce(t *testing.T) {
	defer log.SetOutput(os.Stderr)

	var first, second bytes.Buffer
	l1 := hclog.New(&hclog.LoggerOptions{Output: &first, DisableTime: true})
	l2 := hclog.New(&hclog.LoggerOptions{Output: &second, DisableTime: true})

	installed := RedirectStdLog(l1)
	assert.True(t, installed || StdLogRedirected())
	assert.False(t, RedirectStdLog(l2))

	if installed {
		log.Print("[WARN] parser gave up on Foo.java")
		assert.Contains(t, first.String(), "parser gave up on Foo.java")
		assert.Contains(t, first.String(), "engine")
	}
	assert.Empty(t, second.String())
}
