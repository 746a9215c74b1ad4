package engine

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// ReadSource reads a file and decodes it from the named encoding to UTF-8.
// An empty encoding means UTF-8.
func ReadSource(path, encoding string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var r io.Reader = f
	if encoding != "" && !strings.EqualFold(encoding, "utf-8") && !strings.EqualFold(encoding, "utf8") {
		enc, err := htmlindex.Get(encoding)
		if err != nil {
			return "", fmt.Errorf("unknown source encoding %q: %w", encoding, err)
		}
		r = transform.NewReader(f, enc.NewDecoder())
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

// ForEachBounded calls f for every index in [0, n) with at most limit calls in flight.
func ForEachBounded(limit, n int, f func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		guard <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f(i)
			<-guard
		}(i)
	}
	wg.Wait()
}
