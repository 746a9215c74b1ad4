// Package cpd is the in-process copy/paste detector. It finds maximal runs of
// identical tokens shared by two or more places and clusters identical runs.
package cpd

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/lintgate/internal/engine"
)

// DefaultMinimumTokens applies when the request does not set a minimum.
const DefaultMinimumTokens = 100

func init() {
	engine.RegisterBuiltin(engine.ToolCPD, func(logger hclog.Logger) engine.Engine {
		return New(logger)
	})
}

// Detector is the copy/paste detection engine.
type Detector struct {
	logger hclog.Logger
}

// New creates a Detector.
func New(logger hclog.Logger) *Detector {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Detector{logger: logger}
}

type sourceFile struct {
	path   string
	lines  []string
	tokens []Token
	err    *engine.ProcessingError
}

// Execute tokenizes the requested files and reports duplicated token runs.
func (d *Detector) Execute(ctx context.Context, req engine.Request) (engine.Result, error) {
	res := engine.Result{Tool: engine.ToolCPD}
	minTokens := req.MinimumTokens
	if minTokens <= 0 {
		minTokens = DefaultMinimumTokens
	}
	opts := TokenizeOptions{
		IgnoreLiterals:    req.IgnoreLiterals,
		IgnoreIdentifiers: req.IgnoreIdentifiers,
		IgnoreAnnotations: req.IgnoreAnnotations,
	}

	sources := make([]sourceFile, len(req.Files))
	engine.ForEachBounded(req.Threads, len(req.Files), func(i int) {
		if ctx.Err() != nil {
			return
		}
		sources[i] = d.load(req.Files[i], req, opts)
	})
	if err := ctx.Err(); err != nil {
		return res, err
	}

	var usable []sourceFile
	for _, s := range sources {
		if s.err != nil {
			res.Errors = append(res.Errors, *s.err)
			continue
		}
		usable = append(usable, s)
	}

	res.Duplications = findDuplications(usable, minTokens)
	d.logger.Debug("duplicate detection finished", "files", len(usable), "duplications", len(res.Duplications), "minimumTokens", minTokens)
	return res, nil
}

func (d *Detector) load(path string, req engine.Request, opts TokenizeOptions) sourceFile {
	s := sourceFile{path: path}
	text, err := engine.ReadSource(path, req.Encoding)
	if err != nil {
		s.err = &engine.ProcessingError{File: path, Message: "unable to read source", Detail: err.Error()}
		return s
	}
	s.lines = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	tokens, err := Tokenize(text, opts)
	if err != nil {
		var lexErr *LexicalError
		if req.SkipLexicalErrors && errors.As(err, &lexErr) {
			d.logger.Warn("skipping file with lexical error", "file", path, "error", err)
			return s
		}
		s.err = &engine.ProcessingError{File: path, Message: "lexical error", Detail: err.Error()}
		return s
	}
	s.tokens = tokens
	return s
}

type position struct {
	file  int
	index int
}

type stream struct {
	ids   []int
	owner []position
}

// buildStream interns token images and concatenates every file, each followed
// by a sentinel that equals nothing else.
func buildStream(files []sourceFile) stream {
	intern := map[string]int{}
	var s stream
	for fi, f := range files {
		for ti, t := range f.tokens {
			id, ok := intern[t.Image]
			if !ok {
				id = len(intern)
				intern[t.Image] = id
			}
			s.ids = append(s.ids, id)
			s.owner = append(s.owner, position{file: fi, index: ti})
		}
		s.ids = append(s.ids, -(fi + 1))
		s.owner = append(s.owner, position{file: fi, index: -1})
	}
	return s
}

func findDuplications(files []sourceFile, minTokens int) []engine.Duplication {
	s := buildStream(files)
	n := len(s.ids)
	if n < minTokens {
		return nil
	}

	const base = 1000003
	var pow uint64 = 1
	for i := 0; i < minTokens-1; i++ {
		pow *= base
	}

	buckets := map[uint64][]int{}
	var h uint64
	valid := 0
	for i := 0; i < n; i++ {
		id := s.ids[i]
		if id < 0 {
			h, valid = 0, 0
			continue
		}
		if valid == minTokens {
			h -= uint64(s.ids[i-minTokens]) * pow
			valid--
		}
		h = h*base + uint64(id)
		valid++
		if valid == minTokens {
			start := i - minTokens + 1
			buckets[h] = append(buckets[h], start)
		}
	}

	clusters := map[string]*cluster{}
	var order []string
	for _, starts := range buckets {
		if len(starts) < 2 {
			continue
		}
		for x := 0; x < len(starts); x++ {
			for y := x + 1; y < len(starts); y++ {
				a, b := starts[x], starts[y]
				if !equalRun(s.ids, a, b, minTokens) {
					continue
				}
				if a > 0 && s.ids[a-1] >= 0 && s.ids[a-1] == s.ids[b-1] {
					continue
				}
				length := minTokens
				for b+length < n && s.ids[a+length] >= 0 && s.ids[a+length] == s.ids[b+length] {
					length++
				}
				if s.owner[a].file == s.owner[b].file && a+length > b {
					continue
				}
				key := runKey(s.ids[a : a+length])
				c, ok := clusters[key]
				if !ok {
					c = &cluster{tokens: length, starts: map[int]struct{}{}}
					clusters[key] = c
					order = append(order, key)
				}
				c.starts[a] = struct{}{}
				c.starts[b] = struct{}{}
			}
		}
	}

	out := make([]engine.Duplication, 0, len(order))
	for _, key := range order {
		out = append(out, clusters[key].duplication(files, s))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tokens != out[j].Tokens {
			return out[i].Tokens > out[j].Tokens
		}
		return markLess(out[i].Marks[0], out[j].Marks[0])
	})
	return out
}

func equalRun(ids []int, a, b, length int) bool {
	for k := 0; k < length; k++ {
		if ids[a+k] != ids[b+k] {
			return false
		}
	}
	return true
}

func runKey(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(strconv.Itoa(id))
		sb.WriteByte(',')
	}
	return sb.String()
}

type cluster struct {
	tokens int
	starts map[int]struct{}
}

func (c *cluster) duplication(files []sourceFile, s stream) engine.Duplication {
	marks := make([]engine.Mark, 0, len(c.starts))
	for start := range c.starts {
		first := s.owner[start]
		last := s.owner[start+c.tokens-1]
		f := files[first.file]
		begin, end := f.tokens[first.index], f.tokens[last.index]
		marks = append(marks, engine.Mark{
			File:        f.path,
			BeginLine:   begin.Line,
			EndLine:     end.EndLine,
			BeginColumn: begin.Col,
			EndColumn:   end.EndCol,
		})
	}
	sort.Slice(marks, func(i, j int) bool { return markLess(marks[i], marks[j]) })

	lead := marks[0]
	var fragment string
	for _, f := range files {
		if f.path == lead.File {
			fragment = strings.Join(f.lines[lead.BeginLine-1:lead.EndLine], "\n")
			break
		}
	}
	return engine.Duplication{
		Lines:    lead.EndLine - lead.BeginLine + 1,
		Tokens:   c.tokens,
		Marks:    marks,
		Fragment: fragment,
	}
}

func markLess(a, b engine.Mark) bool {
	if a.File != b.File {
		return a.File < b.File
	}
	if a.BeginLine != b.BeginLine {
		return a.BeginLine < b.BeginLine
	}
	return a.BeginColumn < b.BeginColumn
}
