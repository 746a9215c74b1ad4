package engine

import (
	"sort"
	"strings"

	lgerrors "github.com/scan-io-git/lintgate/internal/errors"
)

// Language describes a source language the engines understand.
type Language struct {
	Name           string
	Aliases        []string
	Extensions     []string
	Versions       []string
	VersionAliases map[string]string
	DefaultVersion string
}

var javaVersions = []string{
	"1.3", "1.4", "1.5", "1.6", "1.7", "1.8",
	"9", "10", "11", "12", "13", "14", "15", "16", "17", "18", "19", "20", "21", "22", "23", "24", "25",
}

var languages = []Language{
	{
		Name:           "java",
		Extensions:     []string{"java"},
		Versions:       javaVersions,
		VersionAliases: map[string]string{"5": "1.5", "6": "1.6", "7": "1.7", "8": "1.8"},
		DefaultVersion: "17",
	},
	{
		Name:           "kotlin",
		Extensions:     []string{"kt", "kts"},
		Versions:       []string{"1.6", "1.7", "1.8", "1.9", "2.0", "2.1"},
		DefaultVersion: "2.1",
	},
	{
		Name:           "javascript",
		Aliases:        []string{"ecmascript", "js"},
		Extensions:     []string{"js", "mjs", "cjs"},
		Versions:       []string{"3", "5", "6", "7", "8", "9", "ES6"},
		VersionAliases: map[string]string{"es5": "5", "es6": "ES6", "2015": "ES6"},
		DefaultVersion: "ES6",
	},
	{
		Name:           "typescript",
		Aliases:        []string{"ts"},
		Extensions:     []string{"ts", "tsx"},
		Versions:       []string{"4", "5"},
		DefaultVersion: "5",
	},
	{
		Name:           "apex",
		Aliases:        []string{"apexcode"},
		Extensions:     []string{"cls", "trigger"},
		Versions:       []string{"58", "59", "60", "61", "62"},
		DefaultVersion: "62",
	},
	{
		Name:           "go",
		Extensions:     []string{"go"},
		Versions:       []string{"1.21", "1.22", "1.23", "1.24", "1.25"},
		DefaultVersion: "1.25",
	},
	{
		Name:           "python",
		Extensions:     []string{"py"},
		Versions:       []string{"3"},
		DefaultVersion: "3",
	},
	{
		Name:           "xml",
		Aliases:        []string{"pom", "wsdl", "xsl"},
		Extensions:     []string{"xml", "pom", "xsd", "wsdl", "xsl", "xslt"},
		Versions:       []string{"1.0", "1.1"},
		DefaultVersion: "1.0",
	},
	{
		Name:           "jsp",
		Extensions:     []string{"jsp", "jspx", "jspf", "tag"},
		Versions:       []string{"2"},
		DefaultVersion: "2",
	},
	{
		Name:           "vm",
		Aliases:        []string{"velocity"},
		Extensions:     []string{"vm"},
		Versions:       []string{"2.3"},
		DefaultVersion: "2.3",
	},
}

// LookupLanguage returns the language registered under name or one of its aliases.
func LookupLanguage(name string) (*Language, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i := range languages {
		l := &languages[i]
		if l.Name == n {
			return l, nil
		}
		for _, alias := range l.Aliases {
			if alias == n {
				return l, nil
			}
		}
	}
	return nil, &lgerrors.UnsupportedLanguageError{Language: name, Known: LanguageNames()}
}

// LanguageNames returns the registered language names sorted.
func LanguageNames() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.Name)
	}
	sort.Strings(names)
	return names
}

// ResolveVersion maps a requested version to a known one. Empty selects the default.
func (l *Language) ResolveVersion(version string) (string, error) {
	v := strings.TrimSpace(version)
	if v == "" {
		return l.DefaultVersion, nil
	}
	if canonical, ok := l.VersionAliases[strings.ToLower(v)]; ok {
		v = canonical
	}
	for _, known := range l.Versions {
		if strings.EqualFold(known, v) {
			return known, nil
		}
	}
	return "", &lgerrors.UnsupportedVersionError{Language: l.Name, Version: version, Known: l.Versions}
}
