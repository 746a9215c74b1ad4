package rules

import (
	"encoding/xml"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/scan-io-git/lintgate/internal/engine"
)

// DefaultPriority applies to rules that do not declare one.
const DefaultPriority = 3

type rulesetXML struct {
	XMLName     xml.Name  `xml:"ruleset"`
	Name        string    `xml:"name,attr"`
	Description string    `xml:"description"`
	Rules       []ruleXML `xml:"rule"`
}

type ruleXML struct {
	Name            string `xml:"name,attr"`
	Message         string `xml:"message,attr"`
	Language        string `xml:"language,attr"`
	Priority        int    `xml:"priority,attr"`
	ExternalInfoURL string `xml:"externalInfoUrl,attr"`
	Description     string `xml:"description"`
	Pattern         string `xml:"pattern"`
}

// Rule is a compiled line rule.
type Rule struct {
	Name            string
	RuleSet         string
	Message         string
	Language        string
	Priority        int
	ExternalInfoURL string
	Pattern         *regexp.Regexp
}

// LoadRuleset parses a ruleset file and compiles its rules. When ref.Rule is
// set only that rule is returned.
func LoadRuleset(ref engine.RulesetRef) ([]Rule, error) {
	data, err := os.ReadFile(ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %q: %w", ref.Path, err)
	}
	return ParseRuleset(data, ref)
}

// ParseRuleset compiles the rules of an XML ruleset document.
func ParseRuleset(data []byte, ref engine.RulesetRef) ([]Rule, error) {
	var doc rulesetXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset %q: %w", ref.Path, err)
	}

	var out []Rule
	for _, r := range doc.Rules {
		if ref.Rule != "" && r.Name != ref.Rule {
			continue
		}
		pattern := strings.TrimSpace(r.Pattern)
		if pattern == "" {
			return nil, fmt.Errorf("rule %q in ruleset %q has no pattern", r.Name, ref.Path)
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %q in ruleset %q: %w", r.Name, ref.Path, err)
		}
		priority := r.Priority
		if priority <= 0 {
			priority = DefaultPriority
		}
		message := strings.TrimSpace(r.Message)
		if message == "" {
			message = strings.TrimSpace(r.Description)
		}
		out = append(out, Rule{
			Name:            r.Name,
			RuleSet:         doc.Name,
			Message:         message,
			Language:        strings.ToLower(r.Language),
			Priority:        priority,
			ExternalInfoURL: r.ExternalInfoURL,
			Pattern:         re,
		})
	}

	if ref.Rule != "" && len(out) == 0 {
		return nil, fmt.Errorf("rule %q not found in ruleset %q", ref.Rule, ref.Path)
	}
	return out, nil
}
