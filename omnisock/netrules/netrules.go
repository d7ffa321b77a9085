// Package netrules compiles allow and deny rule documents into an
// admission policy for resolved addresses.
package netrules

import (
	"fmt"

	"github.com/egdaemon/omnisock/omnisock"
	"github.com/egdaemon/omnisock/omnisock/internal/errorsx"
	"github.com/egdaemon/omnisock/omnisock/iprange"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Document is the serialized form of a policy. Rules use the textual
// formats accepted by iprange.ParseRule.
type Document struct {
	Allow []string `koanf:"allow"`
	Deny  []string `koanf:"deny"`
}

// ParseYAML compiles a yaml policy document.
func ParseYAML(raw []byte) (*Set, error) {
	return parse(raw, yaml.Parser())
}

// ParseJSON compiles a json policy document.
func ParseJSON(raw []byte) (*Set, error) {
	return parse(raw, json.Parser())
}

func parse(raw []byte, parser koanf.Parser) (*Set, error) {
	doc, err := decode(raw, parser)
	if err != nil {
		return nil, err
	}

	return Compile(doc)
}

func decode(raw []byte, parser koanf.Parser) (doc Document, err error) {
	k := koanf.New(".")

	if err = k.Load(rawbytes.Provider(raw), parser); err != nil {
		return doc, fmt.Errorf("netrules: load failed: %w", err)
	}

	if err = k.Unmarshal("", &doc); err != nil {
		return doc, fmt.Errorf("netrules: unmarshal failed: %w", err)
	}

	return doc, nil
}

// Set is a compiled policy. Deny rules veto first, then an empty allow
// list admits everything, otherwise the address must match an allow rule.
type Set struct {
	allow []iprange.Rule
	deny  []iprange.Rule
}

// Compile builds the policy from a document.
func Compile(doc Document) (*Set, error) {
	allow, aerr := rules(doc.Allow)
	deny, derr := rules(doc.Deny)

	if err := errorsx.Compact(aerr, derr); err != nil {
		return nil, err
	}

	return &Set{allow: allow, deny: deny}, nil
}

func rules(texts []string) ([]iprange.Rule, error) {
	compiled := make([]iprange.Rule, 0, len(texts))

	for _, s := range texts {
		r, err := iprange.ParseRule(s)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, r)
	}

	return compiled, nil
}

// Permitted reports whether the policy admits sa. A nil policy admits
// everything.
func (t *Set) Permitted(sa omnisock.Sockaddr) bool {
	if t == nil {
		return true
	}

	for _, r := range t.deny {
		if r.Contains(sa) {
			return false
		}
	}

	if len(t.allow) == 0 {
		return true
	}

	for _, r := range t.allow {
		if r.Contains(sa) {
			return true
		}
	}

	return false
}

// AllowSet merges the allow rules into a prefix set for
// omnisock.OptionAllow. Fails when an allow rule carries a mask that
// prefixes cannot express.
func (t *Set) AllowSet() (*iprange.RuleSet, error) {
	if t == nil {
		return iprange.NewRuleSet()
	}
	return iprange.NewRuleSet(t.allow...)
}
