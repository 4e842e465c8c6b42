// Package locale selects localized text for workflow views.
//
// A Catalog maps message key -> language -> text. Languages are kept in a
// fixed order; the language toggle walks that order and wraps around.
// Catalogs are immutable after Load and safe for concurrent use.
package locale

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var (
	// ErrNoLanguages is returned when a catalog declares no languages.
	ErrNoLanguages = errors.New("locale: catalog declares no languages")
	// ErrBadLanguage is returned for a language that is not a valid BCP 47 tag.
	ErrBadLanguage = errors.New("locale: invalid language tag")
	// ErrIncomplete is returned when a message lacks a supported language.
	ErrIncomplete = errors.New("locale: catalog incomplete")
)

type catalogFile struct {
	Default   string                       `yaml:"default"`
	Languages []string                     `yaml:"languages"`
	Messages  map[string]map[string]string `yaml:"messages"`
}

// Catalog is a loaded message table.
type Catalog struct {
	languages []string
	def       string
	matcher   language.Matcher
	messages  map[string]map[string]string
}

// Load parses and validates a YAML catalog. Every message must carry every
// declared language.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("locale: parse catalog: %w", err)
	}
	if len(file.Languages) == 0 {
		return nil, ErrNoLanguages
	}

	tags := make([]language.Tag, 0, len(file.Languages))
	for _, lang := range file.Languages {
		tag, err := language.Parse(lang)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrBadLanguage, lang)
		}
		tags = append(tags, tag)
	}

	def := file.Default
	if def == "" {
		def = file.Languages[0]
	}
	if !contains(file.Languages, def) {
		return nil, fmt.Errorf("%w: default %q is not a declared language", ErrBadLanguage, def)
	}

	var missing []string
	for key, texts := range file.Messages {
		for _, lang := range file.Languages {
			if _, ok := texts[lang]; !ok {
				missing = append(missing, key+"/"+lang)
			}
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	return &Catalog{
		languages: append([]string(nil), file.Languages...),
		def:       def,
		matcher:   language.NewMatcher(tags),
		messages:  file.Messages,
	}, nil
}

// Default returns the embedded catalog. It panics if the embedded table is
// invalid, which the package tests rule out.
func Default() *Catalog {
	c, err := Load(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// WithDefault returns a copy of c that falls back to lang.
func (c *Catalog) WithDefault(lang string) (*Catalog, error) {
	if !c.Supports(lang) {
		return nil, fmt.Errorf("%w: default %q is not a declared language", ErrBadLanguage, lang)
	}
	out := *c
	out.def = lang
	return &out, nil
}

// Select returns the text for key in lang. Unsupported languages fall back to
// the default language; unknown keys render as the key itself.
func (c *Catalog) Select(key, lang string) string {
	texts, ok := c.messages[key]
	if !ok {
		return key
	}
	if text, ok := texts[lang]; ok {
		return text
	}
	return texts[c.def]
}

// Has reports whether key exists.
func (c *Catalog) Has(key string) bool {
	_, ok := c.messages[key]
	return ok
}

// Next returns the language that follows lang in the toggle order.
func (c *Catalog) Next(lang string) string {
	for i, l := range c.languages {
		if l == lang {
			return c.languages[(i+1)%len(c.languages)]
		}
	}
	return c.languages[0]
}

// Match picks the best supported language for an Accept-Language header
// value. Empty or unmatched headers yield the default language.
func (c *Catalog) Match(acceptLanguage string) string {
	if strings.TrimSpace(acceptLanguage) == "" {
		return c.def
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return c.def
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return c.def
	}
	return c.languages[idx]
}

// Supports reports whether lang is a declared language.
func (c *Catalog) Supports(lang string) bool {
	return contains(c.languages, lang)
}

// Resolve returns lang when supported and the default language otherwise.
func (c *Catalog) Resolve(lang string) string {
	if c.Supports(lang) {
		return lang
	}
	return c.def
}

// Languages returns the toggle order.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.languages...)
}

// DefaultLanguage returns the fallback language.
func (c *Catalog) DefaultLanguage() string {
	return c.def
}

// Keys returns all message keys in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
