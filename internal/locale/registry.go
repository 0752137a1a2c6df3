// Package locale owns the list of languages the service speaks and
// negotiates a request language against it.
package locale

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
	"gopkg.in/yaml.v3"
)

// Language is one supported UI/content language.
type Language struct {
	Code        string `json:"code" yaml:"code"`
	Name        string `json:"name" yaml:"-"`
	EnglishName string `json:"english_name" yaml:"-"`
	// TranslateCode overrides the code sent to translation providers.
	TranslateCode string `json:"-" yaml:"translate_code,omitempty"`
}

type localesFile struct {
	Default   string     `yaml:"default"`
	Languages []Language `yaml:"languages"`
}

type Registry struct {
	mu        sync.RWMutex
	path      string
	def       string
	languages []Language
	byCode    map[string]Language
	matcher   language.Matcher
}

var ErrNoLanguages = errors.New("locales file lists no languages")

// NewRegistry builds a registry from explicit codes. The default is placed
// first so the matcher falls back to it.
func NewRegistry(def string, codes ...string) (*Registry, error) {
	langs := make([]Language, 0, len(codes))
	for _, c := range codes {
		langs = append(langs, Language{Code: c})
	}
	r := &Registry{}
	if err := r.apply(localesFile{Default: def, Languages: langs}); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadFromFile reads a YAML locales file.
func LoadFromFile(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the backing file. The previous state is kept on error.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("failed to read locales file: %w", err)
	}

	var file localesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse locales file: %w", err)
	}
	return r.apply(file)
}

func (r *Registry) apply(file localesFile) error {
	if len(file.Languages) == 0 {
		return ErrNoLanguages
	}
	if file.Default == "" {
		file.Default = file.Languages[0].Code
	}

	ordered := make([]Language, 0, len(file.Languages))
	byCode := make(map[string]Language, len(file.Languages))
	for _, l := range file.Languages {
		tag, err := language.Parse(l.Code)
		if err != nil {
			return fmt.Errorf("invalid language code %q: %w", l.Code, err)
		}
		l.Code = tag.String()
		l.Name = display.Self.Name(tag)
		l.EnglishName = display.English.Tags().Name(tag)
		if l.TranslateCode == "" {
			l.TranslateCode = l.Code
		}
		if _, dup := byCode[l.Code]; dup {
			continue
		}
		byCode[l.Code] = l
		if l.Code == file.Default {
			ordered = append([]Language{l}, ordered...)
		} else {
			ordered = append(ordered, l)
		}
	}
	if _, ok := byCode[file.Default]; !ok {
		return fmt.Errorf("default language %q is not in the language list", file.Default)
	}

	tags := make([]language.Tag, len(ordered))
	for i, l := range ordered {
		tags[i] = language.MustParse(l.Code)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.def = file.Default
	r.languages = ordered
	r.byCode = byCode
	r.matcher = language.NewMatcher(tags)
	return nil
}

func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// All returns the supported languages, default first.
func (r *Registry) All() []Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Language, len(r.languages))
	copy(out, r.languages)
	return out
}

func (r *Registry) IsSupported(code string) bool {
	_, ok := r.Lookup(code)
	return ok
}

// Lookup finds a supported language by exact or canonicalized code.
func (r *Registry) Lookup(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Language{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.byCode[code]; ok {
		return l, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	l, ok := r.byCode[tag.String()]
	return l, ok
}

// Match picks the best supported language for a code or an
// Accept-Language header value. Unknown input yields the default.
func (r *Registry) Match(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return r.Default()
	}
	if l, ok := r.Lookup(value); ok {
		return l.Code
	}

	tags, _, err := language.ParseAcceptLanguage(value)
	if err != nil || len(tags) == 0 {
		return r.Default()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, idx, conf := r.matcher.Match(tags...)
	if conf == language.No {
		return r.def
	}
	return r.languages[idx].Code
}

// DisplayName returns the name of code written in the language of in,
// e.g. DisplayName("ja", "ko") == "일본어".
func (r *Registry) DisplayName(code, in string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	inTag, err := language.Parse(in)
	if err != nil {
		return display.Self.Name(tag)
	}
	if name := display.Tags(inTag).Name(tag); name != "" {
		return name
	}
	return display.Self.Name(tag)
}
