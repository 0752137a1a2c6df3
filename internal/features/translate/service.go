package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/features/posts"
	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MaxTexts   = 100
	MaxTextLen = 5000
)

var (
	ErrUnsupportedTarget = errors.New("unsupported target language")
	ErrNoText            = errors.New("nothing to translate")
	ErrTooManyTexts      = errors.New("too many texts")
	ErrTextTooLong       = errors.New("text is too long")
	ErrUnavailable       = errors.New("translation is unavailable")
)

// Translated is one input text with its translation.
type Translated struct {
	Text       string `json:"text"`
	Translated string `json:"translated"`
	Source     string `json:"source,omitempty"`
	Cached     bool   `json:"cached"`
}

type PostTranslation struct {
	PostID    uuid.UUID `json:"post_id"`
	Target    string    `json:"target"`
	Content   string    `json:"content"`
	PlaceName string    `json:"place_name,omitempty"`
	Address   string    `json:"address,omitempty"`
}

type Service struct {
	db        *gorm.DB
	locales   *locale.Registry
	posts     *posts.Service
	providers []Translator
}

// NewService tries providers in order; nil providers are skipped.
func NewService(db *gorm.DB, locales *locale.Registry, postsSvc *posts.Service, providers ...Translator) *Service {
	s := &Service{db: db, locales: locales, posts: postsSvc}
	for _, p := range providers {
		if p != nil {
			s.providers = append(s.providers, p)
		}
	}
	return s
}

func (s *Service) Available() bool {
	return len(s.providers) > 0
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Translate translates texts into target, serving repeats from the cache.
// Blank texts come back unchanged.
func (s *Service) Translate(ctx context.Context, texts []string, target, source string) ([]Translated, error) {
	lang, ok := s.locales.Lookup(target)
	if !ok {
		return nil, ErrUnsupportedTarget
	}
	target = lang.Code
	if src, ok := s.locales.Lookup(source); ok {
		source = src.TranslateCode
	} else {
		source = ""
	}

	switch {
	case len(texts) == 0:
		return nil, ErrNoText
	case len(texts) > MaxTexts:
		return nil, ErrTooManyTexts
	}

	out := make([]Translated, len(texts))
	hashes := make([]string, 0, len(texts))
	for i, t := range texts {
		if utf8.RuneCountInString(t) > MaxTextLen {
			return nil, ErrTextTooLong
		}
		out[i] = Translated{Text: t}
		if strings.TrimSpace(t) == "" {
			out[i].Cached = true
			continue
		}
		hashes = append(hashes, hashText(t))
	}
	if len(hashes) == 0 {
		return out, nil
	}

	var rows []Translation
	if err := s.db.Where("target = ? AND text_hash IN ?", target, hashes).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read translation cache: %w", err)
	}
	cached := make(map[string]Translation, len(rows))
	for _, r := range rows {
		cached[r.TextHash] = r
	}

	var missing []string
	seen := map[string]bool{}
	for i, t := range texts {
		if out[i].Cached {
			continue
		}
		h := hashText(t)
		if r, ok := cached[h]; ok {
			out[i].Translated, out[i].Source, out[i].Cached = r.Translated, r.Source, true
			continue
		}
		if !seen[h] {
			seen[h] = true
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	results, provider, err := s.callProviders(ctx, missing, lang.TranslateCode, source)
	if err != nil {
		return nil, err
	}

	fresh := make(map[string]Result, len(missing))
	entries := make([]Translation, len(missing))
	for i, t := range missing {
		h := hashText(t)
		fresh[h] = results[i]
		entries[i] = Translation{
			ID:         uuid.New(),
			TextHash:   h,
			Target:     target,
			Source:     results[i].Source,
			Translated: results[i].Text,
			Provider:   provider,
		}
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&entries).Error; err != nil {
		slog.Warn("failed to cache translations", "target", target, "error", err)
	}

	for i, t := range texts {
		if out[i].Cached {
			continue
		}
		r := fresh[hashText(t)]
		out[i].Translated, out[i].Source = r.Text, r.Source
	}
	return out, nil
}

func (s *Service) callProviders(ctx context.Context, texts []string, target, source string) ([]Result, string, error) {
	if len(s.providers) == 0 {
		return nil, "", ErrUnavailable
	}
	var errs []error
	for _, p := range s.providers {
		results, err := p.Translate(ctx, texts, target, source)
		if err == nil {
			return results, p.Name(), nil
		}
		slog.Warn("translation provider failed", "provider", p.Name(), "target", target, "error", err)
		errs = append(errs, err)
	}
	return nil, "", fmt.Errorf("%w: %w", ErrUnavailable, errors.Join(errs...))
}

// TranslatePost translates the readable text of a post.
func (s *Service) TranslatePost(ctx context.Context, postID uuid.UUID, target string) (*PostTranslation, error) {
	post, err := s.posts.Get(postID)
	if err != nil {
		return nil, err
	}

	texts := []string{post.Content, post.PlaceName, post.Address}
	translated, err := s.Translate(ctx, texts, target, "")
	if err != nil {
		return nil, err
	}

	return &PostTranslation{
		PostID:    post.ID,
		Target:    s.locales.Match(target),
		Content:   translated[0].Translated,
		PlaceName: translated[1].Translated,
		Address:   translated[2].Translated,
	}, nil
}
