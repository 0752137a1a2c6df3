package content

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/tripmate-backend/internal/locale"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("content not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrTitleRequired       = errors.New("title is required")
	ErrImageRequired       = errors.New("image_url is required")
	ErrQuestionRequired    = errors.New("question and answer are required")
	ErrBodyRequired        = errors.New("body is required")
)

type Service struct {
	db      *gorm.DB
	locales *locale.Registry
	now     func() time.Time
}

func NewService(db *gorm.DB, locales *locale.Registry) *Service {
	return &Service{db: db, locales: locales, now: time.Now}
}

// Banners returns active banners in lang, or in the default language when
// lang has none.
func (s *Service) Banners(lang string) ([]Banner, error) {
	now := s.now().UTC()
	var banners []Banner
	err := s.withFallback(lang, func(code string) (int, error) {
		banners = []Banner{}
		err := s.db.Where("language = ? AND active = ?", code, true).
			Where("starts_at IS NULL OR starts_at <= ?", now).
			Where("ends_at IS NULL OR ends_at > ?", now).
			Order("sort_order ASC, created_at ASC").
			Find(&banners).Error
		return len(banners), err
	})
	return banners, err
}

func (s *Service) FAQs(lang, category string) ([]FAQ, error) {
	var faqs []FAQ
	err := s.withFallback(lang, func(code string) (int, error) {
		faqs = []FAQ{}
		q := s.db.Where("language = ?", code)
		if category != "" {
			q = q.Where("category = ?", category)
		}
		err := q.Order("sort_order ASC, created_at ASC").Find(&faqs).Error
		return len(faqs), err
	})
	return faqs, err
}

// Notices lists published notices, pinned first.
func (s *Service) Notices(lang string, page, limit int) ([]Notice, int64, error) {
	now := s.now().UTC()
	var notices []Notice
	var total int64
	err := s.withFallback(lang, func(code string) (int, error) {
		notices = []Notice{}
		published := func() *gorm.DB {
			return s.db.Model(&Notice{}).Where("language = ? AND published_at <= ?", code, now)
		}
		if err := published().Count(&total).Error; err != nil {
			return 0, err
		}
		err := published().Order("pinned DESC, published_at DESC").
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&notices).Error
		return int(total), err
	})
	return notices, total, err
}

func (s *Service) Notice(id uuid.UUID) (*Notice, error) {
	var n Notice
	if err := s.db.First(&n, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// withFallback runs query for lang and, if that finds nothing, for the
// registry default.
func (s *Service) withFallback(lang string, query func(code string) (int, error)) error {
	def := s.locales.Default()
	if !s.locales.IsSupported(lang) {
		lang = def
	}
	n, err := query(lang)
	if err != nil || n > 0 || lang == def {
		return err
	}
	_, err = query(def)
	return err
}

func (b *Banner) prepare(locales *locale.Registry) error {
	b.Title = strings.TrimSpace(b.Title)
	switch {
	case !locales.IsSupported(b.Language):
		return ErrUnsupportedLanguage
	case b.Title == "":
		return ErrTitleRequired
	case strings.TrimSpace(b.ImageURL) == "":
		return ErrImageRequired
	}
	b.StartsAt = utc(b.StartsAt)
	b.EndsAt = utc(b.EndsAt)
	return nil
}

func (f *FAQ) prepare(locales *locale.Registry) error {
	f.Question = strings.TrimSpace(f.Question)
	f.Answer = strings.TrimSpace(f.Answer)
	switch {
	case !locales.IsSupported(f.Language):
		return ErrUnsupportedLanguage
	case f.Question == "" || f.Answer == "":
		return ErrQuestionRequired
	}
	return nil
}

func (n *Notice) prepare(locales *locale.Registry) error {
	n.Title = strings.TrimSpace(n.Title)
	switch {
	case !locales.IsSupported(n.Language):
		return ErrUnsupportedLanguage
	case n.Title == "":
		return ErrTitleRequired
	case strings.TrimSpace(n.Body) == "":
		return ErrBodyRequired
	}
	if n.PublishedAt.IsZero() {
		n.PublishedAt = time.Now()
	}
	n.PublishedAt = n.PublishedAt.UTC()
	return nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// item is the set of editable content types.
type item[T any] interface {
	*T
	prepare(*locale.Registry) error
	setID(uuid.UUID)
}

func create[T any, P item[T]](s *Service, v P) error {
	if err := v.prepare(s.locales); err != nil {
		return err
	}
	v.setID(uuid.New())
	return s.db.Create(v).Error
}

func update[T any, P item[T]](s *Service, id uuid.UUID, v P) error {
	if err := v.prepare(s.locales); err != nil {
		return err
	}
	v.setID(id)
	res := s.db.Model(v).Select("*").Omit("id", "created_at").Updates(v)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func remove[T any, P item[T]](s *Service, id uuid.UUID) error {
	res := s.db.Where("id = ?", id).Delete(P(new(T)))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SeedFile is the editorial YAML layout loaded by Seed.
type SeedFile struct {
	Banners []Banner `yaml:"banners"`
	FAQs    []FAQ    `yaml:"faqs"`
	Notices []Notice `yaml:"notices"`
}

type SeedResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// Seed loads editorial content from a YAML file. Banners and notices are
// matched on (language, title), FAQs on (language, question); matches are
// updated in place so seeding twice is harmless.
func (s *Service) Seed(path string) (*SeedResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse content file: %w", err)
	}

	result := &SeedResult{}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		scoped := &Service{db: tx, locales: s.locales, now: s.now}
		for i := range file.Banners {
			b := &file.Banners[i]
			if err := seedOne(scoped, b, result, "language = ? AND title = ?", b.Language, strings.TrimSpace(b.Title)); err != nil {
				return fmt.Errorf("banner %q: %w", b.Title, err)
			}
		}
		for i := range file.FAQs {
			f := &file.FAQs[i]
			if err := seedOne(scoped, f, result, "language = ? AND question = ?", f.Language, strings.TrimSpace(f.Question)); err != nil {
				return fmt.Errorf("faq %q: %w", f.Question, err)
			}
		}
		for i := range file.Notices {
			n := &file.Notices[i]
			if err := seedOne(scoped, n, result, "language = ? AND title = ?", n.Language, strings.TrimSpace(n.Title)); err != nil {
				return fmt.Errorf("notice %q: %w", n.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func seedOne[T any, P item[T]](s *Service, v P, result *SeedResult, where string, args ...interface{}) error {
	var ids []uuid.UUID
	if err := s.db.Model(P(new(T))).Where(where, args...).Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		result.Created++
		return create[T, P](s, v)
	}
	result.Updated++
	return update[T, P](s, ids[0], v)
}
