// Package prefs хранит пользовательские настройки устройства.
//
// Запись одна на установку и не привязана к пользователю: кто бы ни вошёл
// на устройстве, он видит те же настройки.
package prefs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rajivgeraev/aqar/internal/kvstore"
)

const storageKey = "preferences"

var (
	// ErrUnknownKey – ключ настройки не распознан
	ErrUnknownKey = errors.New("unknown preference key")
	// ErrInvalidValue – значение не подходит по типу или домену
	ErrInvalidValue = errors.New("invalid preference value")
)

// Ключи настроек в том виде, в каком они лежат в хранилище
const (
	KeyLanguage             = "language"
	KeyCurrency             = "currency"
	KeyShowOnboarding       = "showOnboarding"
	KeyGridView             = "gridView"
	KeyNotificationsEnabled = "notificationsEnabled"
	KeyAutoSaveSearch       = "autoSaveSearch"
	KeyCompactMode          = "compactMode"
)

// Языки интерфейса
const (
	LanguageArabic  = "ar"
	LanguageEnglish = "en"
)

// Record – настройки пользователя
type Record struct {
	Language             string `json:"language"`
	Currency             string `json:"currency"`
	ShowOnboarding       bool   `json:"showOnboarding"`
	GridView             bool   `json:"gridView"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	AutoSaveSearch       bool   `json:"autoSaveSearch"`
	CompactMode          bool   `json:"compactMode"`
}

// Defaults возвращает настройки по умолчанию
func Defaults() Record {
	return Record{
		Language:             LanguageArabic,
		Currency:             "SAR",
		ShowOnboarding:       true,
		GridView:             true,
		NotificationsEnabled: true,
		AutoSaveSearch:       true,
		CompactMode:          false,
	}
}

// Direction возвращает направление текста для языка
func Direction(language string) string {
	if language == LanguageArabic {
		return "rtl"
	}
	return "ltr"
}

// DirectionSetter применяет направление текста к интерфейсу
type DirectionSetter interface {
	SetDirection(dir string)
}

// Store – хранилище настроек
type Store struct {
	mu        sync.Mutex
	kv        *kvstore.Store
	direction DirectionSetter
}

// NewStore создаёт хранилище настроек. direction может быть nil.
func NewStore(kv *kvstore.Store, direction DirectionSetter) *Store {
	return &Store{kv: kv, direction: direction}
}

// Get возвращает текущие настройки, недостающие поля берутся из Defaults
func (s *Store) Get() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Set меняет одну настройку и сохраняет запись целиком
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.load()
	if err := assign(&rec, key, value); err != nil {
		return err
	}
	kvstore.Put(s.kv, storageKey, rec)

	if key == KeyLanguage {
		s.applyDirection(rec.Language)
	}
	return nil
}

// Reset возвращает настройки по умолчанию
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Defaults()
	kvstore.Put(s.kv, storageKey, rec)
	s.applyDirection(rec.Language)
}

// Apply применяет текущее направление текста, вызывается при старте
func (s *Store) Apply() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.applyDirection(s.load().Language)
}

func (s *Store) applyDirection(language string) {
	if s.direction != nil {
		s.direction.SetDirection(Direction(language))
	}
}

// load читает запись поверх значений по умолчанию, поэтому отсутствующие
// в JSON ключи остаются заполненными
func (s *Store) load() Record {
	stored, ok := kvstore.Get[storedRecord](s.kv, storageKey)
	rec := Defaults()
	if !ok {
		return rec
	}
	stored.mergeInto(&rec)
	return rec
}

// storedRecord различает отсутствующий ключ и false
type storedRecord struct {
	Language             *string `json:"language"`
	Currency             *string `json:"currency"`
	ShowOnboarding       *bool   `json:"showOnboarding"`
	GridView             *bool   `json:"gridView"`
	NotificationsEnabled *bool   `json:"notificationsEnabled"`
	AutoSaveSearch       *bool   `json:"autoSaveSearch"`
	CompactMode          *bool   `json:"compactMode"`
}

func (r storedRecord) mergeInto(rec *Record) {
	if r.Language != nil && validLanguage(*r.Language) {
		rec.Language = *r.Language
	}
	if r.Currency != nil && *r.Currency != "" {
		rec.Currency = *r.Currency
	}
	mergeBool(&rec.ShowOnboarding, r.ShowOnboarding)
	mergeBool(&rec.GridView, r.GridView)
	mergeBool(&rec.NotificationsEnabled, r.NotificationsEnabled)
	mergeBool(&rec.AutoSaveSearch, r.AutoSaveSearch)
	mergeBool(&rec.CompactMode, r.CompactMode)
}

func mergeBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func validLanguage(lang string) bool {
	return lang == LanguageArabic || lang == LanguageEnglish
}

func assign(rec *Record, key string, value any) error {
	switch key {
	case KeyLanguage:
		lang, ok := value.(string)
		if !ok || !validLanguage(lang) {
			return fmt.Errorf("%s=%v: %w", key, value, ErrInvalidValue)
		}
		rec.Language = lang
	case KeyCurrency:
		cur, ok := value.(string)
		if !ok || cur == "" {
			return fmt.Errorf("%s=%v: %w", key, value, ErrInvalidValue)
		}
		rec.Currency = cur
	case KeyShowOnboarding:
		return assignBool(&rec.ShowOnboarding, key, value)
	case KeyGridView:
		return assignBool(&rec.GridView, key, value)
	case KeyNotificationsEnabled:
		return assignBool(&rec.NotificationsEnabled, key, value)
	case KeyAutoSaveSearch:
		return assignBool(&rec.AutoSaveSearch, key, value)
	case KeyCompactMode:
		return assignBool(&rec.CompactMode, key, value)
	default:
		return fmt.Errorf("%q: %w", key, ErrUnknownKey)
	}
	return nil
}

func assignBool(dst *bool, key string, value any) error {
	b, ok := value.(bool)
	if !ok {
		return fmt.Errorf("%s=%v: %w", key, value, ErrInvalidValue)
	}
	*dst = b
	return nil
}
