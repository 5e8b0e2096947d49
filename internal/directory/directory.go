// Package directory содержит справочник компаний для автодополнения
// при создании объявлений.
package directory

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/rajivgeraev/unlisted-api/internal/models"
)

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrInvalidISIN     = errors.New("invalid ISIN")
	ErrEmptyName       = errors.New("company name is required")
)

var isinPattern = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// ValidISIN проверяет формат ISIN (две буквы страны, девять символов, контрольная цифра)
func ValidISIN(isin string) bool {
	return isinPattern.MatchString(isin)
}

// NormalizeISIN приводит ISIN к каноническому виду
func NormalizeISIN(isin string) string {
	return strings.ToUpper(strings.TrimSpace(isin))
}

// Directory потокобезопасный справочник компаний по ISIN
type Directory struct {
	mu        sync.RWMutex
	companies map[string]models.Company
}

// New создаёт справочник с начальным набором компаний
func New(seed []models.Company) (*Directory, error) {
	d := &Directory{companies: make(map[string]models.Company, len(seed))}
	for _, c := range seed {
		if _, err := d.Upsert(c); err != nil {
			return nil, fmt.Errorf("компания %q: %w", c.ISIN, err)
		}
	}
	return d, nil
}

type seedFile struct {
	Companies []models.Company `yaml:"companies"`
}

// LoadFile читает список компаний из YAML-файла
func LoadFile(path string) ([]models.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения справочника: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("ошибка разбора справочника: %w", err)
	}
	return f.Companies, nil
}

// Search ищет компании по началу ISIN или вхождению в название без учёта регистра
func (d *Directory) Search(query string, limit int) []models.Company {
	q := strings.ToLower(strings.TrimSpace(query))

	d.mu.RLock()
	out := []models.Company{}
	for isin, c := range d.companies {
		if q == "" ||
			strings.HasPrefix(strings.ToLower(isin), q) ||
			strings.Contains(strings.ToLower(c.Name), q) {
			out = append(out, c)
		}
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Get возвращает компанию по ISIN
func (d *Directory) Get(isin string) (models.Company, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	c, ok := d.companies[NormalizeISIN(isin)]
	if !ok {
		return models.Company{}, ErrCompanyNotFound
	}
	return c, nil
}

// Upsert добавляет или обновляет компанию
func (d *Directory) Upsert(c models.Company) (models.Company, error) {
	c.ISIN = NormalizeISIN(c.ISIN)
	c.Name = strings.TrimSpace(c.Name)
	if !ValidISIN(c.ISIN) {
		return models.Company{}, ErrInvalidISIN
	}
	if c.Name == "" {
		return models.Company{}, ErrEmptyName
	}
	if c.Price.IsNegative() {
		c.Price = decimal.Zero
	}
	c.UpdatedAt = time.Now()

	d.mu.Lock()
	d.companies[c.ISIN] = c
	d.mu.Unlock()
	return c, nil
}

// Delete удаляет компанию из справочника
func (d *Directory) Delete(isin string) error {
	isin = NormalizeISIN(isin)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.companies[isin]; !ok {
		return ErrCompanyNotFound
	}
	delete(d.companies, isin)
	return nil
}

// Len возвращает количество компаний
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.companies)
}
