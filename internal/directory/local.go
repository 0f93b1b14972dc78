package directory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"
	"gopkg.in/yaml.v3"

	"patientsearch/internal/domain"
)

// DefaultLimit caps local results, like a server-side page
const DefaultLimit = 20

// rosterFile is the YAML layout of a local roster
type rosterFile struct {
	Patients []rosterEntry `yaml:"patients"`
}

type rosterEntry struct {
	ID            string `yaml:"id"`
	PatientNumber string `yaml:"patientId"`
	FirstName     string `yaml:"firstName"`
	LastName      string `yaml:"lastName"`
	FullName      string `yaml:"fullName"`
	DateOfBirth   string `yaml:"dateOfBirth"`
	Phone         string `yaml:"phoneNumber"`
	Email         string `yaml:"email"`
	Address       string `yaml:"address"`
}

// LoadRoster reads a YAML roster file
func LoadRoster(path string) ([]domain.PatientSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roster: %w", err)
	}

	var file rosterFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse roster: %w", err)
	}

	patients := make([]domain.PatientSummary, 0, len(file.Patients))
	for i, e := range file.Patients {
		if e.ID == "" {
			return nil, fmt.Errorf("roster entry %d has no id", i)
		}
		patients = append(patients, domain.PatientSummary{
			ID:            domain.PatientID(e.ID),
			PatientNumber: e.PatientNumber,
			FirstName:     e.FirstName,
			LastName:      e.LastName,
			FullName:      e.FullName,
			DateOfBirth:   e.DateOfBirth,
			Phone:         e.Phone,
			Email:         e.Email,
			Address:       e.Address,
		})
	}
	return patients, nil
}

// LocalProvider searches an in-memory roster
type LocalProvider struct {
	mu         sync.RWMutex
	patients   []domain.PatientSummary
	addrTokens []map[string]bool
	limit      int
}

// NewLocalProvider indexes patients. limit <= 0 uses DefaultLimit.
func NewLocalProvider(patients []domain.PatientSummary, limit int) *LocalProvider {
	if limit <= 0 {
		limit = DefaultLimit
	}
	p := &LocalProvider{limit: limit}
	p.Replace(patients)
	return p
}

// Replace swaps the roster atomically
func (p *LocalProvider) Replace(patients []domain.PatientSummary) {
	tokens := make([]map[string]bool, len(patients))
	for i, patient := range patients {
		tokens[i] = make(map[string]bool)
		for _, t := range analyze(patient.Address) {
			tokens[i][t] = true
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.patients = append([]domain.PatientSummary(nil), patients...)
	p.addrTokens = tokens
}

// Len returns the roster size
func (p *LocalProvider) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.patients)
}

// Lookup matches name, patient number, phone and email by substring, and
// address by stemmed words. Results keep roster order.
func (p *LocalProvider) Lookup(ctx context.Context, text string) ([]domain.PatientSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := analyze(text)

	p.mu.RLock()
	defer p.mu.RUnlock()

	var results []domain.PatientSummary
	for i, patient := range p.patients {
		if patient.Matches(text) || containsAll(p.addrTokens[i], query) {
			results = append(results, patient)
			if len(results) == p.limit {
				break
			}
		}
	}
	return results, nil
}

func containsAll(set map[string]bool, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !set[t] {
			return false
		}
	}
	return true
}

// analyze lowercases, splits on non-alphanumerics, drops stop words and stems
func analyze(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, token := range fields {
		if snowballeng.IsStopWord(token) {
			continue
		}
		tokens = append(tokens, snowballeng.Stem(token, false))
	}
	return tokens
}
