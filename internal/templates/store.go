// Package templates keeps the named announcement bodies admins choose
// from when creating a training. A body may use the {date}, {location}
// and {details} placeholders.
package templates

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"training-roster-bot/internal/apperr"
	"training-roster-bot/internal/logger"
	"training-roster-bot/internal/storage"
)

const (
	Bucket      = "templates"
	DefaultName = "default"

	// DefaultText is used when no seed file provides a default template.
	DefaultText = "Training {date}\nLocation: {location}\n{details}"

	maxNameLen = 32
)

// Vars are the values substituted into a template.
type Vars struct {
	Date     string
	Location string
	Details  string
}

type Store struct {
	db *storage.DB
}

func New(db *storage.DB) *Store {
	return &Store{db: db}
}

type seedFile struct {
	Templates map[string]string `yaml:"templates"`
}

// Seed loads templates from a YAML file of the form
//
//	templates:
//	  default: |
//	    Training {date}
//
// Existing templates are never overwritten. The default template is
// created from DefaultText when neither the store nor the file has one.
// An empty path only ensures the default.
func (s *Store) Seed(path string) error {
	var seed seedFile
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read template seed: %w", err)
		}
		if err := yaml.Unmarshal(raw, &seed); err != nil {
			return fmt.Errorf("parse template seed %s: %w", path, err)
		}
	}
	if _, ok := seed.Templates[DefaultName]; !ok {
		if seed.Templates == nil {
			seed.Templates = map[string]string{}
		}
		seed.Templates[DefaultName] = DefaultText
	}

	added := 0
	for name, text := range seed.Templates {
		written, err := s.db.Insert(Bucket, normalize(name), strings.TrimSpace(text))
		if err != nil {
			return apperr.Persistence("seed template "+name, err)
		}
		if written {
			added++
		}
	}
	if added > 0 {
		logger.Info("templates: seeded %d template(s)", added)
	}
	return nil
}

// Add stores a new template. Names are case-insensitive.
func (s *Store) Add(name, text string) error {
	key, err := validate(name, text)
	if err != nil {
		return err
	}
	written, err := s.db.Insert(Bucket, key, text)
	if err != nil {
		return apperr.Persistence("add template", err)
	}
	if !written {
		return apperr.Duplicate("template '%s' already exists", key)
	}
	return nil
}

// Edit replaces the body of an existing template.
func (s *Store) Edit(name, text string) error {
	key, err := validate(name, text)
	if err != nil {
		return err
	}
	var cur string
	found, err := s.db.Get(Bucket, key, &cur)
	if err != nil {
		return apperr.Persistence("edit template", err)
	}
	if !found {
		return apperr.NotFound("template '%s' not found", key)
	}
	if err := s.db.Put(Bucket, key, text); err != nil {
		return apperr.Persistence("edit template", err)
	}
	return nil
}

func (s *Store) Get(name string) (string, error) {
	key := normalize(name)
	var text string
	found, err := s.db.Get(Bucket, key, &text)
	if err != nil {
		return "", apperr.Persistence("get template", err)
	}
	if !found {
		return "", apperr.NotFound("template '%s' not found", key)
	}
	return text, nil
}

// List returns template names in alphabetical order.
func (s *Store) List() ([]string, error) {
	names, err := s.db.Keys(Bucket)
	if err != nil {
		return nil, apperr.Persistence("list templates", err)
	}
	return names, nil
}

// Delete removes a template. The default template cannot be removed.
func (s *Store) Delete(name string) error {
	key := normalize(name)
	if key == DefaultName {
		return apperr.Validation("the default template cannot be deleted")
	}
	existed, err := s.db.Delete(Bucket, key)
	if err != nil {
		return apperr.Persistence("delete template", err)
	}
	if !existed {
		return apperr.NotFound("template '%s' not found", key)
	}
	return nil
}

// Render fills the named template with v. Unlike a lookup with fallback,
// an unknown name is an error.
func (s *Store) Render(name string, v Vars) (string, error) {
	text, err := s.Get(name)
	if err != nil {
		return "", err
	}
	return Fill(text, v), nil
}

// Fill substitutes the placeholders of text.
func Fill(text string, v Vars) string {
	return strings.NewReplacer(
		"{date}", v.Date,
		"{location}", v.Location,
		"{details}", v.Details,
	).Replace(text)
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validate(name, text string) (string, error) {
	key := normalize(name)
	switch {
	case key == "":
		return "", apperr.Validation("template name is empty")
	case len(key) > maxNameLen:
		return "", apperr.Validation("template name is longer than %d characters", maxNameLen)
	case strings.ContainsAny(key, ":\n"):
		return "", apperr.Validation("template name must not contain ':' or line breaks")
	case strings.TrimSpace(text) == "":
		return "", apperr.Validation("template text is empty")
	}
	return key, nil
}
