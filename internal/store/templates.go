package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const templatePrefix = "templates/"

// ErrNotFound is returned when a stored record does not exist
var ErrNotFound = errors.New("not found")

// Template is a saved set of field values that can be applied to any
// document with matching field names.
type Template struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Fields       map[string]string `json:"fields"`
	DocumentName string            `json:"documentName,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
}

// Templates manages saved templates
type Templates struct {
	kv  KV
	now func() time.Time
}

// NewTemplates creates a template service over kv
func NewTemplates(kv KV) *Templates {
	return &Templates{kv: kv, now: time.Now}
}

// Save stores a new template and returns it.
func (t *Templates) Save(name, documentName string, fields map[string]string) (*Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name cannot be empty")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("template %q has no field values", name)
	}

	tmpl := &Template{
		ID:           uuid.NewString(),
		Name:         name,
		Fields:       make(map[string]string, len(fields)),
		DocumentName: documentName,
		CreatedAt:    t.now().UTC(),
	}
	for k, v := range fields {
		tmpl.Fields[k] = v
	}

	data, err := json.Marshal(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to encode template: %w", err)
	}
	if err := t.kv.Set(templatePrefix+tmpl.ID, data); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// List returns all templates, oldest first.
func (t *Templates) List() ([]Template, error) {
	keys, err := t.kv.Keys(templatePrefix)
	if err != nil {
		return nil, err
	}

	templates := make([]Template, 0, len(keys))
	for _, key := range keys {
		tmpl, err := t.load(key)
		if err != nil {
			return nil, err
		}
		if tmpl != nil {
			templates = append(templates, *tmpl)
		}
	}

	sort.SliceStable(templates, func(i, j int) bool {
		if templates[i].CreatedAt.Equal(templates[j].CreatedAt) {
			return templates[i].ID < templates[j].ID
		}
		return templates[i].CreatedAt.Before(templates[j].CreatedAt)
	})
	return templates, nil
}

// Load returns the template with the given ID.
func (t *Templates) Load(id string) (*Template, error) {
	tmpl, err := t.load(templatePrefix + id)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return tmpl, nil
}

// Resolve finds a template by ID, or else the newest one with that name.
func (t *Templates) Resolve(ref string) (*Template, error) {
	if tmpl, err := t.Load(ref); err == nil {
		return tmpl, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	all, err := t.List()
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Name == ref {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("template %q: %w", ref, ErrNotFound)
}

// Delete removes a template.
func (t *Templates) Delete(id string) error {
	key := templatePrefix + id
	if _, ok, err := t.kv.Get(key); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("template %q: %w", id, ErrNotFound)
	}
	return t.kv.Remove(key)
}

func (t *Templates) load(key string) (*Template, error) {
	data, ok, err := t.kv.Get(key)
	if err != nil || !ok {
		return nil, err
	}

	var tmpl Template
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return &tmpl, nil
}
