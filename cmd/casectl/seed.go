package main

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/garyjia/case-tracker/internal/application/service"
	"github.com/garyjia/case-tracker/internal/container"
)

// SeedFile is the YAML document accepted by casectl seed. Entries whose id
// already exists are skipped so a file can be applied repeatedly.
type SeedFile struct {
	Roles         []service.RoleDefinition         `yaml:"roles"`
	QuestionTypes []service.QuestionTypeDefinition `yaml:"question_types"`
	Questions     []service.QuestionDefinition     `yaml:"questions"`
	Templates     []service.TemplateDefinition     `yaml:"templates"`
}

// SeedResult counts what Apply created and skipped
type SeedResult struct {
	Created map[string]int
	Skipped map[string]int
}

func (r SeedResult) String() string {
	return fmt.Sprintf("roles %d/%d, question types %d/%d, questions %d/%d, templates %d/%d (created/skipped)",
		r.Created["role"], r.Skipped["role"],
		r.Created["question_type"], r.Skipped["question_type"],
		r.Created["question"], r.Skipped["question"],
		r.Created["template"], r.Skipped["template"])
}

// LoadSeedFile parses a seed document
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply creates the seed's definitions in dependency order
func (s *SeedFile) Apply(ctx context.Context, catalog service.CatalogService, repos *container.RepositoryBundle) (SeedResult, error) {
	result := SeedResult{Created: map[string]int{}, Skipped: map[string]int{}}

	for _, def := range s.Roles {
		exists, err := lookup(def.ID, func(id string) (bool, error) {
			r, err := repos.Role.GetByID(ctx, id)
			return r != nil, err
		})
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped["role"]++
			continue
		}
		if def.Author == "" {
			def.Author = "casectl"
		}
		if _, err := catalog.CreateRole(ctx, def); err != nil {
			return result, fmt.Errorf("role %q: %w", def.Name, err)
		}
		result.Created["role"]++
	}

	for _, def := range s.QuestionTypes {
		exists, err := lookup(def.ID, func(id string) (bool, error) {
			qt, err := repos.QuestionType.GetByID(ctx, id)
			return qt != nil, err
		})
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped["question_type"]++
			continue
		}
		if def.Author == "" {
			def.Author = "casectl"
		}
		if _, err := catalog.CreateQuestionType(ctx, def); err != nil {
			return result, fmt.Errorf("question type %q: %w", def.Type, err)
		}
		result.Created["question_type"]++
	}

	for _, def := range s.Questions {
		exists, err := lookup(def.ID, func(id string) (bool, error) {
			q, err := repos.Question.GetByID(ctx, id)
			return q != nil, err
		})
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped["question"]++
			continue
		}
		if def.Author == "" {
			def.Author = "casectl"
		}
		if _, err := catalog.CreateQuestion(ctx, def); err != nil {
			return result, fmt.Errorf("question %q: %w", def.Text, err)
		}
		result.Created["question"]++
	}

	for _, def := range s.Templates {
		exists, err := lookup(def.ID, func(id string) (bool, error) {
			tmpl, err := repos.Template.GetByID(ctx, id)
			return tmpl != nil, err
		})
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped["template"]++
			continue
		}
		if def.Author == "" {
			def.Author = "casectl"
		}
		if _, err := catalog.CreateTemplate(ctx, def); err != nil {
			return result, fmt.Errorf("template %q: %w", def.Title, err)
		}
		result.Created["template"]++
	}

	return result, nil
}

// lookup reports whether a definition with an explicit id is already stored.
// Definitions without an id always get a fresh one.
func lookup(id string, exists func(string) (bool, error)) (bool, error) {
	if id == "" {
		return false, nil
	}
	found, err := exists(id)
	if err != nil {
		return false, fmt.Errorf("failed to look up %s: %w", id, err)
	}
	return found, nil
}
