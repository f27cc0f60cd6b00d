package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Department parameterizes one diagnostic test. Every department runs the
// same session machinery; only these values differ.
type Department struct {
	// ID is the subject code sent to the Test Service.
	ID string `yaml:"id"`

	// Name is the display name shown in menus and headers.
	Name string `yaml:"name"`

	// QuestionCount is the expected number of questions in a session.
	QuestionCount int `yaml:"question_count"`

	// TimeLimitMinutes is the session time limit requested from the service.
	TimeLimitMinutes int `yaml:"time_limit_minutes"`

	// Objectives are shown on the intro screen.
	Objectives []string `yaml:"objectives"`

	// RequiresEligibility gates the test behind a backend eligibility check.
	RequiresEligibility bool `yaml:"requires_eligibility"`
}

// BuiltinDepartments is the default department catalog.
func BuiltinDepartments() []Department {
	return []Department{
		{
			ID:               "computer-science",
			Name:             "Computer Science",
			QuestionCount:    30,
			TimeLimitMinutes: 60,
			Objectives: []string{
				"Programming fundamentals and data structures",
				"Operating systems and networks",
				"Databases and software engineering",
			},
		},
		{
			ID:               "nursing",
			Name:             "Nursing",
			QuestionCount:    30,
			TimeLimitMinutes: 60,
			Objectives: []string{
				"Anatomy and physiology",
				"Fundamentals of nursing practice",
				"Pharmacology basics",
			},
			RequiresEligibility: true,
		},
		{
			ID:               "business-admin",
			Name:             "Business Administration",
			QuestionCount:    25,
			TimeLimitMinutes: 50,
			Objectives: []string{
				"Principles of management",
				"Accounting and finance basics",
				"Marketing fundamentals",
			},
		},
		{
			ID:               "early-childhood-edu",
			Name:             "Early Childhood Education",
			QuestionCount:    25,
			TimeLimitMinutes: 50,
			Objectives: []string{
				"Child development theory",
				"Curriculum and play-based learning",
				"Observation and assessment",
			},
		},
	}
}

// departmentCatalog is the YAML file shape for a catalog override.
type departmentCatalog struct {
	Departments []Department `yaml:"departments"`
}

// LoadDepartments returns the department catalog. When path is non-empty the
// YAML file at path replaces the built-in catalog entirely.
func LoadDepartments(path string) ([]Department, error) {
	if path == "" {
		return BuiltinDepartments(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read department catalog: %w", err)
	}

	var catalog departmentCatalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse department catalog: %w", err)
	}
	if len(catalog.Departments) == 0 {
		return nil, fmt.Errorf("department catalog %s defines no departments", path)
	}

	for i, d := range catalog.Departments {
		if d.ID == "" || d.Name == "" {
			return nil, fmt.Errorf("department %d: id and name are required", i)
		}
		if d.TimeLimitMinutes <= 0 {
			return nil, fmt.Errorf("department %q: time_limit_minutes must be positive", d.ID)
		}
	}

	return catalog.Departments, nil
}
