// Package settings builds and posts the organization settings document.
package settings

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/penwyp/go-team-monitor/internal/core/model"
	"github.com/penwyp/go-team-monitor/internal/util"
	"gopkg.in/yaml.v3"
)

// Saver posts a settings document
type Saver interface {
	SaveSettings(ctx context.Context, settings model.Settings) error
}

// Form is the flat settings form. DisabledTeams is the raw
// comma-separated text.
type Form struct {
	Organization       string `yaml:"organization"`
	OpenAIAPIKey       string `yaml:"openai_api_key"`
	CRMAPIURL          string `yaml:"crm_api_url"`
	CRMAPIKey          string `yaml:"crm_api_key"`
	EmailServiceAPIKey string `yaml:"email_service_api_key"`
	DisabledTeams      string `yaml:"disabled_teams"`
}

// LoadForm reads form values from a YAML file
func LoadForm(path string) (*Form, error) {
	data, err := os.ReadFile(util.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var f Form
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}
	return &f, nil
}

// Payload assembles the document. Empty optional keys are left out and
// disabled teams are split on commas, trimmed, with blanks dropped.
func (f Form) Payload() model.Settings {
	return model.Settings{
		Organization:       f.Organization,
		OpenAIAPIKey:       f.OpenAIAPIKey,
		CRMAPIURL:          f.CRMAPIURL,
		CRMAPIKey:          f.CRMAPIKey,
		EmailServiceAPIKey: f.EmailServiceAPIKey,
		DisabledTeams:      SplitTeams(f.DisabledTeams),
	}
}

// Save posts the payload. The response is ignored.
func (f Form) Save(ctx context.Context, saver Saver) error {
	if err := saver.SaveSettings(ctx, f.Payload()); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// SplitTeams parses a comma-separated team list
func SplitTeams(s string) []string {
	teams := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if team := strings.TrimSpace(part); team != "" {
			teams = append(teams, team)
		}
	}
	return teams
}
