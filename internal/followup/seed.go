package followup

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/platform/logger"
)

//go:embed templates.yaml
var seedYAML []byte

type seedFile struct {
	Templates []seedTemplate `yaml:"templates"`
}

type seedTemplate struct {
	Sequence     int    `yaml:"sequence"`
	Name         string `yaml:"name"`
	EmailSubject string `yaml:"email_subject"`
	EmailBody    string `yaml:"email_body"`
	SMSBody      string `yaml:"sms_body"`
}

// SeedTemplates installs the default follow-up sequence when the table is
// empty. Existing templates are never overwritten.
func SeedTemplates(ctx context.Context, repo *repository.Repository, log *logger.Logger) error {
	count, err := repo.CountTemplates(ctx)
	if err != nil {
		return fmt.Errorf("count follow-up templates: %w", err)
	}
	if count > 0 {
		return nil
	}

	var file seedFile
	if err := yaml.Unmarshal(seedYAML, &file); err != nil {
		return fmt.Errorf("parse template seed: %w", err)
	}

	for _, tpl := range file.Templates {
		if _, err := repo.SaveTemplate(ctx, repository.SaveTemplateParams{
			Sequence:     tpl.Sequence,
			Name:         tpl.Name,
			EmailSubject: tpl.EmailSubject,
			EmailBody:    tpl.EmailBody,
			SMSBody:      tpl.SMSBody,
			IsActive:     true,
		}); err != nil {
			return fmt.Errorf("seed template %d: %w", tpl.Sequence, err)
		}
	}

	log.Info("seeded follow-up templates", "count", len(file.Templates))
	return nil
}
