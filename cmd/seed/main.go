package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4"
	"gopkg.in/yaml.v3"

	"telegram-automation/internal/config"
	"telegram-automation/internal/domain/model"
	"telegram-automation/internal/domain/ports/repository"
	pg "telegram-automation/internal/infra/db/postgres"
	"telegram-automation/internal/infra/logging"
)

var seedPath = flag.String("seed", "", "yaml file with templates and groups (built-in sample when empty)")

type seedFile struct {
	Templates []struct {
		ID        string              `yaml:"id"`
		Content   string              `yaml:"content"`
		Variables map[string][]string `yaml:"variables"`
	} `yaml:"templates"`
	Groups []string `yaml:"groups"`
}

const sample = `
templates:
  - id: welcome
    content: "{greeting}! New posts are up in {channel}."
    variables:
      greeting: ["Hi", "Hello", "Hey there"]
      channel: ["@example_news"]
  - id: reminder
    content: "Reminder: {event} starts {when}."
    variables:
      event: ["the weekly call"]
      when: ["in an hour", "soon"]
groups:
  - "@example_news"
  - "https://t.me/example_chat"
`

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Database.URL == "" {
		logger.Fatal().Msg("database.url is required for seeding")
	}

	raw := []byte(sample)
	if *seedPath != "" {
		if raw, err = os.ReadFile(*seedPath); err != nil {
			logger.Fatal().Err(err).Msg("read seed file")
		}
	}
	var sf seedFile
	if err := yaml.Unmarshal(raw, &sf); err != nil {
		logger.Fatal().Err(err).Msg("parse seed file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	templates := pg.NewPostgresTemplateRepo(pool)
	groups := pg.NewPostgresGroupRepo(pool)
	tm := pg.NewTxManager(pool)
	now := time.Now().UTC()

	err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, t := range sf.Templates {
			mt, err := model.NewMessageTemplate(t.ID, t.Content, t.Variables, now)
			if err != nil {
				return fmt.Errorf("template %q: %w", t.ID, err)
			}
			if err := templates.Save(ctx, tx, mt); err != nil {
				return fmt.Errorf("save template %q: %w", t.ID, err)
			}
		}
		for _, link := range sf.Groups {
			if err := groups.Save(ctx, tx, &model.Group{Link: link, Active: true, AddedAt: now}); err != nil {
				return fmt.Errorf("save group %q: %w", link, err)
			}
		}
		return nil
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Int("templates", len(sf.Templates)).Int("groups", len(sf.Groups)).Msg("seeding complete")
}
