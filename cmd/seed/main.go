// Command seed creates a demo survey with randomised responses spread over
// the past weeks and prints an admin token that can read its analytics.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/soaringjerry/surveyd/internal/api"
	"github.com/soaringjerry/surveyd/internal/config"
	dbstore "github.com/soaringjerry/surveyd/internal/db"
	"github.com/soaringjerry/surveyd/internal/db/mongostore"
	"github.com/soaringjerry/surveyd/internal/logging"
	"github.com/soaringjerry/surveyd/internal/middleware"
	"github.com/soaringjerry/surveyd/internal/models"
	"github.com/soaringjerry/surveyd/internal/services"
)

type seedOptions struct {
	responses  int
	days       int
	ownerID    string
	randomSeed int64
}

func main() {
	var opts seedOptions
	flag.IntVar(&opts.responses, "responses", 120, "number of responses to generate")
	flag.IntVar(&opts.days, "days", 45, "spread submissions over this many past days")
	flag.StringVar(&opts.ownerID, "owner", "admin-demo", "owner id of the seeded survey")
	flag.Int64Var(&opts.randomSeed, "seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log.Level, "console", os.Stderr)
	if err := run(context.Background(), cfg, opts, logger); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
}

func run(ctx context.Context, cfg config.Config, opts seedOptions, logger zerolog.Logger) error {
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	sv, err := services.NewSurveyService(store).Create(ctx, opts.ownerID, demoSurvey())
	if err != nil {
		return fmt.Errorf("create survey: %w", err)
	}

	rng := rand.New(rand.NewSource(opts.randomSeed))
	now := time.Now().UTC()
	for i := 0; i < opts.responses; i++ {
		answers := randomAnswers(rng, sv)
		if err := services.ValidateAnswers(sv, answers); err != nil {
			return fmt.Errorf("generated answers invalid: %w", err)
		}
		offset := time.Duration(rng.Int63n(int64(opts.days) * int64(24*time.Hour)))
		if err := store.AddResponse(ctx, &models.Response{
			ID:           uuid.NewString(),
			SurveyID:     sv.ID,
			RespondentID: fmt.Sprintf("respondent-%03d", i+1),
			SubmittedAt:  now.Add(-offset),
			Answers:      answers,
		}); err != nil {
			return fmt.Errorf("add response: %w", err)
		}
	}

	token, err := middleware.NewAuthenticator(cfg.JWTSecret).SignToken(opts.ownerID, models.RoleAdmin, "admin@example.com", 24*time.Hour)
	if err != nil {
		return err
	}
	logger.Info().Str("survey_id", sv.ID).Int("responses", opts.responses).Str("store", cfg.Store).Msg("seeded")
	fmt.Printf("survey: %s\ntoken:  %s\n", sv.ID, token)
	return nil
}

func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (api.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		conn, err := dbstore.Open(cfg.SQLite.Driver, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		if _, err := dbstore.RunMigrations(ctx, conn, cfg.SQLite.MigrationsDir); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return dbstore.NewSQLiteStore(conn, logger)
	case config.StoreMongo:
		return mongostore.Connect(ctx, mongostore.Options{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		}, logger)
	default:
		return nil, fmt.Errorf("seeding needs a persistent store, got %q", cfg.Store)
	}
}

func demoSurvey() services.CreateSurveyInput {
	return services.CreateSurveyInput{
		Title:       "Developer experience pulse",
		Description: "Quarterly check-in on tooling and workflow.",
		Questions: []models.Question{
			{ID: "role", Type: models.QuestionMultipleChoice, Text: "What is your primary role?", Choices: []string{"backend", "frontend", "infra", "data"}, Required: true},
			{ID: "tools", Type: models.QuestionCheckbox, Text: "Which tools do you use daily?", Choices: []string{"git", "docker", "kubernetes", "terraform", "grafana"}},
			{ID: "satisfaction", Type: models.QuestionRating, Text: "How satisfied are you with the build pipeline?", Required: true},
			{ID: "comments", Type: models.QuestionText, Text: "Anything we should improve?"},
		},
	}
}

var sampleComments = []string{
	"Builds are too slow on Mondays.",
	"Love the new preview environments.",
	"Flaky integration tests waste a lot of time.",
	"More docs for the deploy tooling please.",
	"Everything works, keep it up.",
}

func randomAnswers(rng *rand.Rand, sv *models.Survey) []models.Answer {
	out := make([]models.Answer, 0, len(sv.Questions))
	for _, q := range sv.Questions {
		switch q.Type {
		case models.QuestionMultipleChoice:
			out = append(out, models.Answer{QuestionID: q.ID, Value: models.TextValue(q.Choices[rng.Intn(len(q.Choices))])})
		case models.QuestionCheckbox:
			var picked []string
			for _, c := range q.Choices {
				if rng.Intn(2) == 0 {
					picked = append(picked, c)
				}
			}
			out = append(out, models.Answer{QuestionID: q.ID, Value: models.ItemsValue(picked...)})
		case models.QuestionRating:
			n := q.Min + rng.Intn(q.Max-q.Min+1)
			out = append(out, models.Answer{QuestionID: q.ID, Value: models.NumberValue(float64(n))})
		case models.QuestionText:
			if rng.Intn(3) == 0 {
				continue
			}
			out = append(out, models.Answer{QuestionID: q.ID, Value: models.TextValue(sampleComments[rng.Intn(len(sampleComments))])})
		}
	}
	return out
}
