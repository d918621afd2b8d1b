package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"quizfunnel/internal/app"
	"quizfunnel/internal/config"
	"quizfunnel/internal/logger"
	"quizfunnel/internal/model"
	"quizfunnel/internal/service"
	"time"
)

const demoSlug = "demo-fitness-funnel"

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Store == config.StoreMemory {
		log.Fatal("seeding the in-memory store has no effect, set STORE=mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to connect", "error", err)
	}
	defer a.Close(ctx)

	quiz, err := seedDemo(ctx, a.QuizService, service.AuthorID(cfg.AuthorUsername))
	if errors.Is(err, service.ErrConflict) {
		log.Info("demo quiz already seeded", "slug", demoSlug)
		return
	}
	if err != nil {
		log.Fatal("failed to seed demo quiz", "error", err)
	}
	log.Info("demo quiz seeded", "quiz_id", quiz.ID, "slug", quiz.Slug)
}

// seedDemo creates and publishes a small branching funnel:
// goal question, age input, lead capture, result page.
func seedDemo(ctx context.Context, svc *service.QuizService, ownerID string) (*model.Quiz, error) {
	quiz, err := svc.CreateQuiz(ctx, ownerID, &model.Quiz{
		Title:       "Find your fitness plan",
		Slug:        demoSlug,
		Description: "Three questions to a personal plan",
	})
	if err != nil {
		return nil, err
	}

	goal, err := svc.AddStep(ctx, ownerID, quiz.ID, &model.Step{
		Type:  model.StepTypeQuestion,
		Title: "Goal",
		Question: &model.Question{
			Text: "What is your main goal?",
			Options: []model.Option{
				{Text: "Lose weight", Value: "lose"},
				{Text: "Build muscle", Value: "gain"},
				{Text: "Stay healthy", Value: "maintain"},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("goal step: %w", err)
	}
	age, err := svc.AddStep(ctx, ownerID, quiz.ID, &model.Step{
		Type:     model.StepTypeInput,
		Title:    "Age",
		Metadata: model.StepMetadata{VariableName: "age"},
	})
	if err != nil {
		return nil, fmt.Errorf("age step: %w", err)
	}
	capture, err := svc.AddStep(ctx, ownerID, quiz.ID, &model.Step{
		Type:  model.StepTypeCapture,
		Title: "Where should we send your plan?",
	})
	if err != nil {
		return nil, fmt.Errorf("capture step: %w", err)
	}
	if _, err := svc.AddStep(ctx, ownerID, quiz.ID, &model.Step{
		Type:  model.StepTypeResult,
		Title: "Your plan is on its way",
	}); err != nil {
		return nil, fmt.Errorf("result step: %w", err)
	}

	first, second := 1, 2
	goal.Metadata.Rules = []model.Rule{
		{
			ID:       "muscle",
			Name:     "Muscle builders skip the age check",
			Priority: &first,
			Conditions: []model.Condition{
				{Type: model.ConditionAnswer, Source: goal.ID, Operator: model.OpEq, Value: "gain"},
			},
			Actions: []model.Action{
				{Type: model.ActionScore, Value: 10},
				{Type: model.ActionMessage, Value: "Great, let's build strength"},
				{Type: model.ActionGoto, Target: capture.ID},
			},
		},
		{
			ID:       "other-goals",
			Priority: &second,
			Conditions: []model.Condition{
				{Type: model.ConditionAnswer, Source: goal.ID, Operator: model.OpIn, Value: []any{"lose", "maintain"}},
			},
			Actions: []model.Action{
				{Type: model.ActionSetVariable, Target: "track", Value: "cardio"},
				{Type: model.ActionScore, Value: 5},
			},
		},
	}
	if _, err := svc.UpdateStep(ctx, ownerID, quiz.ID, goal.ID, goal); err != nil {
		return nil, fmt.Errorf("goal rules: %w", err)
	}

	age.Metadata.Rules = []model.Rule{{
		ID: "underage",
		Conditions: []model.Condition{
			{Type: model.ConditionVariable, Source: "age", Operator: model.OpLt, Value: 18},
		},
		Actions: []model.Action{
			{Type: model.ActionRedirect, Value: "https://example.com/teens"},
		},
	}}
	if _, err := svc.UpdateStep(ctx, ownerID, quiz.ID, age.ID, age); err != nil {
		return nil, fmt.Errorf("age rules: %w", err)
	}

	return svc.SetPublished(ctx, ownerID, quiz.ID, true)
}
