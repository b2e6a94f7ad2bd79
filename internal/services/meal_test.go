package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dietmate/backend/internal/models"
	"gorm.io/gorm"
)

// fixedScoreAnalyzer returns a fixed score per call, in order.
type fixedScoreAnalyzer struct {
	mu     sync.Mutex
	scores []float64
	next   int
}

func (f *fixedScoreAnalyzer) Analyze(_ context.Context, input *MealInput) (*MealAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	score := 70.0
	if f.next < len(f.scores) {
		score = f.scores[f.next]
		f.next++
	}
	return &MealAnalysis{
		MenuName: input.MenuName,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
		Score:    score,
	}, nil
}

type failingAnalyzer struct{}

func (failingAnalyzer) Analyze(context.Context, *MealInput) (*MealAnalysis, error) {
	return nil, errors.New("analyzer unavailable")
}

func setupChallenge(t *testing.T, db *gorm.DB, target int, minScore float64) (*models.Challenge, *models.User) {
	t.Helper()

	group, owner, _ := setupGroupWithMembers(t, db)
	challenges := NewChallengeService(db)
	challenge, err := challenges.Create(group.ID, owner.ID, countChallengeRequest(target, minScore))
	if err != nil {
		t.Fatalf("challenge create failed: %v", err)
	}
	if _, err := challenges.Join(challenge.ID, owner.ID); err != nil {
		t.Fatalf("challenge join failed: %v", err)
	}
	return challenge, owner
}

func TestMealService_RecordWithoutChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := NewMealService(db, nil)
	user := createTestUser(t, db, "alice")

	result, err := svc.Record(context.Background(), user.ID, &RecordMealRequest{
		MealInput: MealInput{MenuName: "Grilled chicken salad", Protein: 35, Carbs: 20, Fat: 12},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if result.Meal.UID == "" {
		t.Error("expected a meal UID")
	}
	if result.Meal.Calories <= 0 {
		t.Error("expected calories derived from macros")
	}
	if result.Participation != nil {
		t.Error("expected no participation without a challenge")
	}
	if result.ProgressCounted {
		t.Error("expected no progress without a challenge")
	}
}

func TestMealService_ProgressWithMinScoreGate(t *testing.T) {
	db := newTestDB(t)
	challenge, user := setupChallenge(t, db, 3, 60)

	// Scores 50, 70, 80: the first is below the 60 minimum and must not
	// count, leaving progress at 2 of 3.
	analyzer := &fixedScoreAnalyzer{scores: []float64{50, 70, 80}}
	svc := NewMealService(db, analyzer)
	ctx := context.Background()

	r1, err := svc.Record(ctx, user.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Ramen"},
		ChallengeID: &challenge.ID,
	})
	if err != nil {
		t.Fatalf("Record 1 failed: %v", err)
	}
	if r1.ProgressCounted {
		t.Error("below-minimum meal must not count")
	}
	if r1.Participation.CurrentCount != 0 {
		t.Errorf("CurrentCount = %d, expected 0", r1.Participation.CurrentCount)
	}

	for i := 0; i < 2; i++ {
		r, err := svc.Record(ctx, user.ID, &RecordMealRequest{
			MealInput:   MealInput{MenuName: "Salad"},
			ChallengeID: &challenge.ID,
		})
		if err != nil {
			t.Fatalf("Record %d failed: %v", i+2, err)
		}
		if !r.ProgressCounted {
			t.Errorf("Record %d: expected progress counted", i+2)
		}
	}

	participant, _ := NewChallengeService(db).ParticipationFor(challenge.ID, user.ID)
	if participant.CurrentCount != 2 {
		t.Errorf("CurrentCount = %d, expected 2", participant.CurrentCount)
	}
	if participant.Status != models.ParticipationInProgress {
		t.Errorf("Status = %q, expected in_progress", participant.Status)
	}

	// The qualifying third meal completes the challenge.
	r4, err := svc.Record(ctx, user.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Bowl"},
		ChallengeID: &challenge.ID,
	})
	if err != nil {
		t.Fatalf("Record 4 failed: %v", err)
	}
	if r4.Participation.Status != models.ParticipationCompleted {
		t.Errorf("Status = %q, expected completed", r4.Participation.Status)
	}
	if r4.Participation.CompletedAt == nil {
		t.Error("expected CompletedAt set")
	}
}

func TestMealService_CompletedIsTerminal(t *testing.T) {
	db := newTestDB(t)
	challenge, user := setupChallenge(t, db, 1, 0)
	svc := NewMealService(db, &fixedScoreAnalyzer{})
	ctx := context.Background()

	r1, err := svc.Record(ctx, user.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Meal"},
		ChallengeID: &challenge.ID,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if r1.Participation.Status != models.ParticipationCompleted {
		t.Fatalf("Status = %q, expected completed", r1.Participation.Status)
	}

	// Further meals record fine but never advance the count.
	r2, err := svc.Record(ctx, user.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Meal"},
		ChallengeID: &challenge.ID,
	})
	if err != nil {
		t.Fatalf("Record after completion failed: %v", err)
	}
	if r2.ProgressCounted {
		t.Error("completed participation must not advance")
	}
	if r2.Participation.CurrentCount != 1 {
		t.Errorf("CurrentCount = %d, expected capped at 1", r2.Participation.CurrentCount)
	}
}

func TestMealService_ConcurrentRecordsLoseNoIncrement(t *testing.T) {
	db := newTestDB(t)
	challenge, user := setupChallenge(t, db, 10, 0)
	svc := NewMealService(db, &fixedScoreAnalyzer{})

	const meals = 6
	var wg sync.WaitGroup
	errs := make([]error, meals)
	for i := 0; i < meals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Record(context.Background(), user.ID, &RecordMealRequest{
				MealInput:   MealInput{MenuName: "Meal"},
				ChallengeID: &challenge.ID,
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("Record %d failed: %v", i, err)
		}
	}

	participant, _ := NewChallengeService(db).ParticipationFor(challenge.ID, user.ID)
	if participant.CurrentCount != meals {
		t.Errorf("CurrentCount = %d, expected %d", participant.CurrentCount, meals)
	}
}

func TestMealService_RecordRequiresParticipation(t *testing.T) {
	db := newTestDB(t)
	challenge, _ := setupChallenge(t, db, 3, 0)
	outsider := createTestUser(t, db, "eve")
	svc := NewMealService(db, &fixedScoreAnalyzer{})

	_, err := svc.Record(context.Background(), outsider.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Meal"},
		ChallengeID: &challenge.ID,
	})
	if !errors.Is(err, ErrParticipationNotFound) {
		t.Errorf("expected ErrParticipationNotFound, got %v", err)
	}

	missing := uint(9999)
	_, err = svc.Record(context.Background(), outsider.ID, &RecordMealRequest{
		MealInput:   MealInput{MenuName: "Meal"},
		ChallengeID: &missing,
	})
	if !errors.Is(err, ErrChallengeNotFound) {
		t.Errorf("expected ErrChallengeNotFound, got %v", err)
	}
}

func TestMealService_AnalyzerFailureFallsBack(t *testing.T) {
	db := newTestDB(t)
	svc := NewMealService(db, failingAnalyzer{})
	user := createTestUser(t, db, "alice")

	result, err := svc.Record(context.Background(), user.ID, &RecordMealRequest{
		MealInput: MealInput{MenuName: "Mystery stew", Calories: 400},
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if result.Meal.Score != 50 {
		t.Errorf("fallback score = %.1f, expected 50", result.Meal.Score)
	}
	if result.Meal.Calories != 400 {
		t.Errorf("Calories = %.0f, expected caller value preserved", result.Meal.Calories)
	}
}
