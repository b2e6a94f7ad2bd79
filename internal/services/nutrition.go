package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dietmate/backend/internal/config"
	"github.com/dietmate/backend/pkg/logger"
)

// MealInput is the caller-supplied description of a meal. Nutrient
// fields are optional; the analyzer fills gaps and scores the result.
type MealInput struct {
	MenuName string  `json:"menu_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// MealAnalysis is the normalized output of the nutrition collaborator.
type MealAnalysis struct {
	MenuName string  `json:"menu_name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Score    float64 `json:"score"`
}

// NutritionAnalyzer classifies and scores a meal. Implementations may
// be heuristic or model-backed; callers tolerate failure with
// FallbackAnalysis.
type NutritionAnalyzer interface {
	Analyze(ctx context.Context, input *MealInput) (*MealAnalysis, error)
}

// ScoringStrategy turns an analyzed nutrient breakdown into a 0-100
// score. Injected so tests stay deterministic.
type ScoringStrategy interface {
	Score(a *MealAnalysis) float64
}

// MacroBalanceScorer scores by how closely the meal's calorie split
// between protein, carbs and fat matches the recommended 30/45/25
// distribution. Fully deterministic.
type MacroBalanceScorer struct{}

func (MacroBalanceScorer) Score(a *MealAnalysis) float64 {
	proteinCal := a.Protein * 4
	carbsCal := a.Carbs * 4
	fatCal := a.Fat * 9
	total := proteinCal + carbsCal + fatCal
	if total <= 0 {
		return 50
	}

	// Deviation from target shares, each share weighted equally.
	dev := abs(proteinCal/total-0.30) + abs(carbsCal/total-0.45) + abs(fatCal/total-0.25)

	score := 100 - dev*100
	if score < 0 {
		score = 0
	}
	return round1(score)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// HeuristicAnalyzer is the default nutrition collaborator: it trusts
// caller-supplied nutrient values, derives missing calories from the
// macros, and delegates scoring to the injected strategy.
type HeuristicAnalyzer struct {
	scorer ScoringStrategy
}

func NewHeuristicAnalyzer(scorer ScoringStrategy) *HeuristicAnalyzer {
	if scorer == nil {
		scorer = MacroBalanceScorer{}
	}
	return &HeuristicAnalyzer{scorer: scorer}
}

func (h *HeuristicAnalyzer) Analyze(_ context.Context, input *MealInput) (*MealAnalysis, error) {
	analysis := &MealAnalysis{
		MenuName: strings.TrimSpace(input.MenuName),
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
	}
	if analysis.MenuName == "" {
		analysis.MenuName = "unknown meal"
	}
	if analysis.Calories <= 0 {
		analysis.Calories = analysis.Protein*4 + analysis.Carbs*4 + analysis.Fat*9
	}

	analysis.Score = h.scorer.Score(analysis)
	return analysis, nil
}

// RemoteAnalyzer delegates analysis to an external nutrition API. A
// response without a score is scored locally so both analyzers produce
// comparable values.
type RemoteAnalyzer struct {
	cfg    *config.NutritionConfig
	client *http.Client
	scorer ScoringStrategy
}

func NewRemoteAnalyzer(cfg *config.NutritionConfig) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		scorer: MacroBalanceScorer{},
	}
}

func (r *RemoteAnalyzer) Analyze(ctx context.Context, input *MealInput) (*MealAnalysis, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimSuffix(r.cfg.BaseURL, "/")+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nutrition API returned status %d", resp.StatusCode)
	}

	var analysis MealAnalysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return nil, err
	}

	if analysis.MenuName == "" {
		analysis.MenuName = strings.TrimSpace(input.MenuName)
	}
	if analysis.Score <= 0 {
		analysis.Score = r.scorer.Score(&analysis)
	}
	return &analysis, nil
}

// NewNutritionAnalyzer picks the analyzer from config: remote when a
// base URL is set, heuristic otherwise.
func NewNutritionAnalyzer(cfg *config.NutritionConfig) NutritionAnalyzer {
	if cfg != nil && cfg.BaseURL != "" {
		logger.Infof("[Nutrition] using remote analyzer at %s", cfg.BaseURL)
		return NewRemoteAnalyzer(cfg)
	}
	return NewHeuristicAnalyzer(nil)
}

// FallbackAnalysis is the safe default used when the nutrition
// collaborator fails: the meal is still recorded with a neutral score.
func FallbackAnalysis(input *MealInput) *MealAnalysis {
	name := strings.TrimSpace(input.MenuName)
	if name == "" {
		name = "unknown meal"
	}
	logger.Warnf("[Nutrition] analysis unavailable, recording %q with neutral score", name)
	return &MealAnalysis{
		MenuName: name,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fat:      input.Fat,
		Score:    50,
	}
}
