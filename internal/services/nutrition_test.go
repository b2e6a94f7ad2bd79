package services

import (
	"context"
	"testing"
)

func TestMacroBalanceScorer_PerfectBalance(t *testing.T) {
	scorer := MacroBalanceScorer{}

	// 600 kcal split exactly 30/45/25 between protein, carbs and fat.
	a := &MealAnalysis{Protein: 45, Carbs: 67.5, Fat: 16.67}
	score := scorer.Score(a)
	if score < 99 {
		t.Errorf("balanced meal score = %.1f, expected near 100", score)
	}
}

func TestMacroBalanceScorer_Deterministic(t *testing.T) {
	scorer := MacroBalanceScorer{}
	a := &MealAnalysis{Protein: 20, Carbs: 80, Fat: 30}

	first := scorer.Score(a)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(a); got != first {
			t.Fatalf("score changed between identical calls: %.2f vs %.2f", first, got)
		}
	}
}

func TestMacroBalanceScorer_NoMacros(t *testing.T) {
	scorer := MacroBalanceScorer{}
	if got := scorer.Score(&MealAnalysis{}); got != 50 {
		t.Errorf("score = %.1f, expected neutral 50 when no macros known", got)
	}
}

func TestMacroBalanceScorer_SkewedMeal(t *testing.T) {
	scorer := MacroBalanceScorer{}

	balanced := scorer.Score(&MealAnalysis{Protein: 30, Carbs: 45, Fat: 11})
	skewed := scorer.Score(&MealAnalysis{Protein: 2, Carbs: 5, Fat: 60})
	if skewed >= balanced {
		t.Errorf("skewed meal (%.1f) should score below balanced meal (%.1f)", skewed, balanced)
	}
}

func TestHeuristicAnalyzer_DerivesCalories(t *testing.T) {
	analyzer := NewHeuristicAnalyzer(nil)

	analysis, err := analyzer.Analyze(context.Background(), &MealInput{
		MenuName: "Chicken and rice",
		Protein:  40,
		Carbs:    60,
		Fat:      10,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// 40*4 + 60*4 + 10*9 = 490
	if analysis.Calories != 490 {
		t.Errorf("Calories = %.0f, expected 490", analysis.Calories)
	}
	if analysis.Score <= 0 {
		t.Errorf("Score = %.1f, expected positive", analysis.Score)
	}
}

func TestHeuristicAnalyzer_KeepsProvidedCalories(t *testing.T) {
	analyzer := NewHeuristicAnalyzer(nil)

	analysis, err := analyzer.Analyze(context.Background(), &MealInput{
		MenuName: "Burrito",
		Calories: 850,
		Protein:  25,
	})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.Calories != 850 {
		t.Errorf("Calories = %.0f, expected caller value kept", analysis.Calories)
	}
}

func TestHeuristicAnalyzer_EmptyName(t *testing.T) {
	analyzer := NewHeuristicAnalyzer(nil)

	analysis, err := analyzer.Analyze(context.Background(), &MealInput{MenuName: "   "})
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if analysis.MenuName != "unknown meal" {
		t.Errorf("MenuName = %q, expected placeholder", analysis.MenuName)
	}
}

func TestFallbackAnalysis(t *testing.T) {
	analysis := FallbackAnalysis(&MealInput{MenuName: "Soup", Calories: 300})

	if analysis.Score != 50 {
		t.Errorf("Score = %.1f, expected neutral 50", analysis.Score)
	}
	if analysis.MenuName != "Soup" {
		t.Errorf("MenuName = %q, expected kept", analysis.MenuName)
	}
	if analysis.Calories != 300 {
		t.Errorf("Calories = %.0f, expected kept", analysis.Calories)
	}
}
