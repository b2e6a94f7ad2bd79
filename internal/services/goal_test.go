package services

import "testing"

func TestGoalService_GetWithoutGoal(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)
	user := createTestUser(t, db, "alice")

	goal, err := svc.Get(user.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if goal.Calories != 0 || goal.Protein != 0 {
		t.Errorf("expected zero-filled goal, got %+v", goal)
	}
}

func TestGoalService_UpsertCreatesThenUpdates(t *testing.T) {
	db := newTestDB(t)
	svc := NewGoalService(db)
	user := createTestUser(t, db, "alice")

	goal, err := svc.Upsert(user.ID, &UpsertGoalRequest{Calories: 600, Protein: 35, Carbs: 60, Fat: 18})
	if err != nil {
		t.Fatalf("first Upsert failed: %v", err)
	}
	if goal.Calories != 600 {
		t.Errorf("Calories = %.0f, expected 600", goal.Calories)
	}

	updated, err := svc.Upsert(user.ID, &UpsertGoalRequest{Calories: 550, Protein: 40})
	if err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if updated.ID != goal.ID {
		t.Errorf("Upsert created a second row: %d vs %d", updated.ID, goal.ID)
	}
	if updated.Calories != 550 || updated.Protein != 40 {
		t.Errorf("goal not updated: %+v", updated)
	}

	stored, _ := svc.Get(user.ID)
	if stored.Calories != 550 {
		t.Errorf("stored Calories = %.0f, expected 550", stored.Calories)
	}
}
