package reliability

import (
	"testing"
	"time"
)

func TestApplyNoShowSchedule(t *testing.T) {
	score := MaxScore
	wantScores := []int{90, 70, 40, 10, 0}
	wantActions := []Action{ActionWarning, ActionRestricted, ActionHeavilyRestricted, ActionHeavilyRestricted, ActionHeavilyRestricted}

	for prior := 0; prior < len(wantScores); prior++ {
		out := ApplyNoShow(prior, score)
		if out.NewReliability != wantScores[prior] {
			t.Fatalf("no-show #%d: score = %d, want %d", prior+1, out.NewReliability, wantScores[prior])
		}
		if out.Action != wantActions[prior] {
			t.Fatalf("no-show #%d: action = %s, want %s", prior+1, out.Action, wantActions[prior])
		}
		if out.NewNoShowCount != prior+1 {
			t.Fatalf("no-show #%d: count = %d", prior+1, out.NewNoShowCount)
		}
		score = out.NewReliability
	}
}

func TestMessageIsKeyedByPriorCount(t *testing.T) {
	if Message(0) == Message(1) || Message(1) == Message(2) || Message(2) == Message(3) {
		t.Fatal("expected distinct messages for the first four no-shows")
	}
	if Message(3) != Message(9) {
		t.Fatal("expected the same message from the fourth no-show on")
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		noShows, score int
		want           Status
	}{
		{0, 100, StatusExcellent},
		{1, 95, StatusExcellent},
		{1, 90, StatusGood},
		{2, 70, StatusFair},
		{2, 40, StatusRestricted},
		{1, 50, StatusWarning},
		{0, 10, StatusFair},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.noShows, tc.score); got != tc.want {
			t.Errorf("StatusFor(%d, %d) = %s, want %s", tc.noShows, tc.score, got, tc.want)
		}
	}
}

func TestEvaluateJoinPermissions(t *testing.T) {
	m := Evaluate(1, 4, 90)
	if !m.CanJoinRides || m.JoinLimitPerDay != nil {
		t.Fatalf("one no-show: %+v", m)
	}

	m = Evaluate(2, 4, 70)
	if !m.CanJoinRides || m.JoinLimitPerDay == nil || *m.JoinLimitPerDay != DailyJoinCap {
		t.Fatalf("two no-shows: %+v", m)
	}

	m = Evaluate(3, 4, 40)
	if m.CanJoinRides {
		t.Fatalf("three no-shows should block joining: %+v", m)
	}
}

func TestEligibleForClearance(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-59 * 24 * time.Hour)
	old := now.Add(-ClearanceWindow)

	if EligibleForClearance(2, &recent, now) {
		t.Fatal("59 days should not be eligible")
	}
	if !EligibleForClearance(2, &old, now) {
		t.Fatal("60 days should be eligible")
	}
	if EligibleForClearance(0, &old, now) {
		t.Fatal("a clean record has nothing to clear")
	}
}
