package contest

import (
	"testing"
	"time"

	"github.com/ZJUSCT/CSArena/internal/database"
	"github.com/ZJUSCT/CSArena/internal/database/models"
)

func TestRemainingTime(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	grace := 10 * time.Second

	if got := RemainingTime(start, start, 30, grace); got != 30*time.Minute+grace {
		t.Fatalf("fresh attempt: got %v", got)
	}
	if got := RemainingTime(start.Add(5*time.Minute), start, 30, grace); got != 25*time.Minute+grace {
		t.Fatalf("resumed attempt: got %v", got)
	}
	if got := RemainingTime(start.Add(time.Hour), start, 30, grace); got != 0 {
		t.Fatalf("expired attempt must floor at zero, got %v", got)
	}
}

func TestIndividualScoreDeduplicates(t *testing.T) {
	c1 := "c1"
	subs := []models.Submission{
		{QuestionID: "q1", ContestID: &c1, Score: 10, Status: models.SubmissionAccepted},
		{QuestionID: "q1", ContestID: &c1, Score: 10, Status: models.SubmissionAccepted},
		{QuestionID: "q1", Score: 10, Status: models.SubmissionAccepted},
		{QuestionID: "q2", Score: 4, Status: models.SubmissionRejected},
		{QuestionID: "q3", Score: 6, Status: models.SubmissionAccepted},
	}
	if got := IndividualScore(subs); got != 26 {
		t.Fatalf("expected 26, got %d", got)
	}
}

func TestContributionFloor(t *testing.T) {
	cases := []struct {
		final, members int
		want           float64
	}{
		{40, 1, 10},
		{10, 3, 2.5},
		{50, 5, 10},
		{12, 0, 3},
	}
	for _, tc := range cases {
		if got := Contribution(tc.final, tc.members, 4); got != tc.want {
			t.Fatalf("Contribution(%d, %d) = %v, want %v", tc.final, tc.members, got, tc.want)
		}
	}
}

func TestPermittedMemberCount(t *testing.T) {
	members := []string{"a", "b", "c"}
	cases := []struct {
		perm *database.PermissionSet
		want int
	}{
		{&database.PermissionSet{Mode: models.PermissionAll}, 3},
		{&database.PermissionSet{Mode: models.PermissionGroups, GroupIDs: []string{"g"}}, 3},
		{&database.PermissionSet{Mode: models.PermissionGroups, GroupIDs: []string{"x"}}, 1},
		{&database.PermissionSet{Mode: models.PermissionUsers, UserIDs: []string{"a", "c", "z"}}, 2},
		{&database.PermissionSet{Mode: models.PermissionUsers}, 1},
	}
	for i, tc := range cases {
		if got := PermittedMemberCount(tc.perm, "g", members); got != tc.want {
			t.Fatalf("case %d: expected %d, got %d", i, tc.want, got)
		}
	}
}

func TestEffectiveScore(t *testing.T) {
	if got := EffectiveScore(50, 20); got != 20 {
		t.Fatalf("claim above verified must be capped, got %d", got)
	}
	if got := EffectiveScore(10, 20); got != 10 {
		t.Fatalf("claim below verified is kept, got %d", got)
	}
	if got := EffectiveScore(-5, 20); got != 0 {
		t.Fatalf("negative claim floors at zero, got %d", got)
	}
}

func TestOrderGroups(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.GroupOnContest{
		{GroupID: "a", Score: 30, CreatedAt: base},
		{GroupID: "b", Score: 50, CreatedAt: base.Add(time.Second)},
		{GroupID: "c", Score: 50, CreatedAt: base.Add(2 * time.Second)},
		{GroupID: "d", Score: 10, CreatedAt: base.Add(3 * time.Second)},
	}
	ranked := OrderGroups(rows)
	want := map[string]int{"b": 1, "c": 2, "a": 3, "d": 4}
	for _, r := range ranked {
		if want[r.GroupID] != r.Rank {
			t.Fatalf("group %s: expected rank %d, got %d", r.GroupID, want[r.GroupID], r.Rank)
		}
	}
	if rows[0].Rank != 0 {
		t.Fatalf("input rows must not be modified")
	}
}

func TestCovered(t *testing.T) {
	if Covered(nil, []string{"a"}) {
		t.Fatalf("empty permitted set must not complete")
	}
	if Covered([]string{"a", "b"}, []string{"a"}) {
		t.Fatalf("partial coverage must not complete")
	}
	if !Covered([]string{"a", "b"}, []string{"b", "a", "x"}) {
		t.Fatalf("full coverage must complete")
	}
}
