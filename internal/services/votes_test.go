package services

import (
	"errors"
	"testing"

	"newsapp/internal/models"

	"gorm.io/gorm/clause"
)

func TestToggleSubmissionUpvoteTwice(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	voter := createUser(t, conn, "voter", false)
	submission := createSubmission(t, conn, author, "Hello", 0, baseTime)
	votes := NewVoteService(conn, nopCache)

	got, err := votes.ToggleSubmission(voter, submission.ID, models.VoteUp)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !got.Cast || got.Points != 1 || got.State != models.VoteUp {
		t.Errorf("first toggle = %+v, want cast with 1 point", got)
	}
	if n := count(t, conn, &models.SubmissionUpvote{}, "submission_id = ?", submission.ID); n != 1 {
		t.Errorf("upvotes = %d, want 1", n)
	}
	if p := reload[models.User](t, conn, author.ID).Points; p != 1 {
		t.Errorf("author points = %d, want 1", p)
	}

	got, err = votes.ToggleSubmission(voter, submission.ID, models.VoteUp)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if got.Cast || got.Points != 0 || got.State != 0 {
		t.Errorf("second toggle = %+v, want retracted with 0 points", got)
	}
	if n := count(t, conn, &models.SubmissionUpvote{}, "submission_id = ?", submission.ID); n != 0 {
		t.Errorf("upvotes = %d, want 0", n)
	}
	if p := reload[models.Submission](t, conn, submission.ID).Points; p != 0 {
		t.Errorf("stored points = %d, want 0", p)
	}
	if p := reload[models.User](t, conn, author.ID).Points; p != 0 {
		t.Errorf("author points = %d, want 0", p)
	}
}

func TestToggleSubmissionSwitchDirection(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	voter := createUser(t, conn, "voter", false)
	submission := createSubmission(t, conn, author, "Hello", 0, baseTime)
	votes := NewVoteService(conn, nopCache)

	if _, err := votes.ToggleSubmission(voter, submission.ID, models.VoteUp); err != nil {
		t.Fatal(err)
	}
	got, err := votes.ToggleSubmission(voter, submission.ID, models.VoteDown)
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != -1 || got.State != models.VoteDown {
		t.Errorf("after switch = %+v, want -1 down", got)
	}
	if n := count(t, conn, &models.SubmissionUpvote{}, "submission_id = ?", submission.ID); n != 0 {
		t.Errorf("upvote left behind: %d", n)
	}
	if n := count(t, conn, &models.SubmissionDownvote{}, "submission_id = ?", submission.ID); n != 1 {
		t.Errorf("downvotes = %d, want 1", n)
	}

	states, err := votes.SubmissionStates(voter.ID, []uint{submission.ID})
	if err != nil {
		t.Fatal(err)
	}
	if states[submission.ID] != models.VoteDown {
		t.Errorf("state = %v, want down", states[submission.ID])
	}
}

func TestToggleSubmissionOwnVoteEarnsNoPoints(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	submission := createSubmission(t, conn, author, "Mine", 0, baseTime)
	votes := NewVoteService(conn, nopCache)

	got, err := votes.ToggleSubmission(author, submission.ID, models.VoteUp)
	if err != nil {
		t.Fatal(err)
	}
	if got.Points != 1 {
		t.Errorf("points = %d, want 1", got.Points)
	}
	if p := reload[models.User](t, conn, author.ID).Points; p != 0 {
		t.Errorf("self vote changed karma to %d", p)
	}
}

func TestToggleSubmissionErrors(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	voter := createUser(t, conn, "voter", false)
	submission := createSubmission(t, conn, author, "Hello", 0, baseTime)
	removed := createSubmission(t, conn, author, "Removed", 0, baseTime)
	conn.Model(removed).UpdateColumn("healthy", false)
	votes := NewVoteService(conn, nopCache)

	tests := []struct {
		name  string
		actor *models.User
		id    uint
		dir   models.VoteDirection
		want  error
	}{
		{"anonymous", nil, submission.ID, models.VoteUp, ErrPermissionDenied},
		{"missing", voter, 9999, models.VoteUp, ErrNotFound},
		{"unhealthy", voter, removed.ID, models.VoteUp, ErrInvalidState},
		{"bad direction", voter, submission.ID, 0, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := votes.ToggleSubmission(tt.actor, tt.id, tt.dir)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if p := reload[models.Submission](t, conn, removed.ID).Points; p != 0 {
		t.Errorf("removed submission points changed to %d", p)
	}
}

func TestRecount(t *testing.T) {
	conn := newTestDB(t)
	author := createUser(t, conn, "author", false)
	submission := createSubmission(t, conn, author, "Drifted", 42, baseTime)
	votes := NewVoteService(conn, nopCache)

	for _, name := range []string{"a", "b"} {
		u := createUser(t, conn, name, false)
		conn.Omit(clause.Associations).Create(&models.SubmissionUpvote{UserID: &u.ID, SubmissionID: submission.ID})
	}
	c := createUser(t, conn, "c", false)
	conn.Omit(clause.Associations).Create(&models.SubmissionDownvote{UserID: &c.ID, SubmissionID: submission.ID})

	points, err := votes.Recount(submission.ID)
	if err != nil {
		t.Fatal(err)
	}
	if points != 1 || reload[models.Submission](t, conn, submission.ID).Points != 1 {
		t.Errorf("recount = %d, want 1", points)
	}
}
