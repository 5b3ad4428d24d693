package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"newsapp/internal/models"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn, nil, "https://news.example.com", nopCache)
	users.now = fixedClock(baseTime)

	user, err := users.Register("alice", "alice@example.com", "correct-horse", "correct-horse")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !user.IsActive || user.Profile == nil || user.Profile.ID == 0 {
		t.Errorf("registered user = %+v", user)
	}
	if user.Password == "correct-horse" {
		t.Error("password stored in plain text")
	}

	got, err := users.Authenticate("alice", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(baseTime) {
		t.Errorf("last login = %v", got.LastLogin)
	}

	var verr *ValidationError
	if _, err := users.Authenticate("alice", "wrong-password"); !errors.As(err, &verr) || verr.Field != "" {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := users.Authenticate("nobody", "correct-horse"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown user err = %v", err)
	}

	conn.Model(&models.User{}).Where("id = ?", user.ID).UpdateColumn("is_active", false)
	if _, err := users.Authenticate("alice", "correct-horse"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("inactive user err = %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn, nil, "", nopCache)
	if _, err := users.Register("Bob", "", "s3cret-pass", "s3cret-pass"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name                string
		username, email     string
		password, password2 string
		field               string
	}{
		{"duplicate ignores case", "bob", "", "another-pass", "another-pass", "username"},
		{"missing username", "", "", "another-pass", "another-pass", "username"},
		{"bad username", "bad name", "", "another-pass", "another-pass", "username"},
		{"bad email", "carol", "not-an-email", "another-pass", "another-pass", "email"},
		{"mismatch", "carol", "", "another-pass", "other-pass", "password2"},
		{"short", "carol", "", "short", "short", "password1"},
		{"numeric", "carol", "", "1234567890", "1234567890", "password1"},
		{"same as username", "carolcarol", "", "CarolCarol", "CarolCarol", "password1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.Register(tt.username, tt.email, tt.password, tt.password2)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestPasswordReset(t *testing.T) {
	conn := newTestDB(t)
	mailer := &recordingMailer{}
	users := NewUserService(conn, mailer, "https://news.example.com/", nopCache)
	users.now = fixedClock(baseTime)
	if _, err := users.Register("dave", "dave@example.com", "first-password", "first-password"); err != nil {
		t.Fatal(err)
	}

	if err := users.RequestPasswordReset("nobody@example.com"); err != nil {
		t.Fatalf("unknown email should be silent: %v", err)
	}
	if len(mailer.resets) != 0 {
		t.Fatalf("mail sent for unknown email")
	}

	if err := users.RequestPasswordReset("DAVE@example.com"); err != nil {
		t.Fatal(err)
	}
	if len(mailer.resets) != 1 {
		t.Fatalf("resets = %v", mailer.resets)
	}
	link := mailer.resets[0]
	const prefix = "https://news.example.com/reset?token="
	if !strings.HasPrefix(link, prefix) {
		t.Fatalf("link = %q", link)
	}
	token := strings.TrimPrefix(link, prefix)

	if _, err := users.ResetPassword(token, "new-password", "mismatch"); !errors.Is(err, ErrValidation) {
		t.Errorf("mismatch err = %v", err)
	}
	if _, err := users.ResetPassword(token, "new-password", "new-password"); err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if _, err := users.Authenticate("dave", "new-password"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
	if _, err := users.ResetPassword(token, "third-password", "third-password"); !errors.Is(err, ErrValidation) {
		t.Errorf("reused token err = %v", err)
	}

	// 令牌一小时后失效
	if err := users.RequestPasswordReset("dave@example.com"); err != nil {
		t.Fatal(err)
	}
	token = strings.TrimPrefix(mailer.resets[1], prefix)
	users.now = fixedClock(baseTime.Add(2 * time.Hour))
	if _, err := users.ResetPassword(token, "late-password", "late-password"); !errors.Is(err, ErrValidation) {
		t.Errorf("expired token err = %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn, nil, "", nopCache)
	user := createUser(t, conn, "erin", false)

	profile, err := users.UpdateProfile(user, "  Gopher  ")
	if err != nil {
		t.Fatal(err)
	}
	if profile.Bio != "Gopher" {
		t.Errorf("bio = %q", profile.Bio)
	}
	if _, err := users.UpdateProfile(user, "Still a gopher"); err != nil {
		t.Fatal(err)
	}
	got, err := users.GetByUsername("erin")
	if err != nil {
		t.Fatal(err)
	}
	if got.Profile == nil || got.Profile.Bio != "Still a gopher" {
		t.Errorf("profile = %+v", got.Profile)
	}
	if _, err := users.UpdateProfile(nil, "x"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("anonymous err = %v", err)
	}
}

func TestDeleteUserKeepsContent(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserService(conn, nil, "", nopCache)
	author := createUser(t, conn, "frank", false)
	voter := createUser(t, conn, "grace", false)
	submission := createSubmission(t, conn, author, "Survives", 0, baseTime)

	votes := NewVoteService(conn, nopCache)
	if _, err := votes.ToggleSubmission(voter, submission.ID, models.VoteUp); err != nil {
		t.Fatal(err)
	}
	comments := NewCommentService(conn, nopCache, nil)
	comment, err := comments.AddComment(voter, models.SubmissionTarget(submission.ID), nil, "nice")
	if err != nil {
		t.Fatal(err)
	}

	if err := users.Delete(author, voter.ID); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("delete other err = %v", err)
	}
	if err := users.Delete(voter, voter.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := users.Get(voter.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted user still loads: %v", err)
	}
	if p := reload[models.Submission](t, conn, submission.ID).Points; p != 1 {
		t.Errorf("points = %d, want 1 after voter deletion", p)
	}
	if n := count(t, conn, &models.SubmissionUpvote{}, "submission_id = ? AND user_id IS NULL", submission.ID); n != 1 {
		t.Errorf("orphaned upvotes = %d, want 1", n)
	}
	if c := reload[models.Comment](t, conn, comment.ID); c.UserID != nil || c.Text != "nice" {
		t.Errorf("comment after delete = %+v", c)
	}
}
