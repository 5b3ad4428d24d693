package services

import (
	"fmt"
	"testing"
)

func TestGenerateMathProblem(t *testing.T) {
	s := NewCaptchaService()
	for i := 0; i < 50; i++ {
		question, answer := s.GenerateMathProblem()
		var a, b int
		var op string
		if _, err := fmt.Sscanf(question, "%d %s %d", &a, &op, &b); err != nil {
			t.Fatalf("unexpected question %q: %v", question, err)
		}
		want := a + b
		if op == "-" {
			want = a - b
		}
		if answer != want || answer < 0 {
			t.Errorf("%s = %d, got %d", question, want, answer)
		}
	}
}
