package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// CaptchaService 注册与找回密码表单使用的算术验证码
type CaptchaService struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCaptchaService() *CaptchaService {
	return &CaptchaService{
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GenerateMathProblem returns a display string (e.g. "3 + 5") and the integer answer.
// Usage: Store answer in session, display question to user.
func (s *CaptchaService) GenerateMathProblem() (string, int) {
	s.mu.Lock()
	a := s.rnd.Intn(10)
	b := s.rnd.Intn(10)
	op := s.rnd.Intn(2)
	s.mu.Unlock()

	if op == 0 {
		return fmt.Sprintf("%d + %d", a, b), a + b
	}
	if a < b {
		a, b = b, a
	}
	return fmt.Sprintf("%d - %d", a, b), a - b
}
