// seed 向开发数据库写入假数据：用户、文章、提交、投票和评论树
package main

import (
	"flag"
	"fmt"
	"time"

	"newsapp/internal/cache"
	"newsapp/internal/config"
	"newsapp/internal/db"
	"newsapp/internal/logger"
	"newsapp/internal/models"
	"newsapp/internal/services"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog"
)

const seedPassword = "newsapp-dev-password"

type seeder struct {
	fake     *gofakeit.Faker
	log      zerolog.Logger
	users    *services.UserService
	content  *services.ContentService
	votes    *services.VoteService
	comments *services.CommentService
}

func main() {
	numUsers := flag.Int("users", 20, "number of users")
	numArticles := flag.Int("articles", 10, "articles per news site")
	numSubmissions := flag.Int("submissions", 50, "number of submissions")
	numComments := flag.Int("comments", 200, "number of comments")
	seed := flag.Int64("seed", 0, "random seed, 0 for a random one")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("dev")
		bootLog.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.AppEnv)
	if err := db.Init(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	store := cache.Nop{}
	content := services.NewContentService(db.DB, store, 0, cfg.Limits.PageSize)
	s := &seeder{
		fake:     gofakeit.New(*seed),
		log:      log,
		users:    services.NewUserService(db.DB, nil, cfg.SiteURL, store),
		content:  content,
		votes:    services.NewVoteService(db.DB, store),
		comments: services.NewCommentService(db.DB, store, nil),
	}

	users := s.seedUsers(*numUsers)
	if len(users) == 0 {
		log.Fatal().Msg("No users created")
	}
	s.seedArticles(*numArticles)
	submissions := s.seedSubmissions(users, *numSubmissions)
	s.seedVotes(users, submissions)
	s.seedComments(users, submissions, *numComments)

	log.Info().
		Int("users", len(users)).
		Int("submissions", len(submissions)).
		Str("password", seedPassword).
		Msg("Seed completed")
}

func (s *seeder) seedUsers(n int) []*models.User {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("%s%d", s.fake.Username(), i)
		user, err := s.users.Register(username, s.fake.Email(), seedPassword, seedPassword)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("Skipping user")
			continue
		}
		if _, err := s.users.UpdateProfile(user, s.fake.Paragraph(1, 3, 12, " ")); err != nil {
			s.log.Warn().Err(err).Msg("Failed to set bio")
		}
		users = append(users, user)
	}
	return users
}

func (s *seeder) seedArticles(perSite int) {
	sites, err := s.content.ListNewsSites()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load news sites")
		return
	}
	now := time.Now().UTC()
	for _, site := range sites {
		for i := 0; i < perSite; i++ {
			link := s.fake.URL()
			_, err := s.content.CreateArticle(services.ArticleInput{
				NewsSiteID: site.ID,
				Title:      s.fake.Sentence(8),
				Subtitle:   s.fake.Sentence(14),
				Author:     s.fake.Name(),
				PubDate:    s.fake.DateRange(now.AddDate(0, 0, -30), now),
				Text:       "<p>" + s.fake.Paragraph(3, 4, 16, "</p><p>") + "</p>",
				URL:        link,
				GUID:       link,
			})
			if err != nil {
				s.log.Warn().Err(err).Str("site", site.Name).Msg("Skipping article")
			}
		}
	}
}

func (s *seeder) seedSubmissions(users []*models.User, n int) []*models.Submission {
	submissions := make([]*models.Submission, 0, n)
	for i := 0; i < n; i++ {
		author := users[s.fake.Number(0, len(users)-1)]
		link, text := s.fake.URL(), ""
		if s.fake.Bool() {
			link, text = "", s.fake.Paragraph(2, 3, 14, "\n\n")
		}
		sub, err := s.content.CreateSubmission(author, s.fake.HackerPhrase(), link, text)
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping submission")
			continue
		}
		submissions = append(submissions, sub)
	}
	return submissions
}

func (s *seeder) seedVotes(users []*models.User, submissions []*models.Submission) {
	for _, sub := range submissions {
		for _, user := range users {
			dir := models.VoteUp
			switch roll := s.fake.Number(0, 9); {
			case roll < 6:
				continue
			case roll == 9:
				dir = models.VoteDown
			}
			if _, err := s.votes.ToggleSubmission(user, sub.ID, dir); err != nil {
				s.log.Warn().Err(err).Uint("submission_id", sub.ID).Msg("Skipping vote")
			}
		}
	}
}

// seedComments 随机回复已有评论，生成多层评论树
func (s *seeder) seedComments(users []*models.User, submissions []*models.Submission, n int) {
	if len(submissions) == 0 {
		return
	}
	threads := make(map[uint][]uint)
	for i := 0; i < n; i++ {
		sub := submissions[s.fake.Number(0, len(submissions)-1)]
		author := users[s.fake.Number(0, len(users)-1)]

		var parent *uint
		if existing := threads[sub.ID]; len(existing) > 0 && s.fake.Number(0, 2) > 0 {
			id := existing[s.fake.Number(0, len(existing)-1)]
			parent = &id
		}
		comment, err := s.comments.AddComment(author, models.SubmissionTarget(sub.ID), parent, s.fake.Sentence(s.fake.Number(5, 30)))
		if err != nil {
			s.log.Warn().Err(err).Msg("Skipping comment")
			continue
		}
		threads[sub.ID] = append(threads[sub.ID], comment.ID)

		if s.fake.Number(0, 3) == 0 {
			voter := users[s.fake.Number(0, len(users)-1)]
			if _, err := s.votes.ToggleComment(voter, comment.ID); err != nil {
				s.log.Warn().Err(err).Msg("Skipping comment vote")
			}
		}
	}
}
