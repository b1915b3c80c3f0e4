// Command seed fills the configured database with demo users, follows,
// messages and likes. Everything goes through the service layer, so the
// seeded data obeys the same rules as real traffic.
//
// Usage:
//
//	go run ./cmd/seed -users 20 -messages 5
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/sakif/warbler/internal/apperror"
	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/config"
	"github.com/sakif/warbler/internal/model"
	"github.com/sakif/warbler/internal/repository/sqlstore"
	"github.com/sakif/warbler/internal/service"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password"

func main() {
	users := flag.Int("users", 20, "number of users to create")
	messages := flag.Int("messages", 5, "messages per user")
	follows := flag.Int("follows", 5, "accounts each user follows")
	likes := flag.Int("likes", 5, "messages each user likes")
	seed := flag.Int64("seed", 0, "random seed (0 picks one)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stdout)

	if err := run(context.Background(), cfg, logger, options{
		Users:    *users,
		Messages: *messages,
		Follows:  *follows,
		Likes:    *likes,
		Seed:     *seed,
	}); err != nil {
		logger.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

type options struct {
	Users    int
	Messages int
	Follows  int
	Likes    int
	Seed     int64
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts options) error {
	if dialect, _, path := sqlstore.DialectFor(cfg.DatabaseURL); dialect == sqlstore.DialectSQLite && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewTokenService(cfg.SecretKey)
	if err != nil {
		return err
	}
	s := &seeder{
		auth:     service.NewAuthService(db, db, tokens, auth.NewPasswordService(), cfg.SessionTTL, logger),
		users:    service.NewUserService(db, db, db, db, logger),
		messages: service.NewMessageService(db, db, logger),
		faker:    gofakeit.New(opts.Seed),
		rng:      newRand(opts.Seed),
		logger:   logger,
	}
	return s.seed(ctx, opts)
}

type seeder struct {
	auth     *service.AuthService
	users    *service.UserService
	messages *service.MessageService
	faker    *gofakeit.Faker
	rng      *rand.Rand
	logger   *slog.Logger
}

func (s *seeder) seed(ctx context.Context, opts options) error {
	created := make([]*model.User, 0, opts.Users)
	for len(created) < opts.Users {
		u, err := s.auth.Signup(ctx, service.SignupInput{
			Username: s.username(),
			Password: SeedPassword,
			Email:    s.faker.Email(),
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/200/200", s.faker.UUID()),
		})
		if errors.Is(err, apperror.ErrConflict) {
			continue
		}
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		created = append(created, u)
	}
	s.logger.Info("seeded users", slog.Int("count", len(created)))

	var posted []*model.Message
	for _, u := range created {
		actor := &auth.Identity{UserID: u.ID}
		for i := 0; i < opts.Messages; i++ {
			m, err := s.messages.Create(ctx, actor, s.text())
			if err != nil {
				return fmt.Errorf("posting as %s: %w", u.Username, err)
			}
			posted = append(posted, m)
		}
	}
	s.logger.Info("seeded messages", slog.Int("count", len(posted)))

	for _, u := range created {
		actor := &auth.Identity{UserID: u.ID}
		for _, target := range pick(s.rng, created, opts.Follows) {
			if target.ID == u.ID {
				continue
			}
			if err := s.users.Follow(ctx, actor, target.ID); err != nil {
				return fmt.Errorf("%s following %s: %w", u.Username, target.Username, err)
			}
		}
		for _, m := range pick(s.rng, posted, opts.Likes) {
			if m.UserID == u.ID {
				continue
			}
			if _, err := s.messages.ToggleLike(ctx, actor, m.ID); err != nil {
				return fmt.Errorf("%s liking %s: %w", u.Username, m.ID, err)
			}
		}
	}
	s.logger.Info("seeding complete", slog.String("password", SeedPassword))
	return nil
}

func (s *seeder) username() string {
	name := strings.ToLower(s.faker.Username())
	if len(name) > service.MaxUsernameLength {
		name = name[:service.MaxUsernameLength]
	}
	return name
}

func (s *seeder) text() string {
	text := s.faker.HipsterSentence(s.faker.Number(4, 14))
	if r := []rune(text); len(r) > service.MaxMessageLength {
		text = string(r[:service.MaxMessageLength])
	}
	return text
}

// newRand returns a generator seeded with seed, or a random one for 0.
func newRand(seed int64) *rand.Rand {
	s := uint64(seed)
	if seed == 0 {
		s = rand.Uint64()
	}
	return rand.New(rand.NewPCG(s, s))
}

// pick returns up to n distinct elements of items in random order.
func pick[T any](rng *rand.Rand, items []T, n int) []T {
	n = max(0, min(n, len(items)))
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(items))[:n] {
		out = append(out, items[i])
	}
	return out
}
