package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"classy-quiz-bot/internal/content"
	"classy-quiz-bot/internal/domain"
	"classy-quiz-bot/internal/imagegen"
	"classy-quiz-bot/internal/quiz"
)

// QuizKind selects which content provider feeds a new session.
type QuizKind string

const (
	KindMath      QuizKind = "math"
	KindCodeGuess QuizKind = "codeguess"
)

// Config carries the per-kind render color and timeout plus quiz sizing.
type Config struct {
	MathColor        string
	MathTimeout      time.Duration
	CodeGuessColor   string
	CodeGuessTimeout time.Duration
	CodeGuessChoices int
}

// DefaultConfig mirrors the shipped command defaults.
func DefaultConfig() Config {
	return Config{
		MathColor:        "blue",
		MathTimeout:      240 * time.Second,
		CodeGuessColor:   "dark_grey",
		CodeGuessTimeout: 60 * time.Second,
		CodeGuessChoices: 5,
	}
}

// ImagineReply is a finished image command, ready for display.
type ImagineReply struct {
	Caption  string `json:"caption"`
	Credit   string `json:"credit"`
	ImageURL string `json:"imageUrl"`
}

// Service is the command layer: each exposed operation maps to one slash
// command of the bot.
type Service struct {
	math      *content.MathBank
	solutions content.SolutionStore
	scores    quiz.ScoreStore
	generator *imagegen.Generator
	cfg       Config
	registry  *Registry

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewService(math *content.MathBank, solutions content.SolutionStore, scores quiz.ScoreStore, generator *imagegen.Generator, cfg Config) *Service {
	return &Service{
		math:      math,
		solutions: solutions,
		scores:    scores,
		generator: generator,
		cfg:       cfg,
		registry:  NewRegistry(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Hello answers the hello command.
func (s *Service) Hello() string {
	return "Hello"
}

// Imagine runs one image generation. NSFW rejections surface unchanged so
// the caller can show the dedicated notice.
func (s *Service) Imagine(ctx context.Context, user domain.User, prompt, negativePrompt, aspectRatio string, steps int) (ImagineReply, error) {
	if s.generator == nil {
		return ImagineReply{}, fmt.Errorf("image generation is not configured")
	}
	result, err := s.generator.Generate(ctx, imagegen.Request{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		AspectRatio:    aspectRatio,
		Steps:          steps,
	})
	if err != nil {
		return ImagineReply{}, err
	}

	caption := prompt
	if len(caption) > 128 {
		caption = caption[:125] + "..."
	}
	return ImagineReply{
		Caption:  fmt.Sprintf("> %s (%s)", caption, aspectRatio),
		Credit:   "by " + user.Mention(),
		ImageURL: result.ImageURL,
	}, nil
}

// StartQuiz fetches content for the requested kind, constructs a session,
// and sends it. newSink is called with the fresh session ID so the sink can
// tag every payload it delivers; that ID also routes later interactions.
func (s *Service) StartQuiz(ctx context.Context, kind QuizKind, newSink func(sessionID string) quiz.MessageSink) (string, error) {
	var (
		quizContent domain.MultiChoiceQuiz
		opts        []quiz.Option
		err         error
	)
	switch kind {
	case KindMath:
		quizContent, err = s.randomMathQuiz()
		opts = append(opts, quiz.WithColor(s.cfg.MathColor), quiz.WithTimeout(s.cfg.MathTimeout))
	case KindCodeGuess:
		quizContent, err = s.randomCodeGuessQuiz(ctx)
		opts = append(opts, quiz.WithColor(s.cfg.CodeGuessColor), quiz.WithTimeout(s.cfg.CodeGuessTimeout))
		if s.scores != nil {
			opts = append(opts, quiz.WithScoringHook(quiz.PersistentScoring(s.scores)))
		}
	default:
		return "", fmt.Errorf("unknown quiz kind %q", kind)
	}
	if err != nil {
		return "", err
	}

	id := s.sessionID()
	opts = append(opts, quiz.WithFinalizeFunc(func() {
		s.registry.Delete(id)
	}))
	session, err := quiz.NewSession(quizContent, newSink(id), opts...)
	if err != nil {
		return "", err
	}
	s.registry.Add(id, session)
	if err := session.Send(ctx); err != nil {
		s.registry.Delete(id)
		return "", err
	}
	return id, nil
}

// Answer routes one option interaction into its session. A missing session
// means the quiz already finalized; that is the expected UI race, not an
// error.
func (s *Service) Answer(ctx context.Context, sessionID string, user domain.User, label string, at time.Time) error {
	session, ok := s.registry.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.Submit(ctx, user, label, at)
}

// Leaderboard renders the persistent top-n code guessers.
func (s *Service) Leaderboard(ctx context.Context, n int) (string, error) {
	if s.scores == nil {
		return "", fmt.Errorf("no score store configured")
	}
	records, err := s.scores.TopN(ctx, n)
	if err != nil {
		return "", fmt.Errorf("top scores: %w", err)
	}

	lines := []string{"### Top codeguessrs"}
	for rank, rec := range records {
		unit := "points"
		if rec.Points == 1 || rec.Points == -1 {
			unit = "point"
		}
		user := domain.User{ID: rec.UserID}
		lines = append(lines, fmt.Sprintf("%d. %s  %d %s", rank+1, user.Mention(), rec.Points, unit))
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Service) randomMathQuiz() (domain.MultiChoiceQuiz, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.math.Random(s.rng)
}

func (s *Service) randomCodeGuessQuiz(ctx context.Context) (domain.MultiChoiceQuiz, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return content.RandomCodeGuessQuiz(ctx, s.solutions, s.cfg.CodeGuessChoices, s.rng)
}

const hexDigits = "0123456789abcdef"

func (s *Service) sessionID() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	buf := make([]byte, 12)
	for i := range buf {
		buf[i] = hexDigits[s.rng.Intn(len(hexDigits))]
	}
	return string(buf)
}
