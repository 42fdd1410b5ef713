package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"classy-quiz-bot/internal/bot"
	"classy-quiz-bot/internal/config"
	"classy-quiz-bot/internal/content"
	"classy-quiz-bot/internal/domain"
	"classy-quiz-bot/internal/imagegen"
	"classy-quiz-bot/internal/infra/memory"
	"classy-quiz-bot/internal/infra/postgres"
	redisinfra "classy-quiz-bot/internal/infra/redis"
	"classy-quiz-bot/internal/infra/sqlite"
	"classy-quiz-bot/internal/quiz"
	transport "classy-quiz-bot/internal/transport/ws"
	"github.com/go-resty/resty/v2"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the gateway.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the bot gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var (
		solutions content.SolutionStore
		scores    quiz.ScoreStore
	)
	switch {
	case cfg.Postgres.URL != "":
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		solutions = postgres.NewSolutionStore(pool)
		scores = postgres.NewScoreStore(pool)
	case cfg.SQLite.Path != "":
		store, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		solutions = store
		scores = store
	default:
		log.Printf("no database configured, using in-memory sample data")
		solutions = memory.NewSolutionStore(sampleSolutions())
		scores = memory.NewScoreStore()
	}

	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		langsTTL := config.Duration(cfg.Redis.LangsTTL, time.Hour)
		solutions = redisinfra.NewLanguageCache(redisClient, solutions, langsTTL)
	}

	mathBank, err := content.NewMathBank()
	if err != nil {
		return err
	}

	var generator *imagegen.Generator
	if cfg.Imagine.APIBase != "" && cfg.Imagine.EnvFile != "" {
		envKey := cfg.Imagine.EnvKey
		if envKey == "" {
			envKey = "IMAGE_REFRESH_TOKEN"
		}
		tokenStore := imagegen.NewEnvFileTokenStore(cfg.Imagine.EnvFile, envKey)
		tokens := imagegen.NewTokenManager(
			resty.New().SetTimeout(30*time.Second),
			tokenStore,
			cfg.Imagine.TokenURL,
			cfg.Imagine.APIKey,
		)
		genOpts := []imagegen.GeneratorOption{}
		if d := config.Duration(cfg.Imagine.PollInterval, 0); d > 0 {
			genOpts = append(genOpts, imagegen.WithPollInterval(d))
		}
		if cfg.Imagine.MaxPolls > 0 {
			genOpts = append(genOpts, imagegen.WithMaxPolls(cfg.Imagine.MaxPolls))
		}
		generator = imagegen.NewGenerator(
			resty.New().SetBaseURL(cfg.Imagine.APIBase).SetTimeout(60*time.Second),
			tokens,
			genOpts...,
		)
	} else {
		log.Printf("image generation not configured, imagine command disabled")
	}

	botCfg := bot.DefaultConfig()
	if cfg.Quiz.MathColor != "" {
		botCfg.MathColor = cfg.Quiz.MathColor
	}
	botCfg.MathTimeout = config.Duration(cfg.Quiz.MathTimeout, botCfg.MathTimeout)
	if cfg.Quiz.CodeGuessColor != "" {
		botCfg.CodeGuessColor = cfg.Quiz.CodeGuessColor
	}
	botCfg.CodeGuessTimeout = config.Duration(cfg.Quiz.CodeGuessTimeout, botCfg.CodeGuessTimeout)
	if cfg.Quiz.CodeGuessChoices > 0 {
		botCfg.CodeGuessChoices = cfg.Quiz.CodeGuessChoices
	}

	service := bot.NewService(mathBank, solutions, scores, generator, botCfg)
	wsHandler := transport.NewHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz bot gateway on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleSolutions seeds the demo store; real deployments point at a scraped
// Rosetta Code database instead.
func sampleSolutions() []domain.Solution {
	return []domain.Solution{
		{
			TaskName: "FizzBuzz",
			TaskURL:  "https://rosettacode.org/wiki/FizzBuzz",
			Language: "Go",
			Code:     "for i := 1; i <= 100; i++ {\n\tswitch {\n\tcase i%15 == 0:\n\t\tfmt.Println(\"FizzBuzz\")\n\tcase i%3 == 0:\n\t\tfmt.Println(\"Fizz\")\n\tcase i%5 == 0:\n\t\tfmt.Println(\"Buzz\")\n\tdefault:\n\t\tfmt.Println(i)\n\t}\n}",
		},
		{
			TaskName: "FizzBuzz",
			TaskURL:  "https://rosettacode.org/wiki/FizzBuzz",
			Language: "Python",
			Code:     "for i in range(1, 101):\n    print('FizzBuzz' if i % 15 == 0 else 'Fizz' if i % 3 == 0 else 'Buzz' if i % 5 == 0 else i)",
		},
		{
			TaskName: "Factorial",
			TaskURL:  "https://rosettacode.org/wiki/Factorial",
			Language: "Haskell",
			Code:     "factorial :: Integer -> Integer\nfactorial n = product [1..n]",
		},
		{
			TaskName: "Factorial",
			TaskURL:  "https://rosettacode.org/wiki/Factorial",
			Language: "Rust",
			Code:     "fn factorial(n: u64) -> u64 {\n    (1..=n).product()\n}",
		},
		{
			TaskName: "Hello world/Text",
			TaskURL:  "https://rosettacode.org/wiki/Hello_world%2FText",
			Language: "C",
			Code:     "#include <stdio.h>\n\nint main(void) {\n    puts(\"Hello world!\");\n    return 0;\n}",
		},
		{
			TaskName: "Hello world/Text",
			TaskURL:  "https://rosettacode.org/wiki/Hello_world%2FText",
			Language: "Java",
			Code:     "public class Hello {\n    public static void main(String[] args) {\n        System.out.println(\"Hello world!\");\n    }\n}",
		},
	}
}
