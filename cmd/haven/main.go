package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/tidemind/haven/pkg/config"
	"github.com/tidemind/haven/pkg/logging"
	"github.com/tidemind/haven/pkg/risk"
	"github.com/tidemind/haven/pkg/session"
	"github.com/tidemind/haven/pkg/telemetry"
)

const Version = "0.1.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		port := "3000"
		if len(os.Args) > 2 {
			port = os.Args[2]
		}
		runServer(port)
	case "check":
		if len(os.Args) < 3 {
			fmt.Println("Usage: haven check <text>")
			os.Exit(1)
		}
		runCheck(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Haven v%s\n", Version)
		fmt.Println("Safety & guided-session core")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Haven v%s - safety & guided-session core\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  haven serve [port]   Start HTTP server (default: 3000)")
	fmt.Println("  haven check <text>   Run a one-shot risk check on text")
	fmt.Println("  haven version        Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  HAVEN_REDIS_ADDR          Redis address for session storage (optional)")
	fmt.Println("  HAVEN_POSTGRES_URL        Postgres URL for the crisis audit log (optional)")
	fmt.Println("  HAVEN_COMMUNITY_CARD_URL  Community card service base URL (optional)")
	fmt.Println("  HAVEN_VOCABULARY_PATH     Risk vocabulary YAML override (optional)")
}

// server wires the two engines behind the HTTP surface. The session
// handlers serialize on a mutex: the product model is one active session
// at a time.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	analyzer *risk.Analyzer
	trackers *risk.TrackerStore
	recorder risk.Recorder
	engine   *session.Engine

	mu     sync.Mutex
	active *session.Progress
}

func newServer(cfg *config.Config) (*server, error) {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	vocab, err := risk.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		return nil, err
	}

	trackerCfg := risk.TrackerConfig{
		WindowSize:    cfg.TrackerWindowSize,
		EscalateCount: cfg.EscalateCount,
		MonitorCount:  cfg.MonitorCount,
		SnippetMaxLen: cfg.SnippetMaxLen,
	}

	var recorder risk.Recorder
	if cfg.PostgresURL != "" {
		pg, err := risk.NewPostgresRecorder(context.Background(), cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		recorder = pg
		logger.Info("crisis audit log enabled", "backend", "postgres")
	} else {
		recorder = risk.NewMemoryRecorder()
		logger.Warn("crisis audit log is in-memory only; set HAVEN_POSTGRES_URL for durability")
	}

	var store session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		store = session.NewRedisStore(client, session.WithLogger(logger))
		logger.Info("session store enabled", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		store = session.NewMemoryStore()
		logger.Warn("session store is in-memory only; set HAVEN_REDIS_ADDR to survive restarts")
	}

	var community session.CardProvider
	if cfg.CommunityCardURL != "" {
		community = session.NewHTTPCardProvider(cfg.CommunityCardURL)
		logger.Info("community cards enabled", "url", cfg.CommunityCardURL)
	}

	engineCfg := session.EngineConfig{
		UnlockThreshold:        cfg.UnlockThreshold,
		StackedUnlockThreshold: cfg.StackedUnlockThreshold,
		WildcardChance:         cfg.WildcardChance,
	}

	return &server{
		cfg:      cfg,
		logger:   logger,
		analyzer: risk.NewAnalyzer(vocab),
		trackers: risk.NewTrackerStore(trackerCfg, risk.WithTrackerTTL(cfg.TrackerTTL)),
		recorder: recorder,
		engine:   session.NewEngine(engineCfg, session.NewPoolBuilder(nil, community), store),
	}, nil
}

func runServer(port string) {
	cfg := config.NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv, err := newServer(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(srv.logger)

	app := fiber.New(fiber.Config{
		AppName: "Haven",
	})

	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Get("/metrics", adaptor.HTTPHandler(telemetry.Handler()))

	app.Post("/v1/risk/check", srv.handleRiskCheck)

	app.Post("/v1/sessions", srv.handleSessionBegin)
	app.Get("/v1/sessions", srv.handleSessionRestore)
	app.Post("/v1/sessions/advance", srv.handleSessionAdvance)
	app.Post("/v1/sessions/level", srv.handleSessionLevel)
	app.Post("/v1/sessions/shuffle", srv.handleSessionShuffle)
	app.Post("/v1/sessions/end", srv.handleSessionEnd)

	srv.logger.Info("haven listening", "port", port)
	if err := app.Listen(":" + port); err != nil {
		srv.logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// ============================================================================
// Risk endpoints
// ============================================================================

type riskCheckRequest struct {
	UserID  string `json:"user_id"`
	Surface string `json:"surface"`
	Text    string `json:"text"`
}

type riskCheckResponse struct {
	Assessment risk.Assessment `json:"assessment"`
	Verdict    risk.Verdict    `json:"verdict"`
	Decision   risk.Decision   `json:"decision"`
}

func (s *server) handleRiskCheck(c fiber.Ctx) error {
	var req riskCheckRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	if req.UserID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "user_id is required"})
	}

	surface := config.Surface(req.Surface)
	policy := s.cfg.PolicyFor(surface)
	if policy.MaxTextLen > 0 && len([]rune(req.Text)) > policy.MaxTextLen {
		return c.Status(400).JSON(fiber.Map{
			"error": fmt.Sprintf("text exceeds %d characters for surface %q", policy.MaxTextLen, req.Surface),
		})
	}

	assessment, err := s.analyzer.AnalyzeText(req.Text)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}

	verdict, err := s.trackers.Observe(req.UserID, req.Text, assessment.Level)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	telemetry.ActiveTrackers.Set(float64(s.trackers.Len()))

	decision := risk.Evaluate(assessment, verdict, policy.AllowOverride)
	telemetry.RiskDecisionsTotal.WithLabelValues(req.Surface, string(decision.Action)).Inc()
	if decision.Upgraded {
		telemetry.EscalationsTotal.Inc()
	}

	// Blocked or escalated submissions leave an audit trail. The block
	// response itself must go out even if recording fails.
	if decision.Action == risk.ActionBlock || decision.Upgraded {
		event := risk.NewCrisisEvent(req.UserID, req.Surface, req.Text,
			decision.EffectiveLevel, assessment.Matches, s.cfg.SnippetMaxLen)
		if err := s.recorder.Record(c.Context(), event); err != nil {
			s.logger.Error("crisis event not recorded", "user_id", req.UserID, "error", err)
		} else {
			telemetry.CrisisEventsTotal.WithLabelValues(string(event.Level)).Inc()
		}
	}

	return c.JSON(riskCheckResponse{
		Assessment: assessment,
		Verdict:    verdict,
		Decision:   decision,
	})
}

// ============================================================================
// Session endpoints
// ============================================================================

type sessionBeginRequest struct {
	Mode        string   `json:"mode"`
	Path        string   `json:"path,omitempty"`
	Deck        string   `json:"deck,omitempty"`
	Stacked     bool     `json:"stacked,omitempty"`
	CustomCards []string `json:"custom_cards,omitempty"`
}

func (s *server) handleSessionBegin(c fiber.Ctx) error {
	var req sessionBeginRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.engine.Begin(c.Context(), session.BeginOptions{
		Mode:        session.Mode(req.Mode),
		Path:        req.Path,
		Deck:        req.Deck,
		Stacked:     req.Stacked,
		CustomCards: req.CustomCards,
	})
	if err != nil {
		return sessionError(c, err)
	}
	s.active = result.Progress
	telemetry.SessionsStartedTotal.WithLabelValues(req.Mode).Inc()
	s.noteWarnings(result.Warnings)

	resp := fiber.Map{
		"session_id": result.Progress.ID,
		"question":   result.Question,
		"level":      result.Progress.CurrentLevel,
		"warnings":   warningStrings(result.Warnings),
	}
	if result.Wildcard != "" {
		resp["wildcard"] = result.Wildcard
	}
	return c.JSON(resp)
}

func (s *server) handleSessionRestore(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		p, err := s.engine.Restore(c.Context())
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		s.active = p
	}
	if s.active == nil {
		return c.SendStatus(204)
	}
	return c.JSON(s.active)
}

type sessionAdvanceRequest struct {
	Skip bool `json:"skip"`
}

func (s *server) handleSessionAdvance(c fiber.Ctx) error {
	var req sessionAdvanceRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return c.Status(409).JSON(fiber.Map{"error": "no active session"})
	}

	result, err := s.engine.Advance(c.Context(), s.active, req.Skip)
	if err != nil {
		return sessionError(c, err)
	}
	s.noteWarnings(result.Warnings)

	resp := fiber.Map{
		"question": result.Question,
		"level":    s.active.CurrentLevel,
		"answered": s.active.QuestionsAnsweredAtLevel,
		"warnings": warningStrings(result.Warnings),
	}
	if result.Dare != "" {
		resp["dare"] = result.Dare
	}
	if result.UnlockedLevel > 0 {
		resp["unlocked_level"] = result.UnlockedLevel
		telemetry.LevelUnlocksTotal.WithLabelValues(fmt.Sprint(result.UnlockedLevel)).Inc()
	}
	return c.JSON(resp)
}

type sessionLevelRequest struct {
	Level int `json:"level"`
}

func (s *server) handleSessionLevel(c fiber.Ctx) error {
	var req sessionLevelRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return c.Status(409).JSON(fiber.Map{"error": "no active session"})
	}

	result, err := s.engine.SwitchLevel(c.Context(), s.active, req.Level)
	if err != nil {
		return sessionError(c, err)
	}
	s.noteWarnings(result.Warnings)

	return c.JSON(fiber.Map{
		"switched": result.Switched,
		"level":    s.active.CurrentLevel,
		"question": result.Question,
		"warnings": warningStrings(result.Warnings),
	})
}

func (s *server) handleSessionShuffle(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return c.Status(409).JSON(fiber.Map{"error": "no active session"})
	}

	q, warnings, err := s.engine.Shuffle(c.Context(), s.active)
	if err != nil {
		return sessionError(c, err)
	}
	s.noteWarnings(warnings)

	return c.JSON(fiber.Map{
		"question": q,
		"warnings": warningStrings(warnings),
	})
}

func (s *server) handleSessionEnd(c fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return c.Status(409).JSON(fiber.Map{"error": "no active session"})
	}

	summary, warnings, err := s.engine.End(c.Context(), s.active)
	if err != nil {
		return sessionError(c, err)
	}
	s.active = nil
	s.noteWarnings(warnings)

	return c.JSON(fiber.Map{
		"summary":  summary,
		"warnings": warningStrings(warnings),
	})
}

// sessionError maps engine errors to HTTP statuses.
func sessionError(c fiber.Ctx, err error) error {
	switch err.(type) {
	case *session.InvalidLevelError:
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	switch err {
	case session.ErrUnknownMode, session.ErrEmptyPool:
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	case session.ErrNoSession:
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(500).JSON(fiber.Map{"error": err.Error()})
}

// noteWarnings logs non-fatal warnings and feeds the fetch-failure metric.
func (s *server) noteWarnings(warnings []error) {
	for _, w := range warnings {
		if _, ok := w.(*session.DegradedFetchWarning); ok {
			telemetry.CommunityFetchFailures.Inc()
		}
		s.logger.Warn("session warning", "warning", w.Error())
	}
}

func warningStrings(warnings []error) []string {
	out := make([]string, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, w.Error())
	}
	return out
}

// ============================================================================
// CLI mode
// ============================================================================

func runCheck(text string) {
	cfg := config.NewDefaultConfig()

	vocab, err := risk.LoadVocabulary(cfg.VocabularyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	assessment, err := risk.NewAnalyzer(vocab).AnalyzeText(text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	decision := risk.Decide(assessment.Level, false)

	output, _ := json.MarshalIndent(fiber.Map{
		"assessment": assessment,
		"decision":   decision,
	}, "", "  ")
	fmt.Println(string(output))
}
