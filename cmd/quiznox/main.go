package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/quiznox/quiznox-client/internal/api"
	"github.com/quiznox/quiznox-client/internal/apperr"
	"github.com/quiznox/quiznox-client/internal/config"
	"github.com/quiznox/quiznox-client/internal/exam"
	"github.com/quiznox/quiznox-client/internal/logger"
	"github.com/quiznox/quiznox-client/internal/model"
	"github.com/quiznox/quiznox-client/internal/quiz"
	"github.com/quiznox/quiznox-client/internal/state"
	"github.com/quiznox/quiznox-client/internal/token"
	"github.com/quiznox/quiznox-client/internal/transport"
)

type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	tokens   *token.Store
	states   *state.Store
	auth     *api.AuthClient
	quizAPI  *api.QuizClient
	mock     *exam.Session
	practice *quiz.Session
	user     *model.User
	in       *bufio.Reader
}

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	a := &app{
		cfg:      cfg,
		log:      log,
		tokens:   token.NewStore(cfg.StateDir),
		mock:     exam.NewSession(log),
		practice: quiz.NewSession(),
		in:       bufio.NewReader(os.Stdin),
	}

	tr := transport.New(a.tokens, cfg.AuthAPIURL+"/auth/refresh", func() {
		a.user = nil
		fmt.Println("\nYour session has expired. Please sign in again.")
	}, log)
	client := tr.Client(cfg.HTTPTimeout)

	a.auth = api.NewAuthClient(cfg.AuthAPIURL, client, a.tokens, log)
	a.quizAPI = api.NewQuizClient(cfg.QuizAPIURL, client, cfg.FetchRetries, cfg.FetchRetryDelay, log)
	a.states = state.NewStore(cfg.StateDir, a.tokens, log)

	ctx := context.Background()
	a.rehydrate(ctx)

	if a.user == nil && !a.signIn(ctx) {
		return
	}

	a.menuLoop(ctx)

	if err := a.persist(); err != nil {
		log.Error().Err(err).Msg("persisting session state failed")
	}
}

// rehydrate runs the one explicit load step at startup: persisted
// sessions are restored and the auth flag is reconciled against actual
// token presence before anything is trusted.
func (a *app) rehydrate(ctx context.Context) {
	snap, err := a.states.Load()
	if err != nil {
		if errors.Is(err, state.ErrCorrupt) {
			fmt.Println("Stored session state was unreadable and has been discarded.")
			_ = a.states.Clear()
		} else {
			a.log.Error().Err(err).Msg("loading session state failed")
		}
		return
	}

	if snap.MockExam != nil {
		if err := a.mock.Restore(*snap.MockExam); err != nil {
			fmt.Println("Stored mock exam data was inconsistent; please start a new exam.")
			a.mock.Reset()
		}
	}
	if snap.Quiz != nil {
		a.practice.Restore(*snap.Quiz)
	}

	if snap.Auth.IsAuthenticated {
		user, err := a.auth.Me(ctx)
		if err != nil {
			a.log.Warn().Err(err).Msg("resuming session failed")
			return
		}
		a.user = user
		fmt.Printf("Welcome back, %s.\n", user.Username)
	}
}

func (a *app) persist() error {
	snap := state.Snapshot{}
	if a.user != nil {
		snap.Auth = state.AuthSnapshot{IsAuthenticated: true, Username: a.user.Username}
	}
	if a.mock.IsStarted() || len(a.mock.Questions()) > 0 {
		ms := a.mock.Snapshot()
		snap.MockExam = &ms
	}
	if a.practice.TopicID() != "" {
		qs := a.practice.Snapshot()
		snap.Quiz = &qs
	}
	return a.states.Save(snap)
}

// ─── Sign in ───────────────────────────────────────────────────────────

func (a *app) signIn(ctx context.Context) bool {
	for {
		fmt.Print("\n[l]ogin, [r]egister or [q]uit: ")
		switch a.readLine() {
		case "l":
			if a.login(ctx, false) {
				return true
			}
		case "r":
			if a.login(ctx, true) {
				return true
			}
		case "q":
			return false
		}
	}
}

func (a *app) login(ctx context.Context, register bool) bool {
	fmt.Print("Username: ")
	username := a.readLine()
	fmt.Print("Password: ")
	password := a.readPassword()

	var (
		payload *model.AuthPayload
		err     error
	)
	if register {
		payload, err = a.auth.Register(ctx, model.RegisterRequest{Username: username, Password: password})
	} else {
		payload, err = a.auth.Login(ctx, model.LoginRequest{Username: username, Password: password})
	}
	if err != nil {
		fmt.Println("Sign in failed:", err)
		return false
	}

	a.user = &payload.User
	fmt.Printf("Signed in as %s.\n", a.user.Username)
	return true
}

// ─── Menu ──────────────────────────────────────────────────────────────

func (a *app) menuLoop(ctx context.Context) {
	for a.user != nil {
		fmt.Print("\n[1] mock exam  [2] practice  [3] account  [4] sign out  [q] quit: ")
		switch a.readLine() {
		case "1":
			a.runMockExam(ctx)
		case "2":
			a.runPractice(ctx)
		case "3":
			a.accountMenu(ctx)
		case "4":
			if err := a.auth.Logout(ctx); err != nil {
				fmt.Println("Sign out failed:", err)
			}
			a.user = nil
			_ = a.states.Clear()
			fmt.Println("Signed out.")
			if !a.signIn(ctx) {
				return
			}
		case "q":
			return
		}
	}
}

func (a *app) accountMenu(ctx context.Context) {
	fmt.Print("[u]sername or [p]assword: ")
	switch a.readLine() {
	case "u":
		fmt.Print("New username: ")
		user, err := a.auth.UpdateUsername(ctx, model.UpdateUsernameRequest{Username: a.readLine()})
		if err != nil {
			fmt.Println("Update failed:", err)
			return
		}
		a.user = user
		fmt.Println("Username updated.")
	case "p":
		fmt.Print("Current password: ")
		current := a.readPassword()
		fmt.Print("New password: ")
		next := a.readPassword()
		if err := a.auth.UpdatePassword(ctx, model.UpdatePasswordRequest{CurrentPassword: current, NewPassword: next}); err != nil {
			fmt.Println("Update failed:", err)
			return
		}
		fmt.Println("Password updated.")
	}
}

// ─── Mock exam ─────────────────────────────────────────────────────────

func (a *app) runMockExam(ctx context.Context) {
	if a.mock.IsCompleted() {
		// A finished attempt survived a restart; its result comes first.
		a.showResult()
		a.mock.Reset()
	}

	if a.mock.Phase() != exam.PhaseRunning {
		if !a.setUpMockExam(ctx) {
			return
		}
	} else {
		fmt.Println("Resuming your in-progress exam.")
	}

	timerCtx, stopTimer := context.WithCancel(ctx)
	defer stopTimer()
	a.mock.OnExpire(func() {
		fmt.Println("\nTime is up! The exam has ended — showing your result.")
	})
	if a.mock.Phase() == exam.PhaseRunning {
		go a.mock.RunTimer(timerCtx)
	}

	a.examLoop()
	stopTimer()

	if a.mock.IsCompleted() {
		a.showResult()
		a.mock.Reset()
	}
	if err := a.persist(); err != nil {
		a.log.Error().Err(err).Msg("persisting session state failed")
	}
}

func (a *app) setUpMockExam(ctx context.Context) bool {
	ids := model.ExamTypeIDs()
	fmt.Println("\nChoose an exam:")
	for i, id := range ids {
		et := model.ExamTypes[id]
		fmt.Printf("  [%d] %s (%d questions, %d min, pass %d)\n",
			i+1, et.Name, et.QuestionCount, et.TimeLimitMinutes, et.PassThreshold)
	}
	fmt.Print("> ")
	choice, err := strconv.Atoi(a.readLine())
	if err != nil || choice < 1 || choice > len(ids) {
		return false
	}
	et := model.ExamTypes[ids[choice-1]]

	fmt.Println("Loading questions...")
	bank, err := a.quizAPI.FetchQuestions(ctx, et.ID)
	if err != nil {
		if apperr.IsAuth(err) {
			return false
		}
		fmt.Println("Could not load questions:", err)
		return false
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	drawn := exam.Draw(bank, et.QuestionCount, rng)

	a.mock.Configure(et)
	if err := a.mock.LoadQuestions(drawn); err != nil {
		fmt.Println("Could not prepare the exam:", err)
		return false
	}
	if err := a.mock.Start(); err != nil {
		fmt.Println("Could not start the exam:", err)
		return false
	}
	return true
}

func (a *app) examLoop() {
	for a.mock.Phase() == exam.PhaseRunning {
		a.printCurrentQuestion()
		fmt.Print("answer letters, [n]ext, [p]rev, [g]oto N, [c]lear, [s]ubmit, [q]uit exam: ")
		input := strings.TrimSpace(a.readLine())

		if a.mock.Phase() != exam.PhaseRunning {
			return // Timed out while waiting for input.
		}

		cur := a.mock.CurrentQuestionIndex()
		total := len(a.mock.Questions())

		switch {
		case input == "n":
			_ = a.mock.SetCurrentQuestionIndex(min(cur+1, total-1))
		case input == "p":
			_ = a.mock.SetCurrentQuestionIndex(max(cur-1, 0))
		case strings.HasPrefix(input, "g"):
			if n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(input, "g"))); err == nil {
				_ = a.mock.SetCurrentQuestionIndex(min(max(n-1, 0), total-1))
			}
		case input == "c":
			_ = a.mock.SetAnswer(cur, nil)
		case input == "s":
			fmt.Printf("Answered %d of %d. Submit? [y/N]: ", a.mock.AnsweredCount(), total)
			if a.readLine() == "y" {
				if err := a.mock.Submit(); err != nil {
					fmt.Println("Submit failed:", err)
				}
				return
			}
		case input == "q":
			fmt.Print("Abandon this exam? Your answers will be discarded. [y/N]: ")
			if a.readLine() == "y" {
				a.mock.Abandon()
				return
			}
		case input != "":
			ans := strings.ToUpper(input)
			if err := a.mock.SetAnswer(cur, &ans); err != nil {
				fmt.Println("Could not record answer:", err)
			} else {
				_ = a.mock.SetCurrentQuestionIndex(min(cur+1, total-1))
			}
		}
	}
}

func (a *app) printCurrentQuestion() {
	qs := a.mock.Questions()
	cur := a.mock.CurrentQuestionIndex()
	if cur >= len(qs) {
		return
	}
	q := qs[cur]

	remaining := a.mock.Remaining()
	fmt.Printf("\n[%02d:%02d:%02d remaining] Question %d/%d\n",
		remaining/3600, remaining%3600/60, remaining%60, cur+1, len(qs))
	fmt.Println(q.QuestionText)
	for _, c := range q.Choices {
		fmt.Println("  " + c)
	}
	if ans := a.mock.Answers()[cur]; ans != nil {
		fmt.Printf("(current answer: %s)\n", *ans)
	}
}

func (a *app) showResult() {
	res, err := a.mock.Result()
	if err != nil {
		fmt.Println("No result available:", err)
		return
	}

	verdict := "FAILED"
	if res.IsPassed {
		verdict = "PASSED"
	}
	et := a.mock.ExamType()
	fmt.Printf("\n─── %s — %s ───\n", et.Name, verdict)
	fmt.Printf("Score: %d/%d (pass threshold %d)\n", res.Score, res.TotalQuestions, res.PassThreshold)
	fmt.Printf("Correct %d · Incorrect %d · Unanswered %d\n",
		res.CorrectCount, res.IncorrectCount, res.UnansweredCount)
	fmt.Printf("Time spent: %s\n", time.Duration(res.TimeSpentSeconds)*time.Second)

	for _, d := range res.Details {
		if d.Status == exam.AnswerCorrect {
			continue
		}
		got := "—"
		if d.UserAnswer != nil && *d.UserAnswer != "" {
			got = *d.UserAnswer
		}
		fmt.Printf("  Q%d: %s (yours: %s, correct: %s)\n",
			d.QuestionIndex+1, d.Status, got, d.CorrectAnswer)
	}
}

// ─── Practice ──────────────────────────────────────────────────────────

func (a *app) runPractice(ctx context.Context) {
	if a.practice.TopicID() == "" {
		fmt.Print("Topic ID: ")
		topic := a.readLine()
		if topic == "" {
			return
		}
		qs, err := a.quizAPI.FetchQuestions(ctx, topic)
		if err != nil {
			fmt.Println("Could not load questions:", err)
			return
		}
		a.practice.SetTopic(topic, qs)
	}

	qs := a.practice.Questions()
	for {
		i := a.practice.ScrollIndex()
		q := qs[i]
		fmt.Printf("\n[practice %s] Question %d/%d\n%s\n", a.practice.TopicID(), i+1, len(qs), q.QuestionText)
		for _, c := range q.Choices {
			fmt.Println("  " + c)
		}
		fmt.Print("[a]nswer, [n]ext, [p]rev, [x] leave topic, [q]uit practice: ")
		switch a.readLine() {
		case "a":
			fmt.Printf("Most voted answer: %s\n", q.MostVotedAnswer)
		case "n":
			a.practice.SetScrollIndex(i + 1)
		case "p":
			a.practice.SetScrollIndex(i - 1)
		case "x":
			a.practice.Reset()
			return
		case "q":
			return
		}
	}
}

// ─── Input helpers ─────────────────────────────────────────────────────

func (a *app) readLine() string {
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *app) readPassword() string {
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		// Not a terminal (tests, pipes): fall back to a plain line read.
		return a.readLine()
	}
	return strings.TrimSpace(string(raw))
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
