package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nuance/internal/app"
	"nuance/internal/correction"
	"nuance/internal/logger"
	"nuance/pkg/nuancetypes"
)

var (
	chatMood  string
	chatPlain bool
	chatCopy  bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run an interview in the terminal",
	Long: `Start an interview session on the console. When it ends, the conversation is
polished into an article and analyzed for writing mistakes. Type 'quit' to leave early.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatMood, "mood", "", "Mood to start with (prompted when empty)")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Disable colors and markdown rendering")
	chatCmd.Flags().BoolVar(&chatCopy, "copy", false, "Copy the finished article to the clipboard")
}

// chatSession runs one console interview against the app services.
type chatSession struct {
	app    *app.App
	render *renderer
	out    io.Writer
	id     string
	copy   bool
	done   bool
}

func newChatSession(a *app.App, r *renderer, out io.Writer) *chatSession {
	return &chatSession{app: a, render: r, out: out, id: uuid.NewString()}
}

func (c *chatSession) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Start opens the session and prints the opening question.
func (c *chatSession) Start(ctx context.Context, mood string) error {
	res := c.app.Orchestrator.StartSession(ctx, c.id, mood)
	if res.Code != "" {
		return fmt.Errorf("failed to start session: %s", res.Error)
	}
	c.printf("%s\n%s\n", c.render.AI(res.Response), c.render.Info(turnsLine(res.TurnsLeft)))
	return nil
}

// Reply sends one user line. It reports whether the interview is over.
func (c *chatSession) Reply(ctx context.Context, input string) bool {
	input = strings.TrimSpace(input)
	if input == "" || c.done {
		return c.done
	}

	res := c.app.Orchestrator.UserReply(ctx, c.id, input)
	if res.Error != "" {
		logger.Debug("Reply diagnostic", "session", c.id, "code", res.Code, "error", res.Error)
	}
	c.printf("%s\n", c.render.AI(res.Response))
	if res.Active {
		c.printf("%s\n", c.render.Info(turnsLine(res.TurnsLeft)))
		return false
	}

	c.Finish(ctx)
	return true
}

// Finish polishes and analyzes the conversation, then drops the session.
func (c *chatSession) Finish(ctx context.Context) {
	if c.done {
		return
	}
	c.done = true
	defer c.app.Orchestrator.CleanupSession(c.id)

	history := c.app.Orchestrator.GetHistory(c.id)
	transcript := correction.TranscriptFromHistory(history)
	if len(transcript) == 0 {
		return
	}

	c.printf("\n%s\n", c.render.Info("Writing your article..."))
	article := c.app.Polisher.Polish(ctx, transcript, c.app.Orchestrator.Mood(c.id))
	c.printf("%s\n", c.render.Article(article))
	if c.copy && article.Status == nuancetypes.ArticleSuccess {
		if err := copyToClipboard(article.Article); err != nil {
			c.printf("%s\n", c.render.Info("Could not copy article: "+err.Error()))
		} else {
			c.printf("%s\n", c.render.Info("Article copied to clipboard."))
		}
	}

	result, err := c.app.Analyzer.AnalyzeSession(ctx, history)
	if err != nil {
		logger.Error("Writing analysis failed", "session", c.id, "error", err)
		c.printf("%s\n", c.render.Info("Writing feedback unavailable."))
		return
	}
	c.printf("\n%s", c.render.Corrections(result))
}

func turnsLine(n int) string {
	return fmt.Sprintf("(%d turns left)", n)
}

func runChat(_ *cobra.Command, _ []string) error {
	a, err := app.Build(cfg, nil)
	if err != nil {
		return err
	}
	r, err := newRenderer(chatPlain)
	if err != nil {
		return err
	}

	sh := ishell.New()
	sh.SetPrompt("you> ")
	sh.DeleteCmd("exit")

	ctx := context.Background()
	chat := newChatSession(a, r, os.Stdout)
	chat.copy = chatCopy

	sh.Println("Nuance - tell me about your day. Type 'quit' to finish early.")
	mood := strings.TrimSpace(chatMood)
	for mood == "" {
		sh.Print("How are you feeling today? ")
		mood = strings.TrimSpace(sh.ReadLine())
	}
	if err := chat.Start(ctx, mood); err != nil {
		return err
	}

	sh.AddCmd(&ishell.Cmd{
		Name: "quit",
		Help: "end the interview and generate the article",
		Func: func(c *ishell.Context) {
			chat.Finish(ctx)
			c.Stop()
		},
	})
	sh.NotFound(func(c *ishell.Context) {
		if chat.Reply(ctx, strings.Join(c.RawArgs, " ")) {
			c.Stop()
		}
	})

	sh.Run()
	chat.Finish(ctx)
	return nil
}
