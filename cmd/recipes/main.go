package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pageza/recipematch/backend/config"
	"github.com/pageza/recipematch/backend/internal/app"
	"github.com/pageza/recipematch/backend/internal/logging"
	"github.com/pageza/recipematch/backend/internal/service"
)

var (
	// Global flags
	verbose bool
	plain   bool
	width   int
)

var rootCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Find recipes from what you have at home",
	Long: `recipes turns a free-text request such as "something quick with rice and eggs"
into a ranked list of catalog recipes and walks through them one at a time.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "warn"
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Config{Level: level, Format: "console"})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask for recipes and page through the matches",
	Long: `Ask for recipes. After each recipe, press enter or type "next" for the
next match and "quit" to stop.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close(context.Background())

		render := func(md string) (string, error) { return md, nil }
		if !plain {
			r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
			if err != nil {
				return fmt.Errorf("failed to create markdown renderer: %w", err)
			}
			render = r.Render
		}

		return converse(ctx, a.Retriever, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout(), render)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	askCmd.Flags().BoolVar(&plain, "plain", false, "Print raw Markdown instead of styled output")
	askCmd.Flags().IntVar(&width, "width", 80, "Word wrap width for styled output")
	rootCmd.AddCommand(askCmd)
}

// converse starts a session for question and pages through it until the user
// quits, input ends, or ctx is cancelled.
func converse(ctx context.Context, r service.Retriever, question string, in io.Reader, out io.Writer, render func(string) (string, error)) error {
	res, err := r.StartQuery(ctx, question)
	if errors.Is(err, service.ErrNoMatch) {
		fmt.Fprintln(out, "No recipes match that request. Try naming other ingredients.")
		return nil
	}
	if err != nil {
		return err
	}
	defer func() { _ = r.EndSession(context.Background(), res.SessionID) }()

	scanner := bufio.NewScanner(in)
	for {
		if err := show(out, res, render); err != nil {
			return err
		}
		if res.Index == res.Total-1 {
			fmt.Fprintln(out, "That was the last match.")
			return nil
		}

		quit, err := prompt(scanner, out)
		if err != nil || quit {
			return err
		}

		next, err := r.AdvanceSession(ctx, res.SessionID)
		if err != nil {
			return err
		}
		res = next
	}
}

// prompt reads commands until the user asks for the next recipe or quits.
// End of input counts as quitting.
func prompt(scanner *bufio.Scanner, out io.Writer) (quit bool, err error) {
	for {
		fmt.Fprint(out, "[enter/next, quit] > ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return true, scanner.Err()
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "q", "quit", "exit":
			return true, nil
		case "", "n", "next":
			return false, nil
		default:
			fmt.Fprintln(out, `Type "next" or "quit".`)
		}
	}
}

func show(out io.Writer, res *service.QueryResult, render func(string) (string, error)) error {
	styled, err := render(res.Markdown)
	if err != nil {
		return fmt.Errorf("failed to render recipe: %w", err)
	}
	fmt.Fprintf(out, "%s\n(%d of %d)\n", styled, res.Index+1, res.Total)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
