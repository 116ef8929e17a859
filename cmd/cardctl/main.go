package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/strength/internal/client"
	"github.com/starford/strength/internal/models"
	"github.com/starford/strength/internal/update"
)

func newProgram(cmd *cli.Command) *update.Program {
	tr := client.New(cmd.String("url"), client.WithTimeout(cmd.Duration("timeout")))
	cred := client.Credential{Username: cmd.String("user"), Token: cmd.String("token")}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine := update.NewEngine(tr, update.WithLogger(logger), update.WithSelectFencing())
	return update.NewProgram(engine, cred, nil)
}

func parseSection(s string) (models.Section, error) {
	section := models.Section(s)
	if !section.Valid() {
		return "", fmt.Errorf("unknown section %q", s)
	}
	return section, nil
}

func printModel(m update.Model) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		SelectedCard   *models.Card                      `json:"selectedCard"`
		CardsBySection map[models.Section][]models.Card `json:"cardsBySection"`
	}{m.SelectedCard, m.CardsBySection})
}

// runProgram dispatches msgs, waits for all of them and prints the model.
func runProgram(cmd *cli.Command, msgs ...update.Message) error {
	p := newProgram(cmd)
	defer p.Close()

	for _, msg := range msgs {
		p.Dispatch(msg)
	}
	p.Wait()
	return printModel(p.Model())
}

func load(_ context.Context, cmd *cli.Command) error {
	if cmd.NArg() == 0 {
		return errors.New("load: at least one section is required")
	}
	msgs := make([]update.Message, 0, cmd.NArg())
	for _, arg := range cmd.Args().Slice() {
		section, err := parseSection(arg)
		if err != nil {
			return err
		}
		msgs = append(msgs, update.LoadSection{Section: section})
	}
	return runProgram(cmd, msgs...)
}

func cardArgs(cmd *cli.Command) (models.Section, string, error) {
	if cmd.NArg() != 2 {
		return "", "", fmt.Errorf("%s: expected SECTION CARD_NAME", cmd.Name)
	}
	section, err := parseSection(cmd.Args().Get(0))
	if err != nil {
		return "", "", err
	}
	return section, cmd.Args().Get(1), nil
}

func selectCard(_ context.Context, cmd *cli.Command) error {
	section, name, err := cardArgs(cmd)
	if err != nil {
		return err
	}
	return runProgram(cmd, update.SelectCard{Section: section, CardName: name})
}

func updateCard(_ context.Context, cmd *cli.Command) error {
	section, name, err := cardArgs(cmd)
	if err != nil {
		return err
	}
	msg := update.UpdateCard{Section: section, CardName: name}
	if cmd.IsSet("sets") {
		msg.Sets = models.Some(int(cmd.Int("sets")))
	}
	if cmd.IsSet("reps") {
		msg.Reps = models.Some(int(cmd.Int("reps")))
	}
	if !msg.Sets.Set && !msg.Reps.Set {
		return errors.New("update: nothing to change, pass --sets and/or --reps")
	}

	var failure error
	msg.OnFailure = func(err error) { failure = err }
	if err := runProgram(cmd, msg); err != nil {
		return err
	}
	return failure
}

func index(ctx context.Context, cmd *cli.Command) error {
	tr := client.New(cmd.String("url"), client.WithTimeout(cmd.Duration("timeout")))
	cards, err := tr.Index(ctx, client.Credential{Username: cmd.String("user"), Token: cmd.String("token")})
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(cards)
}

func main() {
	cardFlags := []cli.Flag{
		&cli.IntFlag{Name: "sets", Usage: "New number of sets"},
		&cli.IntFlag{Name: "reps", Usage: "New number of reps"},
	}

	cmd := &cli.Command{
		Name:  "cardctl",
		Usage: "Browse and edit workout cards on a strength server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "Base URL of the card API",
				Value:   "http://localhost:8080/api/cards",
				Sources: cli.EnvVars("STRENGTH_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Bearer token",
				Sources: cli.EnvVars("STRENGTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "user",
				Usage:   "Username attached to the credential",
				Sources: cli.EnvVars("STRENGTH_USER"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Per-request timeout",
				Value: 10 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "load",
				Usage:     "Load the card lists of one or more sections",
				ArgsUsage: "SECTION...",
				Action:    load,
			},
			{
				Name:      "select",
				Usage:     "Select a single card",
				ArgsUsage: "SECTION CARD_NAME",
				Action:    selectCard,
			},
			{
				Name:      "update",
				Usage:     "Change the sets and/or reps of a card",
				ArgsUsage: "SECTION CARD_NAME",
				Flags:     cardFlags,
				Action:    updateCard,
			},
			{
				Name:   "index",
				Usage:  "List every card on the server",
				Action: index,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("cardctl error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
