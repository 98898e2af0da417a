package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"

	"github.com/hatlonely/sorm/log"
	"github.com/hatlonely/sorm/rdb"
	"github.com/hatlonely/sorm/record"
	"github.com/spf13/cobra"
)

type Options struct {
	Database string
	Players  int
	Seed     int64
}

func NewCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:           "multiplayer",
		Short:         "sign up players and start a match",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts.Database, opts.Players, opts.Seed)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "database", ":memory:", "sqlite database file")
	cmd.Flags().IntVar(&opts.Players, "players", 2, "number of players to sign up")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 1, "random seed for usernames")

	return cmd
}

func main() {
	if err := NewCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, database string, players int, seed int64) error {
	logger := log.Default()
	rng := rand.New(rand.NewSource(seed))
	game := NewGame(rng)

	db, err := rdb.NewDBWithOptions(&rdb.Options{Database: database})
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.CreateTables(ctx, game.Registry); err != nil {
		return err
	}

	br, err := game.Country.New(map[string]any{"alpha2": " br ", "name": "Brazil"})
	if err != nil {
		return err
	}
	if err := db.Save(ctx, br); err != nil {
		return err
	}

	var users []*record.Record
	for i := 0; i < players; i++ {
		u, err := game.Signup(ctx, db, Candidates(rng, 100))
		if err != nil {
			return err
		}
		if err := u.Set("country", "BR"); err != nil {
			return err
		}
		if err := db.Save(ctx, u); err != nil {
			return err
		}
		name, _ := u.Get("username")
		id, _ := u.Get("id")
		logger.Info("player signed up", "id", id, "username", name)
		users = append(users, u)
	}

	m, err := game.Join(ctx, db, Rules[0], Bets[0], users...)
	if err != nil {
		return err
	}
	id, _ := m.Get("id")
	logger.Info("match created", "id", id, "players", len(users))
	return nil
}
