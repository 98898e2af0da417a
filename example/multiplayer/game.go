package main

import (
	"context"
	"iter"
	"math/rand"
	"strconv"
	"strings"

	"github.com/hatlonely/sorm/field"
	"github.com/hatlonely/sorm/rdb"
	"github.com/hatlonely/sorm/record"
	"github.com/hatlonely/sorm/schema"
	"github.com/pkg/errors"
)

var (
	Rules = []string{"501", "cricket"}
	Bets  = []int{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000}
)

var ErrNoUsername = errors.New("no free username")

var words = []string{
	"amber", "brisk", "cosmic", "dart", "eager", "falcon", "giant", "hollow",
	"ivory", "jolly", "keen", "lunar", "mellow", "noble", "orbit", "prime",
	"quiet", "rapid", "silent", "tiger", "umber", "vivid", "wild", "zephyr",
}

// Game 多人游戏的记录类型
type Game struct {
	Registry  *schema.Registry
	Country   *record.Type
	User      *record.Type
	Match     *record.Type
	MatchUser *record.Type
}

func NewGame(rng *rand.Rand) *Game {
	country := schema.New("Country").
		Field("alpha2", field.Text(field.PrimaryKey(), field.Required(), field.Length(2, 2))).
		Field("name", field.Text()).
		MustBuild()

	user := schema.New("User").
		Field("id", field.Integer(field.PrimaryKey(), field.AutoIncrement())).
		Field("username", field.Text(field.Required(), field.DefaultGenerator("username", field.GeneratorFunc(func(field.Values) (any, error) {
			return randomName(rng, 2), nil
		})))).
		Field("norm_username", field.Text(field.Required(), field.Unique())).
		Field("country", field.ForeignKey("country", "alpha2", field.StoredAs(field.DataTypeText))).
		Field("password", field.Text()).
		Field("coins", field.Integer(field.Min(0), field.DefaultValue(50))).
		MustBuild()

	bets := make([]string, 0, len(Bets))
	for _, b := range Bets {
		bets = append(bets, strconv.Itoa(b))
	}
	match := schema.New("Match", schema.AutoTimestamps()).
		Field("id", field.Integer(field.PrimaryKey(), field.AutoIncrement())).
		Field("rules", field.Enum(Rules, field.Required())).
		Field("bet", field.Enum(bets, field.Required())).
		Field("started_at", field.DateTime(field.DefaultGenerator("now", field.CurrentTime()))).
		MustBuild()

	matchUser := schema.New("MatchUser", schema.Table("match_user")).
		Field("id", field.Integer(field.PrimaryKey(), field.AutoIncrement())).
		Field("match", field.ForeignKey("match", "id", field.Required())).
		Field("user", field.ForeignKey("user", "id", field.Required())).
		Field("client_state", field.Text()).
		MustBuild()

	registry := schema.NewRegistry()
	for _, s := range []*schema.Schema{country, user, match, matchUser} {
		registry.MustRegister(s)
	}

	return &Game{
		Registry: registry,
		Country: record.NewType(country, record.HookFuncs{
			OnBeforeSave: func(ctx context.Context, r *record.Record) error {
				v, _ := r.Get("alpha2")
				if code, ok := v.(string); ok {
					return r.Set("alpha2", strings.ToUpper(strings.TrimSpace(code)))
				}
				return nil
			},
		}),
		User: record.NewType(user, record.HookFuncs{
			OnBeforeSave: func(ctx context.Context, r *record.Record) error {
				v, _ := r.Get("username")
				if name, ok := v.(string); ok {
					return r.Set("norm_username", NormalizeText(name))
				}
				return nil
			},
		}),
		Match:     record.NewType(match, nil),
		MatchUser: record.NewType(matchUser, nil),
	}
}

// Candidates 依次生成 2 到 4 个单词的用户名，每种长度尝试 perLength 次
func Candidates(rng *rand.Rand, perLength int) iter.Seq[string] {
	return func(yield func(string) bool) {
		for n := 2; n <= 4; n++ {
			for i := 0; i < perLength; i++ {
				if !yield(randomName(rng, n)) {
					return
				}
			}
		}
	}
}

func randomName(rng *rand.Rand, n int) string {
	parts := make([]string, n)
	for i := range parts {
		w := words[rng.Intn(len(words))]
		parts[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(parts, " ")
}

// Signup 用第一个归一化后未被占用的用户名注册
func (g *Game) Signup(ctx context.Context, s rdb.Session, candidates iter.Seq[string]) (*record.Record, error) {
	for name := range candidates {
		u, err := g.User.New(map[string]any{"username": name})
		if err != nil {
			return nil, err
		}
		err = s.Save(ctx, u)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, rdb.ErrUniqueness) {
			return nil, err
		}
	}
	return nil, ErrNoUsername
}

// Join 在一个事务中创建对局并加入所有玩家
func (g *Game) Join(ctx context.Context, db *rdb.DB, rules string, bet int, users ...*record.Record) (*record.Record, error) {
	m, err := g.Match.New(map[string]any{"rules": rules, "bet": strconv.Itoa(bet)})
	if err != nil {
		return nil, err
	}

	err = db.WithTx(ctx, func(tx *rdb.Tx) error {
		if err := tx.Insert(ctx, m); err != nil {
			return err
		}
		matchID, _ := m.Get("id")
		for _, u := range users {
			userID, _ := u.Get("id")
			mu, err := g.MatchUser.New(map[string]any{"match": matchID, "user": userID})
			if err != nil {
				return err
			}
			if err := tx.Insert(ctx, mu); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}
