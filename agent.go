package main

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/exp/slices"
)

var (
	errIllegalMove  = errors.New("illegal move")
	errNoLegalMoves = errors.New("no legal moves")
)

// player chooses the next move for one colour.
type player interface {
	Name() string
	Color() color
	chooseMove(board chessState) (move, error)
}

// humanPlayer plays the move its user asked for, provided it is legal.
// Checking that the request names one of the player's own pieces is left to
// the caller.
type humanPlayer struct {
	name      string
	color     color
	requested move
}

func newHumanPlayer(name string, c color, requested move) *humanPlayer {
	return &humanPlayer{name: name, color: c, requested: requested}
}

func (p *humanPlayer) Name() string {
	return p.name
}

func (p *humanPlayer) Color() color {
	return p.color
}

// options lists the legal destinations of the piece the user picked.
func (p *humanPlayer) options(board chessState, start square) []square {
	return board.legalDestinations(start)
}

func (p *humanPlayer) chooseMove(board chessState) (move, error) {
	m := p.requested
	if !slices.Contains(p.options(board, m.depart), m.dest) {
		return move{}, fmt.Errorf("%w: %s", errIllegalMove, m)
	}
	if !board.needsPromotion(m) {
		m.promotion = zero
	} else if m.promotion == zero {
		m.promotion = queen
	}
	return m, nil
}

// botPlayer picks uniformly among pieces that can move, then uniformly
// among that piece's destinations.
type botPlayer struct {
	name  string
	color color
	rng   *rand.Rand
}

// newBotPlayer seeds the bot's own source once from crypto/rand.
func newBotPlayer(name string, c color) (*botPlayer, error) {
	seed, err := crand.Int(crand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSeededBotPlayer(name, c, seed.Int64()), nil
}

func newSeededBotPlayer(name string, c color, seed int64) *botPlayer {
	return &botPlayer{name: name, color: c, rng: rand.New(rand.NewSource(seed))}
}

func (p *botPlayer) Name() string {
	return p.name
}

func (p *botPlayer) Color() color {
	return p.color
}

func (p *botPlayer) chooseMove(board chessState) (move, error) {
	options := board.playerLegalMoves(p.color)
	if len(options) == 0 {
		return move{}, errNoLegalMoves
	}
	choice := options[p.rng.Intn(len(options))]
	m := move{depart: choice.Start, dest: choice.Ends[p.rng.Intn(len(choice.Ends))]}
	if board.needsPromotion(m) {
		m.promotion = queen
	}
	return m, nil
}

func agentIdle() error {
	var games []Game
	thirtySecondsAgo := time.Now().Add(time.Second * -30)
	if err := db.Where("updated_at < ?", thirtySecondsAgo).Not(Game{ActiveAgentType: "user"}).Not(db.Where(Game{InactiveAgent: placeHolder}).Or(Game{End: true})).Find(&games).Error; err != nil {
		return err
	}
	var errs error
	for i := range games {
		if err := games[i].pokeAgent(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}

func (game *Game) makeAgent(agentType, name string) (uuid.UUID, error) {
	id := uuid.NewV4()
	if err := game.addAgent(id, agentType, name); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func getAgent(id uuid.UUID) (*Game, error) {
	var game Game
	if err := db.Where(Game{ActiveAgent: id}).Or(Game{InactiveAgent: id}).First(&game).Error; err != nil {
		return nil, pkgerrors.Wrapf(err, "get agent %s", id)
	}
	return &game, nil
}
