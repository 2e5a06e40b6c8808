package main

import (
	"net/http"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"
)

const (
	maxMoveCount   = 4048
	fiftyMoveLimit = 100
)

// Game game.
type Game struct {
	gorm.Model

	ActiveAgent       uuid.UUID `gorm:"type:varchar;size:36;index"`
	ActiveAgentName   string
	ActiveAgentType   string
	ActiveAgentWhite  bool
	Board             chessState `gorm:"type:varchar;size:128;not null"`
	End               bool
	FEN               string    `gorm:"-"`
	GameID            uuid.UUID `gorm:"<-:create;type:varchar;size:36;uniqueIndex"`
	InactiveAgent     uuid.UUID `gorm:"type:varchar;size:36;index"`
	InactiveAgentName string
	InactiveAgentType string
	MoveCount         int
	MovesSincePawn    int
	Status            gameStatus
}

// newGame starts a game on board with toMove to play; no agents are seated.
func newGame(board chessState, toMove color) *Game {
	game := &Game{
		ActiveAgent:      placeHolder,
		ActiveAgentWhite: toMove == white,
		Board:            board,
		GameID:           uuid.NewV4(),
		InactiveAgent:    placeHolder,
	}
	game.settle()
	return game
}

// newGameFromFEN starts a game from a FEN record, carrying its halfmove
// clock and fullmove number into the draw counters.
func newGameFromFEN(fen string) (*Game, error) {
	pos, err := parseFEN(fen)
	if err != nil {
		return nil, err
	}
	game := newGame(pos.board, pos.toMove)
	game.MovesSincePawn = pos.halfmove
	game.MoveCount = 2 * (pos.fullmove - 1)
	if pos.toMove == black {
		game.MoveCount = game.MoveCount + 1
	}
	game.settle()
	return game, nil
}

func (game *Game) turn() color {
	if game.ActiveAgentWhite {
		return white
	}
	return black
}

// settle recomputes Status and End from the board and the move counters.
func (game *Game) settle() {
	if !game.Board.hasKings() {
		game.Status = statusCheckmate
		game.End = true
		return
	}
	game.Status = game.Board.status(game.turn())
	switch {
	case game.Status == statusCheckmate || game.Status == statusStalemate:
		game.End = true
	case game.MoveCount > maxMoveCount || game.MovesSincePawn > fiftyMoveLimit:
		game.Status = statusDraw
		game.End = true
	}
}

// advance plays the legal move m and hands the turn to the other agent.
func (game *Game) advance(m move) {
	piece, _ := game.Board.occupant(m.depart)
	_, captured := game.Board.occupant(m.dest)
	if pieceKind(piece) == pawn || captured {
		game.MovesSincePawn = 0
	} else {
		game.MovesSincePawn = game.MovesSincePawn + 1
	}
	game.Board = game.Board.applyMove(m)
	game.InactiveAgent, game.ActiveAgent = game.ActiveAgent, game.InactiveAgent
	game.InactiveAgentType, game.ActiveAgentType = game.ActiveAgentType, game.InactiveAgentType
	game.InactiveAgentName, game.ActiveAgentName = game.ActiveAgentName, game.InactiveAgentName
	game.ActiveAgentWhite = !game.ActiveAgentWhite
	game.MoveCount = game.MoveCount + 1
	game.settle()
}

// playGame runs the turn loop between two in-memory players until the game
// ends or limit moves have been played.
func playGame(whitePlayer, blackPlayer player, game *Game, limit int) ([]move, error) {
	players := map[color]player{white: whitePlayer, black: blackPlayer}
	moves := make([]move, 0, 64)
	for !game.End && len(moves) < limit {
		current := players[game.turn()]
		m, err := current.chooseMove(game.Board)
		if err != nil {
			return moves, err
		}
		game.advance(m)
		moves = append(moves, m)
		log.WithFields(log.Fields{
			"player": current.Name(),
			"move":   m.String(),
			"status": game.Status,
		}).Debug("played")
	}
	return moves, nil
}

func gameIdle() error {
	return db.Where(Game{End: true}).Not(Game{ActiveAgentType: "user"}).Not(Game{InactiveAgentType: "user"}).Delete(&Game{}).Error
}

func makeGame(fen string) (*Game, error) {
	game := newGame(initialBoard, white)
	if fen != "" {
		var err error
		if game, err = newGameFromFEN(fen); err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	if err := db.Create(game).Error; err != nil {
		return nil, errors.Wrap(err, "create game")
	}
	return getGame(game.GameID)
}

func getGame(id uuid.UUID) (*Game, error) {
	var game Game
	if err := db.First(&game, Game{GameID: id}).Error; err != nil {
		return nil, errors.Wrapf(err, "get game %s", id)
	}
	return &game, nil
}

func getGames() ([]Game, error) {
	var games []Game
	if err := db.Where(Game{InactiveAgent: placeHolder}).Find(&games).Error; err != nil {
		return nil, errors.Wrap(err, "list open games")
	}
	for i := range games {
		games[i] = games[i].response(uuid.Nil)
	}
	return games, nil
}

func (game Game) response(agentID uuid.UUID) Game {
	if !game.End {
		if !uuid.Equal(game.ActiveAgent, agentID) {
			game.ActiveAgent = uuid.Nil
		}
		if !uuid.Equal(game.InactiveAgent, agentID) {
			game.InactiveAgent = uuid.Nil
		}
	}
	game.FEN = game.Board.fen(game.turn(), game.MovesSincePawn, 1+game.MoveCount/2)
	return game
}

func (game *Game) addAgent(id uuid.UUID, agentType, name string) error {
	if !uuid.Equal(placeHolder, game.InactiveAgent) {
		return echo.NewHTTPError(http.StatusBadRequest, "game is full")
	}
	if uuid.Equal(placeHolder, game.ActiveAgent) {
		game.ActiveAgent = id
		game.ActiveAgentType = agentType
		game.ActiveAgentName = name
	} else {
		game.InactiveAgent = id
		game.InactiveAgentType = agentType
		game.InactiveAgentName = name
	}
	if err := db.Save(game).Error; err != nil {
		return errors.Wrapf(err, "seat agent %s", id)
	}
	if !uuid.Equal(placeHolder, game.InactiveAgent) {
		return game.pokeAgent()
	}
	return nil
}

func (game *Game) pokeAgent() error {
	if game.ActiveAgentType != "user" {
		return game.playRound(game.ActiveAgent, nil)
	}
	return nil
}

// getPlays lists the legal moves of the side to move, or of the piece on
// from when it is valid.
func (game Game) getPlays(from square) []pieceMoves {
	if game.End {
		return nil
	}
	if from.valid() {
		piece, ok := game.Board.occupant(from)
		if !ok || pieceColor(piece) != game.turn() {
			return nil
		}
		ends := game.Board.legalDestinations(from)
		if len(ends) == 0 {
			return nil
		}
		return []pieceMoves{{Start: from, Ends: ends}}
	}
	return game.Board.playerLegalMoves(game.turn())
}

// seatedPlayer builds the player for the active agent. Users must name a
// move of their own colour; the form checks happen here, legality is the
// player's job.
func (game *Game) seatedPlayer(requested *move) (player, error) {
	if game.ActiveAgentType != "user" {
		return newBotPlayer(game.ActiveAgentName, game.turn())
	}
	if requested == nil {
		return nil, echo.NewHTTPError(http.StatusNotAcceptable, "player must provide move")
	}
	piece, ok := game.Board.occupant(requested.depart)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "no piece on "+requested.depart.String())
	}
	if pieceColor(piece) != game.turn() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "piece on "+requested.depart.String()+" is not "+game.turn().String())
	}
	return newHumanPlayer(game.ActiveAgentName, game.turn(), *requested), nil
}

func (game *Game) playRound(id uuid.UUID, requested *move) error {
	if !uuid.Equal(id, game.ActiveAgent) {
		return echo.NewHTTPError(http.StatusNotAcceptable, "not your turn")
	}
	if game.End {
		if game.ActiveAgentType == "user" {
			return echo.NewHTTPError(http.StatusBadRequest, "game is over")
		}
		return nil
	}
	current, err := game.seatedPlayer(requested)
	if err != nil {
		return err
	}
	m, err := current.chooseMove(game.Board)
	if errors.Is(err, errIllegalMove) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid move")
	}
	if err != nil {
		return err
	}
	return game.putMove(m)
}

func (game *Game) putMove(m move) error {
	game.advance(m)
	if err := db.Save(game).Error; err != nil {
		return errors.Wrapf(err, "save game %s", game.GameID)
	}
	log.WithFields(log.Fields{"game": game.GameID, "move": m.String(), "status": game.Status}).Info("move")
	if game.End {
		return nil
	}
	if game.InactiveAgentType == game.ActiveAgentType {
		// The caller still answers from game, so the next turn runs on a copy.
		next := *game
		go func() {
			idleError("poke agent", next.pokeAgent())
		}()
		return nil
	}
	return game.pokeAgent()
}
