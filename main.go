package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/apex/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var (
	listenAddr    = flag.String("addr", ":8080", "address the HTTP API listens on")
	selfPlay      = flag.Bool("selfplay", false, "play one bot against bot game on the console and exit")
	selfPlaySeed  = flag.Int64("seed", 0, "seed for the -selfplay bots, 0 picks one at random")
	selfPlayMoves = flag.Int("moves", maxMoveCount, "move limit for -selfplay")
	selfPlayFEN   = flag.String("fen", initialFEN, "starting position for -selfplay")
)

// newShutdownSignal returns the channel that stops the server, subscribed to
// interrupts.
func newShutdownSignal() chan os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	return quit
}

func waitShutdown(e *echo.Echo, quit chan os.Signal, idleConnsClosed chan<- interface{}) {
	defer close(idleConnsClosed)
	defer signal.Stop(quit)

	<-quit
	log.Info("received shutdown signal")

	idleError("HTTP server shutdown:", e.Shutdown(context.Background()))
}

func listenAndServe(addr string, quit chan os.Signal, idleConnsClosed chan<- interface{}) {
	e := apiHandler()
	go waitShutdown(e, quit, idleConnsClosed)

	e.Use(middleware.Logger())

	idleError("HTTP server end:", e.Start(addr))
}

// Open serves the API on addr until quit receives a signal.
func Open(addr string, quit chan os.Signal) {
	idleConnsClosed := make(chan interface{})
	go listenAndServe(addr, quit, idleConnsClosed)
	<-idleConnsClosed
}

func idle() {
	idleError("agent idle complete:", agentIdle())
	idleError("game idle complete:", gameIdle())
}

// Close close.
func Close() error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func selfPlayBots(whiteSeed, blackSeed int64) (player, player, error) {
	if whiteSeed != 0 {
		return newSeededBotPlayer("white bot", white, whiteSeed), newSeededBotPlayer("black bot", black, blackSeed), nil
	}
	whitePlayer, err := newBotPlayer("white bot", white)
	if err != nil {
		return nil, nil, err
	}
	blackPlayer, err := newBotPlayer("black bot", black)
	if err != nil {
		return nil, nil, err
	}
	return whitePlayer, blackPlayer, nil
}

// runSelfPlay plays two bots against each other and prints the result.
func runSelfPlay(fen string, seed int64, limit int) error {
	game, err := newGameFromFEN(fen)
	if err != nil {
		return err
	}
	whitePlayer, blackPlayer, err := selfPlayBots(seed, seed+1)
	if err != nil {
		return err
	}
	played, err := playGame(whitePlayer, blackPlayer, game, limit)
	if err != nil {
		return err
	}
	fmt.Print(game.Board)
	log.WithFields(log.Fields{
		"moves":  len(played),
		"status": game.Status,
		"fen":    game.Board.fen(game.turn(), game.MovesSincePawn, 1+game.MoveCount/2),
	}).Info("self play finished")
	return nil
}

func main() {
	flag.Parse()
	if *selfPlay {
		if err := runSelfPlay(*selfPlayFEN, *selfPlaySeed, *selfPlayMoves); err != nil {
			log.WithError(err).Fatal("self play")
		}
		return
	}

	dbname, ok := os.LookupEnv("PGDATABASE")
	if !ok {
		dbname = "test"
	}
	if err := openDB(dbname); err != nil {
		log.WithError(err).WithField("dbname", dbname).Fatal("failed to connect database")
	}
	defer func() {
		idleError("close server:", Close())
	}()
	go func() {
		for {
			idle()
			time.Sleep(time.Second)
		}
	}()
	Open(*listenAddr, newShutdownSignal())
}
