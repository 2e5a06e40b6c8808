package main

import (
	"errors"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/montanaflynn/stats"
	uuid "github.com/satori/go.uuid"
	"gorm.io/gorm"
)

type agentRequest struct {
	Type   string
	Name   string
	GameID uuid.UUID
}

type gameRequest struct {
	FEN string
}

type playRequest struct {
	Move *move
}

type gameResponse struct {
	Href string
	Game Game
}

type gamesResponse struct {
	Href  string
	Games []Game
}

// mobility summarises how many destinations each movable piece has.
type mobility struct {
	Pieces int
	Moves  int
	Mean   float64
	Median float64
	Max    float64
}

type playsResponse struct {
	Href     string
	Moves    []move
	Mobility mobility
}

func errToHTTP(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.ErrNotFound
	}
	return err
}

func requestID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return id, nil
}

func requestAgent(c echo.Context) (*Game, uuid.UUID, error) {
	id, err := requestID(c)
	if err != nil {
		return nil, uuid.Nil, err
	}
	game, err := getAgent(id)
	return game, id, err
}

func requestGame(c echo.Context) (*Game, error) {
	id, err := requestID(c)
	if err != nil {
		return nil, err
	}
	return getGame(id)
}

func requestFrom(c echo.Context) (square, error) {
	from := c.QueryParam("from")
	if from == "" {
		return invalidSquare, nil
	}
	sq := squareFromString(from)
	if !sq.valid() {
		return invalidSquare, echo.NewHTTPError(http.StatusBadRequest, "invalid square "+from)
	}
	return sq, nil
}

func responseAgent(game *Game, agentID uuid.UUID) gameResponse {
	return gameResponse{Game: game.response(agentID), Href: path.Join("/agents", agentID.String())}
}

func responseGame(game *Game) gameResponse {
	return gameResponse{Game: game.response(uuid.Nil), Href: path.Join("/games", game.GameID.String())}
}

func responseGames(games []Game) gamesResponse {
	return gamesResponse{Games: games, Href: "/games"}
}

func mobilityOf(plays []pieceMoves) (mobility, error) {
	if len(plays) == 0 {
		return mobility{}, nil
	}
	counts := make([]int, 0, len(plays))
	total := 0
	for _, play := range plays {
		counts = append(counts, len(play.Ends))
		total = total + len(play.Ends)
	}
	data := stats.LoadRawData(counts)
	mean, err := stats.Mean(data)
	if err != nil {
		return mobility{}, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return mobility{}, err
	}
	most, err := stats.Max(data)
	if err != nil {
		return mobility{}, err
	}
	return mobility{Pieces: len(plays), Moves: total, Mean: mean, Median: median, Max: most}, nil
}

func responsePlays(game *Game, plays []pieceMoves) (playsResponse, error) {
	moves := make([]move, 0, len(plays)*4)
	for _, play := range plays {
		for _, end := range play.Ends {
			m := move{depart: play.Start, dest: end}
			if !game.Board.needsPromotion(m) {
				moves = append(moves, m)
				continue
			}
			for _, kind := range promotionKinds {
				m.promotion = kind
				moves = append(moves, m)
			}
		}
	}
	summary, err := mobilityOf(plays)
	if err != nil {
		return playsResponse{}, err
	}
	return playsResponse{Moves: moves, Mobility: summary, Href: path.Join("/games", game.GameID.String(), "plays")}, nil
}

func apiHandler() *echo.Echo {
	e := echo.New()

	e.POST("/agents", func(c echo.Context) error {
		var message agentRequest
		if err := c.Bind(&message); err != nil {
			return err
		}
		if message.Type == "" {
			message.Type = "agent"
		}
		if message.Type != "agent" && message.Type != "user" {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown agent type "+message.Type)
		}
		if message.Name == "" {
			message.Name = message.Type
		}
		game, err := getGame(message.GameID)
		if err != nil {
			return errToHTTP(err)
		}
		id, err := game.makeAgent(message.Type, message.Name)
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusCreated, responseAgent(game, id))
	})
	e.GET("/agents/:id", func(c echo.Context) error {
		game, id, err := requestAgent(c)
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusOK, responseAgent(game, id))
	})
	e.PUT("/agents/:id", func(c echo.Context) error {
		game, id, err := requestAgent(c)
		if err != nil {
			return errToHTTP(err)
		}
		var request playRequest
		if err := c.Bind(&request); err != nil {
			return err
		}
		if err := game.playRound(id, request.Move); err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusOK, responseAgent(game, id))
	})
	e.POST("/agents/:id", func(c echo.Context) error {
		game, id, err := requestAgent(c)
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusOK, responseAgent(game, id))
	})
	e.GET("/games", func(c echo.Context) error {
		games, err := getGames()
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusOK, responseGames(games))
	})
	e.POST("/games", func(c echo.Context) error {
		var message gameRequest
		if err := c.Bind(&message); err != nil {
			return err
		}
		game, err := makeGame(message.FEN)
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusCreated, responseGame(game))
	})
	e.GET("/games/:id", func(c echo.Context) error {
		game, err := requestGame(c)
		if err != nil {
			return errToHTTP(err)
		}
		return c.JSON(http.StatusOK, responseGame(game))
	})
	e.GET("/games/:id/plays", func(c echo.Context) error {
		game, err := requestGame(c)
		if err != nil {
			return errToHTTP(err)
		}
		from, err := requestFrom(c)
		if err != nil {
			return err
		}
		response, err := responsePlays(game, game.getPlays(from))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, response)
	})

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Gzip())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	return e
}
