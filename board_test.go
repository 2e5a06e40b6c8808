package main

import (
	"errors"
	"fmt"
	"strings"

	. "gopkg.in/check.v1"
)

type RulesSuite struct{}

var _ = Suite(&RulesSuite{})

func sq(name string) square {
	return squareFromString(name)
}

func squares(names ...string) []square {
	list := make([]square, 0, len(names))
	for _, name := range names {
		list = append(list, sq(name))
	}
	return list
}

func mustFEN(c *C, fen string) (chessState, color) {
	board, toMove, err := boardFromFEN(fen)
	c.Assert(err, IsNil)
	return board, toMove
}

func play(c *C, board chessState, moves ...string) chessState {
	for _, text := range moves {
		var m move
		_, err := fmt.Sscan(text, &m)
		c.Assert(err, IsNil)
		piece, ok := board.occupant(m.depart)
		c.Assert(ok, Equals, true, Commentf("no piece for %s", text))
		c.Assert(board.legalDestinations(m.depart), ContainsSquare, m.dest, Commentf("%s is not legal for %c", text, kindToSymbol[pieceKind(piece)]))
		board = board.applyMove(m)
	}
	return board
}

type containsChecker struct {
	*CheckerInfo
}

func (checker *containsChecker) Check(params []interface{}, names []string) (result bool, error string) {
	list, ok := params[0].([]square)
	if !ok {
		return false, "obtained value is not a []square"
	}
	want, ok := params[1].(square)
	if !ok {
		return false, "expected value is not a square"
	}
	for _, sq := range list {
		if sq == want {
			return true, ""
		}
	}
	return false, ""
}

var ContainsSquare Checker = &containsChecker{
	&CheckerInfo{Name: "ContainsSquare", Params: []string{"obtained", "square"}},
}

func (s *RulesSuite) TestSquareNames(c *C) {
	c.Assert(sq("a1"), Equals, square(0))
	c.Assert(sq("h8"), Equals, square(63))
	c.Assert(sq("e2"), Equals, square(12))
	c.Assert(sq("e4"), Equals, square(28))
	for _, bad := range []string{"", "a", "i1", "a0", "a9", "A1", "e22", "4e"} {
		c.Assert(sq(bad), Equals, invalidSquare, Commentf("%q", bad))
	}
	for i := square(0); i < 64; i++ {
		c.Assert(sq(i.String()), Equals, i)
	}
	c.Assert(invalidSquare.String(), Equals, "-")
	c.Assert(square(64).valid(), Equals, false)
}

func (s *RulesSuite) TestFmtBoard(c *C) {
	value, err := chessState{}.Value()
	c.Assert(err, IsNil)
	c.Assert(value, Equals, strings.Repeat("00", 64))
	value, err = initialBoard.Value()
	c.Assert(err, IsNil)
	c.Assert(value, Equals, "0c06020a0402060c"+strings.Repeat("08", 8)+strings.Repeat("00", 32)+strings.Repeat("09", 8)+"0d07030b0503070d")

	var scanned chessState
	c.Assert(scanned.Scan(value), IsNil)
	c.Assert(scanned, Equals, initialBoard)
	c.Assert(scanned.Scan("00"), ErrorMatches, "board is not length 64: 1")
	c.Assert(scanned.Scan(12), ErrorMatches, "invalid format scaning 12")
}

func (s *RulesSuite) TestRender(c *C) {
	lines := strings.Split(initialBoard.String(), "\n")
	c.Assert(lines[0], Equals, "8 ♜ ♞ ♝ ♛ ♚ ♝ ♞ ♜")
	c.Assert(lines[4], Equals, "4 · · · · · · · ·")
	c.Assert(lines[7], Equals, "1 ♖ ♘ ♗ ♕ ♔ ♗ ♘ ♖")
	c.Assert(lines[8], Equals, "  a b c d e f g h")
}

func (s *RulesSuite) TestInitialFEN(c *C) {
	board, toMove := mustFEN(c, initialFEN)
	c.Assert(board, Equals, initialBoard)
	c.Assert(toMove, Equals, white)
	c.Assert(initialBoard.fen(white, 0, 1), Equals, initialFEN)
}

func (s *RulesSuite) TestFENCounters(c *C) {
	pos, err := parseFEN("4k3/8/8/8/8/8/8/4K3 b - - 37 52")
	c.Assert(err, IsNil)
	c.Assert(pos.toMove, Equals, black)
	c.Assert(pos.halfmove, Equals, 37)
	c.Assert(pos.fullmove, Equals, 52)

	pos, err = parseFEN("4k3/8/8/8/8/8/8/4K3 w")
	c.Assert(err, IsNil)
	c.Assert(pos.halfmove, Equals, 0)
	c.Assert(pos.fullmove, Equals, 1)
}

func (s *RulesSuite) TestFENCarriesEnPassant(c *C) {
	board := play(c, initialBoard, "e2e4")
	fen := board.fen(black, 0, 1)
	c.Assert(fen, Equals, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	parsed, toMove := mustFEN(c, fen)
	c.Assert(toMove, Equals, black)
	c.Assert(parsed, Equals, board)
}

func (s *RulesSuite) TestInvalidFEN(c *C) {
	for _, fen := range []string{
		"",
		"8/8/8 w - - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1",
		"rnbqkbnr/pppppppp/9/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w K - 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - e3 0 1",
		"4k3/8/8/8/8/8/8/4K3 w - - x 1",
		"4k3/8/8/8/8/8/8/4K3 w - - -1 1",
		"4k3/8/8/8/8/8/8/4K3 w - - 0 0",
	} {
		_, _, err := boardFromFEN(fen)
		c.Assert(errors.Is(err, errInvalidFEN), Equals, true, Commentf("%q: %v", fen, err))
	}
}

func (s *RulesSuite) TestOccupant(c *C) {
	piece, ok := initialBoard.occupant(sq("e1"))
	c.Assert(ok, Equals, true)
	c.Assert(pieceKind(piece), Equals, king)
	c.Assert(pieceColor(piece), Equals, white)
	_, ok = initialBoard.occupant(sq("e4"))
	c.Assert(ok, Equals, false)
	_, ok = initialBoard.occupant(invalidSquare)
	c.Assert(ok, Equals, false)
	_, ok = initialBoard.occupant(64)
	c.Assert(ok, Equals, false)
}

func (s *RulesSuite) TestEmptySquarePanics(c *C) {
	board := initialBoard
	c.Assert(func() { board.relocate(sq("e4"), sq("e5"), standard) }, PanicMatches, "relocate from empty square: e4")
	c.Assert(func() { board.legalDestinations(sq("e4")) }, PanicMatches, "legal moves for empty square: e4")
	c.Assert(func() { board.pseudoLegal(sq("d5")) }, PanicMatches, "moves for empty square: d5")
}

func (s *RulesSuite) TestSnapshotIsIndependent(c *C) {
	board := initialBoard
	future := board.snapshot()
	future.relocate(sq("e2"), sq("e4"), standard)
	c.Assert(board, Equals, initialBoard)
	_, ok := future.occupant(sq("e2"))
	c.Assert(ok, Equals, false)
	piece, ok := future.occupant(sq("e4"))
	c.Assert(ok, Equals, true)
	c.Assert(piece, Equals, pawn|movedFlag|passantFlag)
}

func (s *RulesSuite) TestOpeningPawns(c *C) {
	c.Assert(initialBoard.legalDestinations(sq("e2")), DeepEquals, squares("e3", "e4"))
	c.Assert(initialBoard.moveTypeOf(sq("e2"), sq("e4")), Equals, standard)
	c.Assert(initialBoard.legalDestinations(sq("e7")), DeepEquals, squares("e5", "e6"))

	board := play(c, initialBoard, "e2e4")
	c.Assert(board.legalDestinations(sq("e4")), DeepEquals, squares("e5"))
}

func (s *RulesSuite) TestOpeningPlayerMoves(c *C) {
	plays := initialBoard.playerLegalMoves(white)
	c.Assert(plays, HasLen, 10)
	total := 0
	for _, play := range plays {
		total += len(play.Ends)
	}
	c.Assert(total, Equals, 20)

	c.Assert(initialBoard.playerPieceLegalMoves(white, knight), DeepEquals, []pieceMoves{
		{Start: sq("b1"), Ends: squares("a3", "c3")},
		{Start: sq("g1"), Ends: squares("f3", "h3")},
	})
	c.Assert(initialBoard.playerPieceLegalMoves(black, queen), HasLen, 0)
}

func (s *RulesSuite) TestKnightAndRook(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/p7/8/8/R3K3 w - - 0 1")
	c.Assert(board.legalDestinations(sq("a1")), DeepEquals, squares("b1", "c1", "d1", "a2", "a3", "a4"))

	board, _ = mustFEN(c, "4k3/8/8/8/8/8/2P5/N3K3 w - - 0 1")
	c.Assert(board.legalDestinations(sq("a1")), DeepEquals, squares("b3"))
}

func (s *RulesSuite) TestKingsideCastling(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "g1", "d2", "e2", "f2"))
	c.Assert(board.moveTypeOf(sq("e1"), sq("g1")), Equals, castling)

	board = board.applyMove(move{depart: sq("e1"), dest: sq("g1")})
	kingPiece, ok := board.occupant(sq("g1"))
	c.Assert(ok, Equals, true)
	c.Assert(kingPiece, Equals, king|movedFlag)
	rookPiece, ok := board.occupant(sq("f1"))
	c.Assert(ok, Equals, true)
	c.Assert(rookPiece, Equals, rook|movedFlag)
	_, ok = board.occupant(sq("h1"))
	c.Assert(ok, Equals, false)
	c.Assert(board.fen(black, 1, 1), Equals, "4k3/8/8/8/8/8/8/5RK1 b - - 1 1")
}

func (s *RulesSuite) TestQueensideCastling(c *C) {
	// b1 may be attacked, only the king's path matters.
	board, _ := mustFEN(c, "1r2k3/8/8/8/8/8/8/R3K3 w Q - 0 1")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("c1", "d1", "f1", "d2", "e2", "f2"))
	board = board.applyMove(move{depart: sq("e1"), dest: sq("c1")})
	rookPiece, ok := board.occupant(sq("d1"))
	c.Assert(ok, Equals, true)
	c.Assert(pieceKind(rookPiece), Equals, rook)
}

func (s *RulesSuite) TestNoCastlingThroughAttack(c *C) {
	board, _ := mustFEN(c, "4kr2/8/8/8/8/8/8/4K2R w K - 0 1")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "d2", "e2"))
}

func (s *RulesSuite) TestNoCastlingIntoAttack(c *C) {
	board, _ := mustFEN(c, "4k1r1/8/8/8/8/8/8/4K2R w K - 0 1")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "e2", "f2"))
}

func (s *RulesSuite) TestNoCastlingOutOfCheck(c *C) {
	board, _ := mustFEN(c, "4r1k1/8/8/8/8/8/8/4K2R w K - 0 1")
	c.Assert(board.inCheck(white), Equals, true)
	c.Assert(board.status(white), Equals, statusCheck)
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "f2"))
	c.Assert(board.legalDestinations(sq("h1")), HasLen, 0)
}

func (s *RulesSuite) TestNoCastlingAfterRookMoved(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	board = play(c, board, "h1h2", "e8d8", "h2h1", "d8e8")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "e2", "f2"))
	c.Assert(board.fen(white, 4, 3), Equals, "4k3/8/8/8/8/8/8/4K2R w - - 4 3")
}

func (s *RulesSuite) TestNoCastlingAfterKingMoved(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/8/8/8/4K2R w K - 0 1")
	board = play(c, board, "e1f1", "e8d8", "f1e1", "d8e8")
	rookPiece, _ := board.occupant(sq("h1"))
	c.Assert(hasMoved(rookPiece), Equals, false)
	c.Assert(board.legalDestinations(sq("e1")), Not(ContainsSquare), sq("g1"))
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "e2", "f2"))
	c.Assert(board.fen(white, 4, 3), Equals, "4k3/8/8/8/8/8/8/4K2R w - - 4 3")
}

func (s *RulesSuite) TestNoCastlingWhenBlocked(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/8/8/8/R1B1K3 w Q - 0 1")
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "e2", "f2"))
}

func (s *RulesSuite) TestEnPassant(c *C) {
	start, _ := mustFEN(c, "4k3/3p4/8/4P3/8/8/8/4K3 b - - 0 1")
	c.Assert(start.legalDestinations(sq("e5")), DeepEquals, squares("e6"))

	board := play(c, start, "d7d5")
	c.Assert(board.legalDestinations(sq("e5")), DeepEquals, squares("d6", "e6"))
	c.Assert(board.moveTypeOf(sq("e5"), sq("d6")), Equals, enPassant)
	_, ok := board.occupant(sq("d6"))
	c.Assert(ok, Equals, false)

	captured := board.applyMove(move{depart: sq("e5"), dest: sq("d6")})
	_, ok = captured.occupant(sq("d5"))
	c.Assert(ok, Equals, false)
	piece, ok := captured.occupant(sq("d6"))
	c.Assert(ok, Equals, true)
	c.Assert(pieceKind(piece), Equals, pawn)
	c.Assert(pieceColor(piece), Equals, white)

	later := play(c, board, "e1e2", "e8f8")
	c.Assert(later.legalDestinations(sq("e5")), DeepEquals, squares("e6"))
}

func (s *RulesSuite) TestEnPassantRevealingCheck(c *C) {
	// Taking on d6 would open the fifth rank onto the king.
	board, _ := mustFEN(c, "4k3/8/8/r2pP2K/8/8/8/8 w - d6 0 1")
	c.Assert(board.legalDestinations(sq("e5")), DeepEquals, squares("e6"))
}

func (s *RulesSuite) TestPinnedPiece(c *C) {
	board, _ := mustFEN(c, "4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")
	c.Assert(board.legalDestinations(sq("e2")), HasLen, 0)
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("d1", "f1", "d2", "f2"))
	c.Assert(board.playerLegalMoves(white), DeepEquals, []pieceMoves{{Start: sq("e1"), Ends: squares("d1", "f1", "d2", "f2")}})
}

func (s *RulesSuite) TestCheckEvasion(c *C) {
	board, _ := mustFEN(c, "4k3/8/8/8/8/8/3q4/4K3 w - - 0 1")
	c.Assert(board.inCheck(white), Equals, true)
	c.Assert(board.legalDestinations(sq("e1")), DeepEquals, squares("f1", "d2"))
}

func (s *RulesSuite) TestFoolsMate(c *C) {
	board := play(c, initialBoard, "f2f3", "e7e5", "g2g4", "d8h4")
	c.Assert(board.inCheck(white), Equals, true)
	c.Assert(board.playerLegalMoves(white), HasLen, 0)
	c.Assert(board.status(white), Equals, statusCheckmate)
	c.Assert(board.status(black), Equals, statusOngoing)
}

func (s *RulesSuite) TestStalemate(c *C) {
	board, toMove := mustFEN(c, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	c.Assert(toMove, Equals, black)
	c.Assert(board.inCheck(black), Equals, false)
	c.Assert(board.playerLegalMoves(black), HasLen, 0)
	c.Assert(board.status(black), Equals, statusStalemate)
}

func (s *RulesSuite) TestPromotion(c *C) {
	board, _ := mustFEN(c, "4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	m := move{depart: sq("a7"), dest: sq("a8")}
	c.Assert(board.needsPromotion(m), Equals, true)
	promoted := board.applyMove(m)
	piece, _ := promoted.occupant(sq("a8"))
	c.Assert(pieceKind(piece), Equals, queen)
	c.Assert(promoted.status(black), Equals, statusCheck)

	m.promotion = knight
	piece, _ = board.applyMove(m).occupant(sq("a8"))
	c.Assert(pieceKind(piece), Equals, knight)
	c.Assert(board.needsPromotion(move{depart: sq("e1"), dest: sq("e2")}), Equals, false)
}

func (s *RulesSuite) TestMoveText(c *C) {
	var m move
	_, err := fmt.Sscan("e7e8n", &m)
	c.Assert(err, IsNil)
	c.Assert(m, Equals, move{depart: sq("e7"), dest: sq("e8"), promotion: knight})
	c.Assert(m.String(), Equals, "e7e8n")
	for _, kind := range []string{"q", "r", "b", "n", "Q"} {
		_, err = fmt.Sscan("e7e8"+kind, &m)
		c.Assert(err, IsNil, Commentf("%q", kind))
	}
	for _, bad := range []string{"e9e4", "e7e8k", "e7e8p", "e7e8x", "e2", "e2e4qq"} {
		_, err = fmt.Sscan(bad, &m)
		c.Assert(err, NotNil, Commentf("%q", bad))
	}
	c.Assert(m.UnmarshalJSON([]byte(`"g1f3"`)), IsNil)
	c.Assert(m, Equals, move{depart: sq("g1"), dest: sq("f3")})
	text, err := m.MarshalJSON()
	c.Assert(err, IsNil)
	c.Assert(string(text), Equals, `"g1f3"`)
}

// Every legal destination keeps the mover's king safe and never lands on a
// piece of its own colour.
func (s *RulesSuite) TestLegalMovesAreSafe(c *C) {
	for seed := int64(1); seed <= 3; seed++ {
		game := newGame(initialBoard, white)
		bots := map[color]*botPlayer{
			white: newSeededBotPlayer("white", white, seed),
			black: newSeededBotPlayer("black", black, seed*31),
		}
		for ply := 0; ply < 60 && !game.End; ply++ {
			mover := game.turn()
			for _, play := range game.Board.playerLegalMoves(mover) {
				c.Assert(play.Ends, Not(HasLen), 0)
				for _, end := range play.Ends {
					if occupant, ok := game.Board.occupant(end); ok {
						c.Assert(pieceColor(occupant), Not(Equals), mover)
					}
					next := game.Board.applyMove(move{depart: play.Start, dest: end})
					c.Assert(next.inCheck(mover), Equals, false, Commentf("%s%s from %s", play.Start, end, game.Board.fen(mover, 0, 1)))
				}
			}
			m, err := bots[mover].chooseMove(game.Board)
			c.Assert(err, IsNil)
			game.advance(m)
		}
	}
}
