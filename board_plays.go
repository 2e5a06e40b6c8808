package main

import (
	"sync"
)

// squareSet is a bitboard of squares.
type squareSet uint64

func (set squareSet) add(sq square) squareSet {
	return set | 1<<uint(sq)
}

func (set squareSet) has(sq square) bool {
	return sq.valid() && set&(1<<uint(sq)) != 0
}

func (board chessState) moveForBasic(moves chan<- square, piece uint8, end square) bool {
	occupant, ok := board.occupant(end)
	if !ok {
		moves <- end
		return true
	}
	if pieceColor(occupant) != pieceColor(piece) {
		moves <- end
	}
	return false
}

func (board chessState) movesForRays(moves chan<- square, piece uint8, start square, rays [][2]int) {
	for _, ray := range rays {
		for end := start.offset(ray[0], ray[1]); end.valid(); end = end.offset(ray[0], ray[1]) {
			if !board.moveForBasic(moves, piece, end) {
				break
			}
		}
	}
}

func (board chessState) movesForSteps(moves chan<- square, piece uint8, start square, steps [][2]int) {
	for _, step := range steps {
		end := start.offset(step[0], step[1])
		if !end.valid() {
			continue
		}
		board.moveForBasic(moves, piece, end)
	}
}

func (board chessState) movesForBishop(moves chan<- square, piece uint8, start square) {
	board.movesForRays(moves, piece, start, bishopRays)
}

func (board chessState) movesForKing(moves chan<- square, piece uint8, start square) {
	board.movesForSteps(moves, piece, start, kingSteps)
	if hasMoved(piece) || start != squareAt(kingStartFile, homeRank(pieceColor(piece))) {
		return
	}
	if board.castlingPathClear(piece, start, kingsideRookFile) {
		moves <- start + 2
	}
	if board.castlingPathClear(piece, start, queensideRookFile) {
		moves <- start - 2
	}
}

// castlingPathClear reports whether the unmoved rook on rookFile can castle
// with the king on start: everything strictly between them is empty.
func (board chessState) castlingPathClear(piece uint8, start square, rookFile int) bool {
	corner := squareAt(rookFile, start.rank())
	partner, ok := board.occupant(corner)
	if !ok || pieceKind(partner) != rook || pieceColor(partner) != pieceColor(piece) || hasMoved(partner) {
		return false
	}
	step := square(1)
	if rookFile < start.file() {
		step = -1
	}
	for sq := start + step; sq != corner; sq += step {
		if _, ok := board.occupant(sq); ok {
			return false
		}
	}
	return true
}

func (board chessState) movesForKnight(moves chan<- square, piece uint8, start square) {
	board.movesForSteps(moves, piece, start, knightJumps)
}

func (board chessState) movesForPawn(moves chan<- square, piece uint8, start square) {
	c := pieceColor(piece)
	dir := forward(c)
	if one := start.offset(0, dir); one.valid() {
		if _, ok := board.occupant(one); !ok {
			moves <- one
			two := one.offset(0, dir)
			if _, ok := board.occupant(two); !ok && two.valid() && !hasMoved(piece) && start.rank() == homeRank(c)+dir {
				moves <- two
			}
		}
	}
	for _, side := range []int{-1, 1} {
		end := start.offset(side, dir)
		if !end.valid() {
			continue
		}
		if occupant, ok := board.occupant(end); ok {
			if pieceColor(occupant) != c {
				moves <- end
			}
			continue
		}
		passed, ok := board.occupant(start.offset(side, 0))
		if ok && pieceKind(passed) == pawn && pieceColor(passed) != c && passed&passantFlag != 0 {
			moves <- end
		}
	}
}

func (board chessState) movesForQueen(moves chan<- square, piece uint8, start square) {
	board.movesForBishop(moves, piece, start)
	board.movesForRook(moves, piece, start)
}

func (board chessState) movesForRook(moves chan<- square, piece uint8, start square) {
	board.movesForRays(moves, piece, start, rookRays)
}

func (board chessState) movesForPiece(moves chan<- square, piece uint8, start square) {
	switch pieceKind(piece) {
	case bishop:
		board.movesForBishop(moves, piece, start)
	case king:
		board.movesForKing(moves, piece, start)
	case knight:
		board.movesForKnight(moves, piece, start)
	case pawn:
		board.movesForPawn(moves, piece, start)
	case queen:
		board.movesForQueen(moves, piece, start)
	case rook:
		board.movesForRook(moves, piece, start)
	default:
		invariant("invalid piece", start)
	}
}

// pseudoLegal lists where the piece on start could go, ignoring the safety
// of its own king.
func (board chessState) pseudoLegal(start square) []square {
	piece, ok := board.occupant(start)
	if !ok {
		invariant("moves for empty square", start)
	}
	// A queen in the open has 27 destinations, the most of any piece.
	moves := make(chan square, 32)
	board.movesForPiece(moves, piece, start)
	close(moves)
	ends := make([]square, 0, len(moves))
	for end := range moves {
		ends = append(ends, end)
	}
	return ends
}

func (board chessState) movesForBoard(c color) <-chan square {
	moves := make(chan square, 32)
	go func() {
		defer close(moves)
		var group sync.WaitGroup
		for start, piece := range board {
			if pieceKind(piece) == zero || pieceColor(piece) != c {
				continue
			}
			group.Add(1)
			go func(piece uint8, start square) {
				defer group.Done()
				board.movesForPiece(moves, piece, start)
			}(piece, square(start))
		}
		group.Wait()
	}()
	return moves
}

// attackedSquares is the union of the pseudo legal destinations of every
// piece of colour c. Pawn pushes count as attacks too.
func (board chessState) attackedSquares(c color) squareSet {
	var attacked squareSet
	for end := range board.movesForBoard(c) {
		attacked = attacked.add(end)
	}
	return attacked
}
