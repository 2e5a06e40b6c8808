package main

import (
	"fmt"

	"github.com/apex/log"
)

// chessState is the 64 square board, a1 first and h8 last. Each byte is one
// piece: colour bit, kind bits, moved flag and the en passant flag.
type chessState [64]uint8

type square int

const invalidSquare square = -1

type moveType uint8

const (
	standard moveType = iota
	enPassant
	castling
)

func squareAt(file, rank int) square {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return invalidSquare
	}
	return square(rank*8 + file)
}

func (sq square) valid() bool {
	return sq >= 0 && sq < 64
}

func (sq square) file() int {
	return int(sq) % 8
}

func (sq square) rank() int {
	return int(sq) / 8
}

func (sq square) offset(files, ranks int) square {
	if !sq.valid() {
		return invalidSquare
	}
	return squareAt(sq.file()+files, sq.rank()+ranks)
}

func pieceColor(piece uint8) color {
	return color(piece & colorMask)
}

func pieceKind(piece uint8) uint8 {
	return piece & kindMask
}

func hasMoved(piece uint8) bool {
	return piece&movedFlag != 0
}

func makePiece(kind uint8, c color) uint8 {
	return kind | uint8(c)
}

// homeRank is the rank a colour's back row starts on.
func homeRank(c color) int {
	if c == black {
		return 7
	}
	return 0
}

func forward(c color) int {
	if c == black {
		return -1
	}
	return 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func invariant(message string, sq square) {
	log.WithField("square", sq.String()).Error(message)
	panic(fmt.Sprintf("%s: %s", message, sq))
}

// occupant reports the piece on sq. Empty and out of range squares both
// report false.
func (board chessState) occupant(sq square) (uint8, bool) {
	if !sq.valid() || pieceKind(board[sq]) == zero {
		return 0, false
	}
	return board[sq], true
}

// snapshot returns an independent copy; relocating on it never touches board.
func (board chessState) snapshot() chessState {
	return board
}

// relocate moves the piece on from to to without checking legality. En
// passant also clears the passed pawn and castling also moves the rook.
func (board *chessState) relocate(from, to square, mt moveType) {
	piece, ok := board.occupant(from)
	if !ok {
		invariant("relocate from empty square", from)
	}
	if !to.valid() {
		invariant("relocate to invalid square", to)
	}
	for i := range board {
		board[i] &^= passantFlag
	}
	board[from] = 0
	switch mt {
	case enPassant:
		board[squareAt(to.file(), from.rank())] = 0
	case castling:
		rookFrom, rookTo := castlingRook(from, to)
		partner, ok := board.occupant(rookFrom)
		if !ok {
			invariant("castle without rook", rookFrom)
		}
		board[rookFrom] = 0
		board[rookTo] = partner | movedFlag
	}
	piece |= movedFlag
	if pieceKind(piece) == pawn && abs(to.rank()-from.rank()) == 2 {
		piece |= passantFlag
	}
	board[to] = piece
}

// castlingRook returns where the rook starts and lands for a king hop from
// from to to.
func castlingRook(from, to square) (square, square) {
	if to.file() > from.file() {
		return squareAt(kingsideRookFile, from.rank()), to.offset(-1, 0)
	}
	return squareAt(queensideRookFile, from.rank()), to.offset(1, 0)
}

// promote replaces the pawn on sq with a piece of kind.
func (board *chessState) promote(sq square, kind uint8) {
	piece, ok := board.occupant(sq)
	if !ok || pieceKind(piece) != pawn {
		invariant("promote without pawn", sq)
	}
	board[sq] = makePiece(kind, pieceColor(piece)) | movedFlag
}

// findKing returns the square of c's king, or invalidSquare.
func (board chessState) findKing(c color) square {
	for i, piece := range board {
		if pieceKind(piece) == king && pieceColor(piece) == c {
			return square(i)
		}
	}
	return invalidSquare
}

func (board chessState) contains(piece uint8) bool {
	for _, p := range board {
		if p&(kindMask|colorMask) == piece {
			return true
		}
	}
	return false
}

func (board chessState) hasKings() bool {
	return board.contains(makePiece(king, white)) && board.contains(makePiece(king, black))
}

// needsPromotion reports whether m takes a pawn onto its last rank.
func (board chessState) needsPromotion(m move) bool {
	piece, ok := board.occupant(m.depart)
	return ok && pieceKind(piece) == pawn && m.dest.rank() == homeRank(pieceColor(piece).opposite())
}

// applyMove returns the board after the legal move m. Pawns reaching the
// last rank become a queen unless m names another kind.
func (board chessState) applyMove(m move) chessState {
	next := board.snapshot()
	next.relocate(m.depart, m.dest, board.moveTypeOf(m.depart, m.dest))
	if board.needsPromotion(m) {
		kind := m.promotion
		if kind == zero {
			kind = queen
		}
		next.promote(m.dest, kind)
	}
	return next
}
