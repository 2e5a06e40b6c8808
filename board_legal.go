package main

import (
	"golang.org/x/exp/slices"
)

type gameStatus string

const (
	statusOngoing   gameStatus = "ongoing"
	statusCheck     gameStatus = "check"
	statusCheckmate gameStatus = "checkmate"
	statusStalemate gameStatus = "stalemate"
	statusDraw      gameStatus = "draw"
)

// pieceMoves is one piece and its legal destinations in ascending order.
type pieceMoves struct {
	Start square
	Ends  []square
}

// moveTypeOf classifies the move of the piece on from to to.
func (board chessState) moveTypeOf(from, to square) moveType {
	piece, ok := board.occupant(from)
	if !ok {
		invariant("move type for empty square", from)
	}
	switch pieceKind(piece) {
	case king:
		if abs(to.file()-from.file()) == 2 {
			return castling
		}
	case pawn:
		if _, occupied := board.occupant(to); !occupied && to.file() != from.file() {
			return enPassant
		}
	}
	return standard
}

// inCheck reports whether c's king stands on a square the opponent attacks.
func (board chessState) inCheck(c color) bool {
	kingSquare := board.findKing(c)
	return kingSquare.valid() && board.attackedSquares(c.opposite()).has(kingSquare)
}

// leavesKingSafe plays start to end on a copy and reports whether the
// mover's king is then outside the opponent's attacked squares.
func (board chessState) leavesKingSafe(start, end, kingSquare square) bool {
	piece, _ := board.occupant(start)
	future := board.snapshot()
	future.relocate(start, end, board.moveTypeOf(start, end))
	if pieceKind(piece) == king {
		kingSquare = end
	}
	if !kingSquare.valid() {
		return true
	}
	return !future.attackedSquares(pieceColor(piece).opposite()).has(kingSquare)
}

// legalDestinations returns the destinations of the piece on start that
// keep its own king out of check, in ascending order. Castling is dropped
// when the king is in check or the square it passes over is attacked.
func (board chessState) legalDestinations(start square) []square {
	piece, ok := board.occupant(start)
	if !ok {
		invariant("legal moves for empty square", start)
	}
	c := pieceColor(piece)
	ends := board.pseudoLegal(start)
	isKing := pieceKind(piece) == king

	candidates := append(make([]square, 0, len(ends)+2), ends...)
	if isKing {
		for _, step := range []square{1, -1} {
			if slices.Contains(ends, start+2*step) && !slices.Contains(candidates, start+step) {
				candidates = append(candidates, start+step)
			}
		}
	}

	kingSquare := board.findKing(c)
	var unsafe squareSet
	for _, end := range candidates {
		if !board.leavesKingSafe(start, end, kingSquare) {
			unsafe = unsafe.add(end)
		}
	}

	checked := isKing && board.attackedSquares(c.opposite()).has(start)
	legal := make([]square, 0, len(ends))
	for _, end := range ends {
		if unsafe.has(end) {
			continue
		}
		if isKing && abs(int(end-start)) == 2 {
			if checked || unsafe.has(start+(end-start)/2) {
				continue
			}
		}
		legal = append(legal, end)
	}
	slices.Sort(legal)
	return legal
}

func (board chessState) playerMovesMatching(c color, match func(piece uint8) bool) []pieceMoves {
	all := make([]pieceMoves, 0, 16)
	for i, piece := range board {
		if pieceKind(piece) == zero || pieceColor(piece) != c || !match(piece) {
			continue
		}
		ends := board.legalDestinations(square(i))
		if len(ends) == 0 {
			continue
		}
		all = append(all, pieceMoves{Start: square(i), Ends: ends})
	}
	return all
}

// playerLegalMoves lists every piece of c with at least one legal move,
// in square order.
func (board chessState) playerLegalMoves(c color) []pieceMoves {
	return board.playerMovesMatching(c, func(uint8) bool { return true })
}

// playerPieceLegalMoves is playerLegalMoves restricted to one kind.
func (board chessState) playerPieceLegalMoves(c color, kind uint8) []pieceMoves {
	return board.playerMovesMatching(c, func(piece uint8) bool { return pieceKind(piece) == kind })
}

func (board chessState) hasLegalMove(c color) bool {
	for i, piece := range board {
		if pieceKind(piece) != zero && pieceColor(piece) == c && len(board.legalDestinations(square(i))) > 0 {
			return true
		}
	}
	return false
}

// status tells whether c, the side to move, is in check, mated or stalemated.
func (board chessState) status(c color) gameStatus {
	checked := board.inCheck(c)
	movable := board.hasLegalMove(c)
	switch {
	case movable && checked:
		return statusCheck
	case movable:
		return statusOngoing
	case checked:
		return statusCheckmate
	default:
		return statusStalemate
	}
}
