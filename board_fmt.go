package main

import (
	"database/sql/driver"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
)

var errInvalidFEN = errors.New("invalid FEN")

const initialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// squareFromString converts "a1".."h8" to a square. Anything else yields
// invalidSquare, which callers must check for.
func squareFromString(s string) square {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return invalidSquare
	}
	return squareAt(int(s[0]-'a'), int(s[1]-'1'))
}

func (sq square) String() string {
	if !sq.valid() {
		return "-"
	}
	return string([]byte{byte('a' + sq.file()), byte('1' + sq.rank())})
}

type move struct {
	depart    square
	dest      square
	promotion uint8
}

func (m *move) Scan(state fmt.ScanState, verb rune) error {
	token, err := state.Token(true, nil)
	if err != nil {
		return err
	}
	s := string(token)
	if len(s) != 4 && len(s) != 5 {
		return fmt.Errorf("invalid move format %d %s", len(s), s)
	}
	depart, dest := squareFromString(s[:2]), squareFromString(s[2:4])
	if !depart.valid() || !dest.valid() {
		return fmt.Errorf("invalid move format %d %s", len(s), s)
	}
	m.depart, m.dest, m.promotion = depart, dest, zero
	if len(s) == 5 {
		kind, ok := symbolToKind[unicode.ToUpper(rune(s[4]))]
		if !ok || !slices.Contains(promotionKinds, kind) {
			return fmt.Errorf("invalid promotion %d %s", len(s), s)
		}
		m.promotion = kind
	}
	return nil
}

func (m move) String() string {
	promotion := ""
	if m.promotion != zero {
		promotion = string(unicode.ToLower(kindToSymbol[m.promotion]))
	}
	return m.depart.String() + m.dest.String() + promotion
}

func (m *move) UnmarshalJSON(bytes []byte) error {
	var state string
	if err := json.Unmarshal(bytes, &state); err != nil {
		return err
	}
	_, err := fmt.Sscan(state, m)
	return err
}

func (m move) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (board chessState) Value() (driver.Value, error) {
	return hex.EncodeToString(board[:]), nil
}

func (board *chessState) Scan(cell interface{}) error {
	switch cell := cell.(type) {
	case string:
		return board.decode(cell)
	case []byte:
		return board.decode(string(cell))
	default:
		return fmt.Errorf("invalid format scaning %#v", cell)
	}
}

func (board *chessState) decode(cell string) error {
	src, err := hex.DecodeString(cell)
	if err != nil {
		return err
	}
	if len(src) != len(board) {
		return fmt.Errorf("board is not length %d: %d", len(board), len(src))
	}
	copy(board[:], src)
	return nil
}

func (board chessState) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(board[:]))
}

func (board *chessState) UnmarshalJSON(bytes []byte) error {
	var state string
	if err := json.Unmarshal(bytes, &state); err != nil {
		return err
	}
	return board.decode(state)
}

// String draws the board with rank 8 on top.
func (board chessState) String() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteString(strconv.Itoa(rank + 1))
		for file := 0; file < 8; file++ {
			sb.WriteByte(' ')
			piece, ok := board.occupant(squareAt(file, rank))
			switch {
			case !ok:
				sb.WriteRune('·')
			case pieceColor(piece) == black:
				sb.WriteRune(valueToPieceBlack[pieceKind(piece)])
			default:
				sb.WriteRune(valueToPieceWhite[pieceKind(piece)])
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("  a b c d e f g h\n")
	return sb.String()
}

func fenLetter(piece uint8) rune {
	letter := kindToSymbol[pieceKind(piece)]
	if pieceColor(piece) == black {
		return unicode.ToLower(letter)
	}
	return letter
}

// castlingRight reports whether c still keeps the right to castle with the
// rook on rookFile.
func (board chessState) castlingRight(c color, rookFile int) bool {
	kingPiece, ok := board.occupant(squareAt(kingStartFile, homeRank(c)))
	if !ok || kingPiece&(kindMask|colorMask|movedFlag) != makePiece(king, c) {
		return false
	}
	partner, ok := board.occupant(squareAt(rookFile, homeRank(c)))
	return ok && partner&(kindMask|colorMask|movedFlag) == makePiece(rook, c)
}

// fen writes the board in Forsyth-Edwards notation with toMove to play.
func (board chessState) fen(toMove color, halfmove, fullmove int) string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece, ok := board.occupant(squareAt(file, rank))
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteRune(fenLetter(piece))
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	if toMove == black {
		sb.WriteString(" b ")
	} else {
		sb.WriteString(" w ")
	}
	rights := ""
	for _, right := range []struct {
		c      color
		file   int
		letter string
	}{{white, kingsideRookFile, "K"}, {white, queensideRookFile, "Q"}, {black, kingsideRookFile, "k"}, {black, queensideRookFile, "q"}} {
		if board.castlingRight(right.c, right.file) {
			rights += right.letter
		}
	}
	if rights == "" {
		rights = "-"
	}
	sb.WriteString(rights)
	sb.WriteByte(' ')
	target := invalidSquare
	for i, piece := range board {
		if pieceKind(piece) == pawn && piece&passantFlag != 0 && pieceColor(piece) != toMove {
			target = square(i).offset(0, -forward(pieceColor(piece)))
		}
	}
	sb.WriteString(target.String())
	fmt.Fprintf(&sb, " %d %d", halfmove, fullmove)
	return sb.String()
}

// position is a parsed FEN record.
type position struct {
	board    chessState
	toMove   color
	halfmove int
	fullmove int
}

// boardFromFEN builds a board from Forsyth-Edwards notation, dropping the
// move counters.
func boardFromFEN(fen string) (chessState, color, error) {
	pos, err := parseFEN(fen)
	return pos.board, pos.toMove, err
}

// parseFEN reads a Forsyth-Edwards record. Moved flags are derived: pawns off
// their start rank have moved, and kings and rooks have moved unless a
// castling right says otherwise. Missing counters default to 0 and 1.
func parseFEN(fen string) (position, error) {
	pos, err := parseFENBoard(fen)
	if err != nil {
		return position{}, err
	}
	parts := strings.Fields(fen)
	pos.fullmove = 1
	if len(parts) > 4 {
		if pos.halfmove, err = strconv.Atoi(parts[4]); err != nil || pos.halfmove < 0 {
			return position{}, fmt.Errorf("invalid halfmove clock: %s: %w", parts[4], errInvalidFEN)
		}
	}
	if len(parts) > 5 {
		if pos.fullmove, err = strconv.Atoi(parts[5]); err != nil || pos.fullmove < 1 {
			return position{}, fmt.Errorf("invalid fullmove number: %s: %w", parts[5], errInvalidFEN)
		}
	}
	return pos, nil
}

func parseFENBoard(fen string) (position, error) {
	var board chessState
	parts := strings.Fields(fen)
	if len(parts) < 1 {
		return position{}, fmt.Errorf("empty FEN string: %w", errInvalidFEN)
	}
	rows := strings.Split(parts[0], "/")
	if len(rows) != 8 {
		return position{}, fmt.Errorf("%d ranks in %q: %w", len(rows), parts[0], errInvalidFEN)
	}
	for i, row := range rows {
		rank, file := 7-i, 0
		for _, c := range row {
			switch {
			case c >= '1' && c <= '8':
				file += int(c - '0')
				continue
			case file > 7:
				return position{}, fmt.Errorf("rank %d too long: %w", rank+1, errInvalidFEN)
			}
			kind, ok := symbolToKind[unicode.ToUpper(c)]
			if !ok {
				return position{}, fmt.Errorf("invalid piece character: %c: %w", c, errInvalidFEN)
			}
			owner := white
			if unicode.IsLower(c) {
				owner = black
			}
			piece := makePiece(kind, owner)
			switch kind {
			case pawn:
				if rank != homeRank(owner)+forward(owner) {
					piece |= movedFlag
				}
			case king, rook:
				piece |= movedFlag
			}
			board[squareAt(file, rank)] = piece
			file++
		}
		if file != 8 {
			return position{}, fmt.Errorf("rank %d has %d files: %w", rank+1, file, errInvalidFEN)
		}
	}

	toMove := white
	if len(parts) > 1 {
		switch parts[1] {
		case "w":
		case "b":
			toMove = black
		default:
			return position{}, fmt.Errorf("invalid side to move: %s: %w", parts[1], errInvalidFEN)
		}
	}

	if len(parts) > 2 && parts[2] != "-" {
		for _, c := range parts[2] {
			owner := white
			if unicode.IsLower(c) {
				owner = black
			}
			rookFile := kingsideRookFile
			switch unicode.ToUpper(c) {
			case 'K':
			case 'Q':
				rookFile = queensideRookFile
			default:
				return position{}, fmt.Errorf("invalid castling right: %c: %w", c, errInvalidFEN)
			}
			kingSquare := squareAt(kingStartFile, homeRank(owner))
			rookSquare := squareAt(rookFile, homeRank(owner))
			if board[kingSquare]&(kindMask|colorMask) != makePiece(king, owner) ||
				board[rookSquare]&(kindMask|colorMask) != makePiece(rook, owner) {
				return position{}, fmt.Errorf("castling right %c without king and rook: %w", c, errInvalidFEN)
			}
			board[kingSquare] &^= movedFlag
			board[rookSquare] &^= movedFlag
		}
	}

	if len(parts) > 3 && parts[3] != "-" {
		target := squareFromString(parts[3])
		if !target.valid() {
			return position{}, fmt.Errorf("invalid en passant square: %s: %w", parts[3], errInvalidFEN)
		}
		passed := target.offset(0, -forward(toMove))
		piece, ok := board.occupant(passed)
		if !ok || pieceKind(piece) != pawn || pieceColor(piece) == toMove {
			return position{}, fmt.Errorf("no pawn passed %s: %w", parts[3], errInvalidFEN)
		}
		board[passed] |= passantFlag
	}
	return position{board: board, toMove: toMove}, nil
}
