package main

type color uint8

const (
	white color = iota
	black
)

func (c color) opposite() color {
	return c ^ 1
}

func (c color) String() string {
	if c == black {
		return "black"
	}
	return "white"
}

const (
	zero   uint8 = iota << 1
	bishop uint8 = iota << 1
	king   uint8 = iota << 1
	knight uint8 = iota << 1
	pawn   uint8 = iota << 1
	queen  uint8 = iota << 1
	rook   uint8 = iota << 1
)

const (
	colorMask   uint8 = 0x01
	kindMask    uint8 = 0x0E
	movedFlag   uint8 = 0x10
	passantFlag uint8 = 0x20
)

var initialBoard = chessState{
	rook, knight, bishop, queen, king, bishop, knight, rook,
	pawn, pawn, pawn, pawn, pawn, pawn, pawn, pawn,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0,
	pawn | 1, pawn | 1, pawn | 1, pawn | 1, pawn | 1, pawn | 1, pawn | 1, pawn | 1,
	rook | 1, knight | 1, bishop | 1, queen | 1, king | 1, bishop | 1, knight | 1, rook | 1,
}

var kindToSymbol = map[uint8]rune{
	bishop: 'B',
	king:   'K',
	knight: 'N',
	pawn:   'P',
	queen:  'Q',
	rook:   'R',
}

var symbolToKind = map[rune]uint8{
	'B': bishop,
	'K': king,
	'N': knight,
	'P': pawn,
	'Q': queen,
	'R': rook,
}

var valueToPieceWhite = map[uint8]rune{
	bishop: '♗',
	king:   '♔',
	knight: '♘',
	pawn:   '♙',
	queen:  '♕',
	rook:   '♖',
}

var valueToPieceBlack = map[uint8]rune{
	bishop: '♝',
	king:   '♚',
	knight: '♞',
	pawn:   '♟',
	queen:  '♛',
	rook:   '♜',
}

var (
	knightJumps    = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps      = [][2]int{{1, 1}, {1, 0}, {1, -1}, {0, 1}, {0, -1}, {-1, 1}, {-1, 0}, {-1, -1}}
	bishopRays     = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookRays       = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	promotionKinds = []uint8{queen, rook, bishop, knight}
)

const (
	kingStartFile     = 4
	kingsideRookFile  = 7
	queensideRookFile = 0
)
