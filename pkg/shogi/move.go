package shogi

import (
	"fmt"
	"regexp"
	"strings"
)

// Move is a parsed USI short move: either a board move from one square
// to another (optionally promoting), or a drop of a hand piece.
type Move struct {
	From    int
	To      int
	IsDrop  bool
	Drop    Kind
	Promote bool
}

// ParseMove parses a USI short move: "<from><to>[+]" or "<kind>*<to>".
func ParseMove(text string) (Move, error) {
	if strings.Contains(text, "*") {
		parts := strings.SplitN(text, "*", 2)
		if len(parts[0]) != 1 {
			return Move{}, fmt.Errorf("invalid drop move %q", text)
		}
		kind, ok := KindFromLetter(upperByte(parts[0][0]))
		if !ok || kind == King {
			return Move{}, fmt.Errorf("invalid drop piece in %q", text)
		}
		to, err := parseUSISquare(parts[1])
		if err != nil {
			return Move{}, err
		}
		return Move{From: -1, To: to, IsDrop: true, Drop: kind}, nil
	}
	if len(text) < 4 {
		return Move{}, fmt.Errorf("invalid move %q", text)
	}
	from, err := parseUSISquare(text[0:2])
	if err != nil {
		return Move{}, err
	}
	to, err := parseUSISquare(text[2:4])
	if err != nil {
		return Move{}, err
	}
	promote := false
	if len(text) > 4 {
		if text[4:] != "+" {
			return Move{}, fmt.Errorf("invalid promotion marker in %q", text)
		}
		promote = true
	}
	return Move{From: from, To: to, Promote: promote}, nil
}

// String renders the move back to USI short form.
func (m Move) String() string {
	if m.IsDrop {
		return fmt.Sprintf("%c*%s", m.Drop.Letter(), SquareString(m.To))
	}
	text := SquareString(m.From) + SquareString(m.To)
	if m.Promote {
		text += "+"
	}
	return text
}

func parseUSISquare(text string) (int, error) {
	if len(text) != 2 {
		return 0, fmt.Errorf("invalid square %q", text)
	}
	file := int(text[0] - '0')
	rank := int(text[1]-'a') + 1
	idx := SquareIndex(file, rank)
	if idx < 0 {
		return 0, fmt.Errorf("invalid square %q", text)
	}
	return idx, nil
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// ToFullMove enriches a USI short move with the moving piece's letter
// and a capture marker, looked up from the SFEN position the move was
// played from: "7g7f" becomes "P7g-7f", a capture "2b8h+" becomes
// "B2bx8h+". Drops pass through unchanged. This is best-effort
// enrichment for commentary: any unresolvable lookup returns the input
// unchanged.
func ToFullMove(shortMove, sfen string) string {
	if strings.Contains(shortMove, "*") {
		return shortMove
	}
	move, err := ParseMove(shortMove)
	if err != nil {
		return shortMove
	}
	pos, err := ParseSFEN(sfen)
	if err != nil {
		return shortMove
	}
	piece := pos.board.At(move.From)
	if piece == nil {
		return shortMove
	}
	marker := "-"
	if target := pos.board.At(move.To); target != nil && target.Color != piece.Color {
		marker = "x"
	}
	letter := string(piece.Kind.Letter())
	if piece.Promoted {
		letter = "+" + letter
	}
	suffix := ""
	if move.Promote {
		suffix = "+"
	}
	return fmt.Sprintf("%s%s%s%s%s", letter, SquareString(move.From), marker, SquareString(move.To), suffix)
}

var fullMoveRe = regexp.MustCompile(`^(\+?)([PLNSGBRK])([1-9][a-i])([x-])([1-9][a-i])(\+?)$`)
var fullDropRe = regexp.MustCompile(`^([PLNSGBR])\*([1-9][a-i])$`)

var fullwidthDigits = []string{"", "１", "２", "３", "４", "５", "６", "７", "８", "９"}
var kanjiDigits = []string{"", "一", "二", "三", "四", "五", "六", "七", "八", "九"}

// ToLocalizedMove renders a full disambiguated move as Japanese move
// text: destination square, piece name (promoted name when the mover is
// promoted), "同" when the destination repeats the previous move's
// destination, "打" for drops, and an origin annotation for board
// moves. Returns "" when the input cannot be parsed; callers treat the
// empty string as "no rendering available".
func ToLocalizedMove(fullMove, previousFullMove string) string {
	if m := fullDropRe.FindStringSubmatch(fullMove); m != nil {
		kind, ok := KindFromLetter(m[1][0])
		if !ok {
			return ""
		}
		to, err := parseUSISquare(m[2])
		if err != nil {
			return ""
		}
		return destinationText(to, previousFullMove) + DisplayName(kind, false) + "打"
	}
	m := fullMoveRe.FindStringSubmatch(fullMove)
	if m == nil {
		return ""
	}
	kind, ok := KindFromLetter(m[2][0])
	if !ok {
		return ""
	}
	from, err := parseUSISquare(m[3])
	if err != nil {
		return ""
	}
	to, err := parseUSISquare(m[5])
	if err != nil {
		return ""
	}
	name := DisplayName(kind, m[1] == "+")
	if m[6] == "+" {
		name += "成"
	}
	fromFile, fromRank := FileRank(from)
	return fmt.Sprintf("%s%s(%d%d)", destinationText(to, previousFullMove), name, fromFile, fromRank)
}

func destinationText(to int, previousFullMove string) string {
	if prev, ok := fullMoveDestination(previousFullMove); ok && prev == to {
		return "同　"
	}
	file, rank := FileRank(to)
	return fullwidthDigits[file] + kanjiDigits[rank]
}

func fullMoveDestination(fullMove string) (int, bool) {
	var square string
	if m := fullDropRe.FindStringSubmatch(fullMove); m != nil {
		square = m[2]
	} else if m := fullMoveRe.FindStringSubmatch(fullMove); m != nil {
		square = m[5]
	} else {
		return 0, false
	}
	idx, err := parseUSISquare(square)
	if err != nil {
		return 0, false
	}
	return idx, true
}
