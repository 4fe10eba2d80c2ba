package shogi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseSFEN decodes SFEN text into a Position. The input has three or
// four whitespace-separated fields: board, turn ("b"/"w"), hands, and an
// optional move number (default 1). Malformed input is rejected with a
// descriptive error so a corrupted position never reaches the rules
// engine.
func ParseSFEN(text string) (*Position, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 || len(fields) > 4 {
		return nil, fmt.Errorf("sfen must have 3 or 4 fields, got %d", len(fields))
	}
	pos := NewPosition()
	if err := parseBoardField(fields[0], pos); err != nil {
		return nil, err
	}
	switch fields[1] {
	case "b":
		pos.turn = Black
	case "w":
		pos.turn = White
	default:
		return nil, fmt.Errorf("invalid turn token %q", fields[1])
	}
	if err := parseHandsField(fields[2], pos); err != nil {
		return nil, err
	}
	if len(fields) == 4 {
		n, err := strconv.Atoi(fields[3])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid move number %q", fields[3])
		}
		pos.moveNumber = n
	}
	return pos, nil
}

func parseBoardField(text string, pos *Position) error {
	ranks := strings.Split(text, "/")
	if len(ranks) != 9 {
		return fmt.Errorf("board must have 9 ranks, got %d", len(ranks))
	}
	for rankIdx, rankText := range ranks {
		col := 0
		runes := []rune(rankText)
		for i := 0; i < len(runes); i++ {
			r := runes[i]
			if r >= '1' && r <= '9' {
				col += int(r - '0')
				continue
			}
			promoted := false
			if r == '+' {
				promoted = true
				i++
				if i >= len(runes) {
					return fmt.Errorf("rank %d: dangling promotion marker", rankIdx+1)
				}
				r = runes[i]
			}
			color := Black
			if r >= 'a' && r <= 'z' {
				color = White
				r = r - 'a' + 'A'
			}
			kind, ok := KindFromLetter(byte(r))
			if !ok {
				return fmt.Errorf("rank %d: unknown piece letter %q", rankIdx+1, string(r))
			}
			if promoted && !CanPromote(kind) {
				return fmt.Errorf("rank %d: %c has no promoted form", rankIdx+1, kind.Letter())
			}
			if col >= 9 {
				return fmt.Errorf("rank %d has more than 9 cells", rankIdx+1)
			}
			pos.board[rankIdx*9+col] = &Piece{Kind: kind, Color: color, Promoted: promoted}
			col++
		}
		if col != 9 {
			return fmt.Errorf("rank %d has %d cells, want 9", rankIdx+1, col)
		}
	}
	return nil
}

func parseHandsField(text string, pos *Position) error {
	if text == "-" {
		return nil
	}
	count := 0
	counted := false
	for _, r := range text {
		if r >= '0' && r <= '9' {
			count = count*10 + int(r-'0')
			counted = true
			continue
		}
		if r == '+' {
			return errors.New("hands cannot hold promoted pieces")
		}
		color := Black
		if r >= 'a' && r <= 'z' {
			color = White
			r = r - 'a' + 'A'
		}
		kind, ok := KindFromLetter(byte(r))
		if !ok {
			return fmt.Errorf("unknown hand piece %q", string(r))
		}
		if kind == King {
			return errors.New("king cannot be held in hand")
		}
		if counted && count < 1 {
			return fmt.Errorf("non-positive hand count for %c", kind.Letter())
		}
		if !counted {
			count = 1
		}
		pos.hands[color][kind] += count
		count = 0
		counted = false
	}
	if counted {
		return errors.New("trailing hand count")
	}
	return nil
}

// ToSFEN encodes the position back to SFEN text: run-length-encoded
// empty cells, "+" for promoted pieces, lowercase for White, hands in
// fixed R B G S N L P order with Black's hand first.
func (p *Position) ToSFEN() string {
	var ranks []string
	for rank := 0; rank < 9; rank++ {
		ranks = append(ranks, p.rankToSFEN(rank))
	}
	turn := "b"
	if p.turn == White {
		turn = "w"
	}
	p.ensureHands()
	hands := encodeHands(p.hands)
	return fmt.Sprintf("%s %s %s %d", strings.Join(ranks, "/"), turn, hands, p.moveNumber)
}

func (p *Position) rankToSFEN(rank int) string {
	var b strings.Builder
	empty := 0
	flush := func() {
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
			empty = 0
		}
	}
	for col := 0; col < 9; col++ {
		piece := p.board[rank*9+col]
		if piece == nil {
			empty++
			continue
		}
		flush()
		b.WriteString(piece.Letter())
	}
	flush()
	return b.String()
}

func encodeHands(hands Hands) string {
	var b strings.Builder
	for _, color := range []Color{Black, White} {
		for _, kind := range HandOrder {
			count := hands[color][kind]
			if count <= 0 {
				continue
			}
			if count > 1 {
				b.WriteString(strconv.Itoa(count))
			}
			letter := kind.Letter()
			if color == White {
				letter += 'a' - 'A'
			}
			b.WriteByte(letter)
		}
	}
	if b.Len() == 0 {
		return "-"
	}
	return b.String()
}
