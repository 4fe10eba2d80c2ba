package shogi

// Color identifies the owning side of a piece. Black is the near side
// (moving toward row 0); SFEN maps Black to "b" and White to "w".
type Color int

const (
	Black Color = iota
	White
)

func (c Color) Opponent() Color {
	if c == Black {
		return White
	}
	return Black
}

func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Kind is a closed enumeration of shogi piece kinds.
type Kind int

const (
	King Kind = iota
	Rook
	Bishop
	Gold
	Silver
	Knight
	Lance
	Pawn
	kindCount
)

// HandOrder is the fixed priority order used when emitting hands in SFEN.
var HandOrder = []Kind{Rook, Bishop, Gold, Silver, Knight, Lance, Pawn}

var kindLetters = [kindCount]byte{
	King:   'K',
	Rook:   'R',
	Bishop: 'B',
	Gold:   'G',
	Silver: 'S',
	Knight: 'N',
	Lance:  'L',
	Pawn:   'P',
}

// Letter returns the uppercase SFEN letter for the kind.
func (k Kind) Letter() byte {
	if k < 0 || k >= kindCount {
		return '?'
	}
	return kindLetters[k]
}

// KindFromLetter maps an uppercase SFEN letter to its kind.
func KindFromLetter(letter byte) (Kind, bool) {
	for k, l := range kindLetters {
		if l == letter {
			return Kind(k), true
		}
	}
	return 0, false
}

var kindNames = [kindCount]string{
	King:   "玉",
	Rook:   "飛",
	Bishop: "角",
	Gold:   "金",
	Silver: "銀",
	Knight: "桂",
	Lance:  "香",
	Pawn:   "歩",
}

var promotedNames = [kindCount]string{
	Rook:   "龍",
	Bishop: "馬",
	Silver: "成銀",
	Knight: "成桂",
	Lance:  "成香",
	Pawn:   "と",
}

// DisplayName returns the Japanese name of the kind, using the promoted
// name when promoted is true and the kind has one.
func DisplayName(kind Kind, promoted bool) string {
	if kind < 0 || kind >= kindCount {
		return ""
	}
	if promoted && promotedNames[kind] != "" {
		return promotedNames[kind]
	}
	return kindNames[kind]
}

var baseValues = [kindCount]int{
	King:   0,
	Rook:   10,
	Bishop: 8,
	Gold:   6,
	Silver: 5,
	Knight: 4,
	Lance:  3,
	Pawn:   1,
}

var promotedValues = [kindCount]int{
	Rook:   12,
	Bishop: 10,
	Silver: 6,
	Knight: 6,
	Lance:  6,
	Pawn:   7,
}

// Value returns the material value used for hanging-piece ranking.
// It plays no role in legality.
func Value(kind Kind, promoted bool) int {
	if kind < 0 || kind >= kindCount {
		return 0
	}
	if promoted && promotedValues[kind] != 0 {
		return promotedValues[kind]
	}
	return baseValues[kind]
}

// CanPromote report whether the kind has a promoted form.
// King and Gold never promote.
func CanPromote(kind Kind) bool {
	switch kind {
	case Rook, Bishop, Silver, Knight, Lance, Pawn:
		return true
	default:
		return false
	}
}

// Piece is a piece instance on the board. Promotion is one-way:
// Promote sets the flag and nothing clears it.
type Piece struct {
	Kind     Kind
	Color    Color
	Promoted bool
}

// Promote marks the piece promoted. Callers must check CanPromote for
// rule compliance; Promote itself is unconditional and idempotent.
func (p *Piece) Promote() {
	p.Promoted = true
}

// Letter returns the SFEN token for the piece: lowercase for White,
// prefixed with "+" when promoted.
func (p Piece) Letter() string {
	letter := string(p.Kind.Letter())
	if p.Color == White {
		letter = string(p.Kind.Letter() + ('a' - 'A'))
	}
	if p.Promoted {
		letter = "+" + letter
	}
	return letter
}

// Template is a 5x5 movement pattern centered on the piece. Cell values:
// 0 = cannot go, 1 = single step or jump, 2 = slide. Row 0 is forward
// from the owner's perspective.
type Template [5][5]int8

var kingTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 1, 1, 1, 0},
	{0, 1, 0, 1, 0},
	{0, 1, 1, 1, 0},
	{0, 0, 0, 0, 0},
}

var rookTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 0, 2, 0, 0},
	{0, 2, 0, 2, 0},
	{0, 0, 2, 0, 0},
	{0, 0, 0, 0, 0},
}

var dragonTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 1, 2, 1, 0},
	{0, 2, 0, 2, 0},
	{0, 1, 2, 1, 0},
	{0, 0, 0, 0, 0},
}

var bishopTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 2, 0, 2, 0},
	{0, 0, 0, 0, 0},
	{0, 2, 0, 2, 0},
	{0, 0, 0, 0, 0},
}

var horseTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 2, 1, 2, 0},
	{0, 1, 0, 1, 0},
	{0, 2, 1, 2, 0},
	{0, 0, 0, 0, 0},
}

var goldTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 1, 1, 1, 0},
	{0, 1, 0, 1, 0},
	{0, 0, 1, 0, 0},
	{0, 0, 0, 0, 0},
}

var silverTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 1, 1, 1, 0},
	{0, 0, 0, 0, 0},
	{0, 1, 0, 1, 0},
	{0, 0, 0, 0, 0},
}

var knightTemplate = Template{
	{0, 1, 0, 1, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
}

var lanceTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 0, 2, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
}

var pawnTemplate = Template{
	{0, 0, 0, 0, 0},
	{0, 0, 1, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
	{0, 0, 0, 0, 0},
}

var baseTemplates = [kindCount]Template{
	King:   kingTemplate,
	Rook:   rookTemplate,
	Bishop: bishopTemplate,
	Gold:   goldTemplate,
	Silver: silverTemplate,
	Knight: knightTemplate,
	Lance:  lanceTemplate,
	Pawn:   pawnTemplate,
}

var promotedTemplates = [kindCount]Template{
	Rook:   dragonTemplate,
	Bishop: horseTemplate,
	Silver: goldTemplate,
	Knight: goldTemplate,
	Lance:  goldTemplate,
	Pawn:   goldTemplate,
}

// MovementTemplate returns the movement pattern for the given kind and
// promotion state, rotated 180 degrees when the owner is White.
func MovementTemplate(kind Kind, promoted bool, color Color) Template {
	if kind < 0 || kind >= kindCount {
		return Template{}
	}
	tmpl := baseTemplates[kind]
	if promoted && CanPromote(kind) {
		tmpl = promotedTemplates[kind]
	}
	if color == White {
		tmpl = rotate180(tmpl)
	}
	return tmpl
}

func rotate180(t Template) Template {
	var out Template
	for r := 0; r < 5; r++ {
		for c := 0; c < 5; c++ {
			out[r][c] = t[4-r][4-c]
		}
	}
	return out
}
