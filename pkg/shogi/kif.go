package shogi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Game is a KIF game record: the initial position plus the played
// moves in USI short form.
type Game struct {
	initial   *Position
	moves     []string
	foulEnd   bool
	result    string
	winReason string
}

// Players holds the name/rating header fields of a KIF record.
type Players struct {
	SenteName   string
	SenteRating int32
	GoteName    string
	GoteRating  int32
}

var kifMoveLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s+\(`)
var kifTerminalLineRe = regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s*$`)
var kifFromSquareRe = regexp.MustCompile(`\((\d)(\d)\)`)
var kifNameRatingRe = regexp.MustCompile(`^(.+?)\((\d+)\)$`)

// LoadGame reads and parses a KIF file. Shift-JIS input is transcoded.
func LoadGame(path string) (*Game, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return nil, err
	}
	return GameFromLines(lines)
}

// GameFromLines parses already-split KIF lines.
func GameFromLines(lines []string) (*Game, error) {
	initial, err := initialPositionFromKIF(lines)
	if err != nil {
		return nil, err
	}
	moves, err := parseKIFMoves(lines)
	if err != nil {
		return nil, err
	}
	result, reason := parseKIFResult(lines)
	game := &Game{
		initial:   initial,
		moves:     moves,
		foulEnd:   reason == "反則勝ち" || reason == "反則負け",
		result:    result,
		winReason: reason,
	}
	// A foul ending means the last recorded move produced an illegal
	// position; drop it so replays stay evaluable.
	if game.foulEnd && len(game.moves) > 0 {
		game.moves = game.moves[:len(game.moves)-1]
	}
	return game, nil
}

func (g *Game) InitialPosition() *Position { return g.initial.Clone() }
func (g *Game) Moves() []string            { return append([]string(nil), g.moves...) }
func (g *Game) MoveCount() int             { return len(g.moves) }
func (g *Game) IsFoulEnd() bool            { return g.foulEnd }
func (g *Game) Result() (string, string)   { return g.result, g.winReason }

// PositionAt replays the game to the position after n moves.
func (g *Game) PositionAt(n int) (*Position, error) {
	if n < 0 || n > len(g.moves) {
		return nil, fmt.Errorf("move out of range: %d", n)
	}
	pos := g.initial.Clone()
	for i := 0; i < n; i++ {
		if err := pos.ApplyMove(g.moves[i]); err != nil {
			return nil, fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	return pos, nil
}

// LoadPlayers reads only the player header fields of a KIF file.
func LoadPlayers(path string) (Players, error) {
	lines, err := readKIFLines(path)
	if err != nil {
		return Players{}, err
	}
	return PlayersFromLines(lines), nil
}

// PlayersFromLines extracts player names and optional "(rating)"
// suffixes from the 先手/後手 headers.
func PlayersFromLines(lines []string) Players {
	var players Players
	players.SenteName, players.SenteRating = splitNameRating(kifHeaderValue(lines, "先手"))
	players.GoteName, players.GoteRating = splitNameRating(kifHeaderValue(lines, "後手"))
	return players
}

// CollectKIFFiles walks root and returns all .kif paths, sorted.
func CollectKIFFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kif") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func readKIFLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decodeKIF(data)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}
	return lines, nil
}

func decodeKIF(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS KIF")
	}
	return string(decoded), nil
}

func parseKIFMoves(lines []string) ([]string, error) {
	var moves []string
	prevDest := -1
	for i, line := range lines {
		match := kifMoveLineRe.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		token := strings.TrimSpace(match[2])
		if token == "" {
			continue
		}
		if isKIFTerminal(token) {
			break
		}
		move, dest, err := parseKIFMoveToken(token, prevDest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		moves = append(moves, move)
		prevDest = dest
	}
	return moves, nil
}

func parseKIFMoveToken(token string, prevDest int) (string, int, error) {
	work := strings.TrimSpace(token)
	dest := -1
	if strings.HasPrefix(work, "同") {
		if prevDest < 0 {
			return "", -1, errors.New("same-square move without previous destination")
		}
		dest = prevDest
		work = strings.TrimSpace(strings.TrimLeft(strings.TrimPrefix(work, "同"), " 　"))
	} else {
		runes := []rune(work)
		if len(runes) < 2 {
			return "", -1, fmt.Errorf("invalid move token %q", token)
		}
		file, ok := kifFileDigit(runes[0])
		if !ok {
			return "", -1, fmt.Errorf("invalid destination file in %q", token)
		}
		rank, ok := kifRankKanji(runes[1])
		if !ok {
			return "", -1, fmt.Errorf("invalid destination rank in %q", token)
		}
		dest = SquareIndex(file, rank)
		work = strings.TrimSpace(string(runes[2:]))
	}

	from := -1
	if m := kifFromSquareRe.FindStringSubmatch(work); m != nil {
		file := int(m[1][0] - '0')
		rank := int(m[2][0] - '0')
		from = SquareIndex(file, rank)
		work = kifFromSquareRe.ReplaceAllString(work, "")
	}

	noPromote := strings.Contains(work, "不成")
	if noPromote {
		work = strings.Replace(work, "不成", "", 1)
	}
	promote := strings.Contains(work, "成")
	if promote {
		work = strings.Replace(work, "成", "", 1)
	}
	drop := strings.Contains(work, "打")
	if drop {
		work = strings.Replace(work, "打", "", 1)
	}

	kind, alreadyPromoted, err := parseKIFPiece(work)
	if err != nil {
		return "", -1, err
	}
	if noPromote {
		promote = false
	}
	if drop {
		if alreadyPromoted {
			return "", -1, errors.New("cannot drop promoted piece")
		}
		return fmt.Sprintf("%c*%s", kind.Letter(), SquareString(dest)), dest, nil
	}
	if from < 0 {
		return "", -1, errors.New("missing source square")
	}
	usi := SquareString(from) + SquareString(dest)
	if promote {
		usi += "+"
	}
	return usi, dest, nil
}

func isKIFTerminal(token string) bool {
	switch token {
	case "投了", "中断", "持将棋", "千日手", "詰み", "切れ負け",
		"反則勝ち", "反則負け", "入玉勝ち", "勝ち宣言":
		return true
	}
	return false
}

var kifPieceNames = []struct {
	name     string
	kind     Kind
	promoted bool
}{
	{"成銀", Silver, true},
	{"成桂", Knight, true},
	{"成香", Lance, true},
	{"と", Pawn, true},
	{"馬", Bishop, true},
	{"龍", Rook, true},
	{"竜", Rook, true},
	{"王", King, false},
	{"玉", King, false},
	{"飛", Rook, false},
	{"角", Bishop, false},
	{"金", Gold, false},
	{"銀", Silver, false},
	{"桂", Knight, false},
	{"香", Lance, false},
	{"歩", Pawn, false},
}

func parseKIFPiece(text string) (Kind, bool, error) {
	clean := strings.TrimSpace(text)
	for _, def := range kifPieceNames {
		if strings.HasPrefix(clean, def.name) {
			return def.kind, def.promoted, nil
		}
	}
	return 0, false, fmt.Errorf("unknown piece in %q", text)
}

func kifFileDigit(r rune) (int, bool) {
	if r >= '1' && r <= '9' {
		return int(r - '0'), true
	}
	if r >= '１' && r <= '９' {
		return int(r-'１') + 1, true
	}
	return 0, false
}

func kifRankKanji(r rune) (int, bool) {
	for i, k := range []rune("一二三四五六七八九") {
		if r == k {
			return i + 1, true
		}
	}
	return 0, false
}

func kifHeaderValue(lines []string, key string) string {
	prefixes := []string{key + "：", key + ":"}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		for _, prefix := range prefixes {
			if strings.HasPrefix(trim, prefix) {
				return strings.TrimSpace(strings.TrimPrefix(trim, prefix))
			}
		}
	}
	return ""
}

func splitNameRating(raw string) (string, int32) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", 0
	}
	if m := kifNameRatingRe.FindStringSubmatch(raw); m != nil {
		var rating int
		_, _ = fmt.Sscanf(m[2], "%d", &rating)
		return strings.TrimSpace(m[1]), int32(rating)
	}
	return raw, 0
}

func parseKIFResult(lines []string) (string, string) {
	terminal, ply := findKIFTerminal(lines)
	if terminal == "" {
		return "unknown", ""
	}
	switch terminal {
	case "中断":
		return "abort", terminal
	case "持将棋", "千日手":
		return "draw", terminal
	case "反則勝ち", "詰み":
		return winnerAtPly(ply), terminal
	case "投了", "切れ負け", "反則負け":
		return winnerAtPly(ply + 1), terminal
	default:
		return "unknown", terminal
	}
}

func findKIFTerminal(lines []string) (string, int) {
	ply := 0
	for _, line := range lines {
		match := kifMoveLineRe.FindStringSubmatch(line)
		if match == nil {
			// Terminal markers carry no clock parenthesis.
			match = kifTerminalLineRe.FindStringSubmatch(line)
		}
		if match == nil {
			continue
		}
		token := strings.TrimSpace(match[2])
		if token == "" {
			continue
		}
		ply++
		if isKIFTerminal(token) {
			return token, ply
		}
	}
	return "", 0
}

func winnerAtPly(ply int) string {
	if ply%2 == 1 {
		return "sente_win"
	}
	return "gote_win"
}

func initialPositionFromKIF(lines []string) (*Position, error) {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "手合割") && strings.Contains(trim, "平手") {
			return ParseSFEN(InitialSFEN)
		}
	}

	boardLines := collectDiagramLines(lines)
	if len(boardLines) == 0 {
		return nil, errors.New("no board definition found")
	}
	boardField, err := parseDiagram(boardLines)
	if err != nil {
		return nil, err
	}
	turn := kifTurnToken(lines)
	hands, err := kifHandsField(lines)
	if err != nil {
		return nil, err
	}
	return ParseSFEN(fmt.Sprintf("%s %s %s 1", boardField, turn, hands))
}

func collectDiagramLines(lines []string) []string {
	var board []string
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "|") && strings.HasSuffix(trim, "|") {
			board = append(board, trim)
		}
	}
	return board
}

func parseDiagram(lines []string) (string, error) {
	if len(lines) < 9 {
		return "", fmt.Errorf("board diagram must have 9 rows, got %d", len(lines))
	}
	rows := make([]string, 0, 9)
	for i := 0; i < 9; i++ {
		row, err := parseDiagramRow(lines[i])
		if err != nil {
			return "", fmt.Errorf("row %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return strings.Join(rows, "/"), nil
}

func parseDiagramRow(line string) (string, error) {
	trim := strings.TrimSpace(line)
	trim = strings.TrimPrefix(trim, "|")
	trim = strings.TrimSuffix(trim, "|")
	runes := []rune(trim)
	var b strings.Builder
	empty := 0
	cells := 0
	flush := func() {
		if empty > 0 {
			fmt.Fprintf(&b, "%d", empty)
			empty = 0
		}
	}
	for i := 0; i < len(runes); {
		r := runes[i]
		if r == ' ' || r == '\t' || r == '　' {
			i++
			continue
		}
		if r == '・' {
			empty++
			cells++
			i++
			continue
		}
		gote := false
		if r == 'v' {
			gote = true
			i++
			if i >= len(runes) {
				return "", errors.New("dangling gote marker")
			}
		}
		token, consumed, err := parseDiagramPiece(runes[i:])
		if err != nil {
			return "", err
		}
		if gote {
			token = strings.ToLower(token)
		}
		flush()
		b.WriteString(token)
		cells++
		i += consumed
	}
	flush()
	if cells != 9 {
		return "", fmt.Errorf("expected 9 cells, got %d", cells)
	}
	return b.String(), nil
}

func parseDiagramPiece(runes []rune) (string, int, error) {
	if len(runes) == 0 {
		return "", 0, errors.New("missing piece")
	}
	switch runes[0] {
	case 'と':
		return "+P", 1, nil
	case '馬':
		return "+B", 1, nil
	case '龍', '竜':
		return "+R", 1, nil
	case '成':
		if len(runes) < 2 {
			return "", 0, errors.New("missing promoted piece")
		}
		kind, plain, err := parseKIFPiece(string(runes[1]))
		if err != nil || plain {
			return "", 0, fmt.Errorf("unknown promoted piece %c", runes[1])
		}
		return "+" + string(kind.Letter()), 2, nil
	default:
		kind, promoted, err := parseKIFPiece(string(runes[0]))
		if err != nil {
			return "", 0, err
		}
		token := string(kind.Letter())
		if promoted {
			token = "+" + token
		}
		return token, 1, nil
	}
}

func kifTurnToken(lines []string) string {
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "手番") {
			if strings.Contains(trim, "後手") {
				return "w"
			}
			if strings.Contains(trim, "先手") {
				return "b"
			}
		}
	}
	return "b"
}

func kifHandsField(lines []string) (string, error) {
	black := Hand{}
	white := Hand{}
	for _, line := range lines {
		trim := strings.TrimSpace(line)
		if strings.HasPrefix(trim, "先手の持駒") {
			if err := parseKIFHandLine(trim, black); err != nil {
				return "", err
			}
		}
		if strings.HasPrefix(trim, "後手の持駒") {
			if err := parseKIFHandLine(trim, white); err != nil {
				return "", err
			}
		}
	}
	return encodeHands(Hands{Black: black, White: white}), nil
}

func parseKIFHandLine(line string, hand Hand) error {
	parts := strings.SplitN(line, "：", 2)
	if len(parts) != 2 {
		parts = strings.SplitN(line, ":", 2)
	}
	if len(parts) != 2 {
		return fmt.Errorf("invalid hand line %q", line)
	}
	text := strings.TrimSpace(parts[1])
	if text == "なし" {
		return nil
	}
	for len(text) > 0 {
		runes := []rune(text)
		kind, promoted, err := parseKIFPiece(string(runes[0]))
		if err != nil {
			return fmt.Errorf("unknown hand piece %q", string(runes[0]))
		}
		if promoted || kind == King {
			return fmt.Errorf("invalid hand piece %q", string(runes[0]))
		}
		count, consumed := parseKIFCount(runes[1:])
		if consumed == 0 {
			count = 1
		}
		hand[kind] += count
		text = strings.TrimSpace(string(runes[1+consumed:]))
	}
	return nil
}

func parseKIFCount(runes []rune) (int, int) {
	if len(runes) == 0 {
		return 0, 0
	}
	if runes[0] >= '0' && runes[0] <= '9' {
		value, i := 0, 0
		for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
			value = value*10 + int(runes[i]-'0')
			i++
		}
		return value, i
	}
	value, consumed := 0, 0
	for consumed < len(runes) {
		n, ok := kanjiNumber(runes[consumed])
		if !ok {
			break
		}
		value = value*10 + n
		consumed++
	}
	if value == 0 {
		return 0, 0
	}
	return value, consumed
}

func kanjiNumber(r rune) (int, bool) {
	if r == '十' {
		return 10, true
	}
	return kifRankKanji(r)
}
