// stats summarizes an annotate output file: how often positions had
// hanging pieces, and how the evaluation moved afterwards.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	"github.com/MagicaScript/Shogi-Instructor/internal/record"
)

type swingStats struct {
	count int
	sum   int64
	max   int
}

func (s *swingStats) add(delta int) {
	if delta < 0 {
		delta = -delta
	}
	s.count++
	s.sum += int64(delta)
	if delta > s.max {
		s.max = delta
	}
}

func (s *swingStats) mean() int64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / int64(s.count)
}

func main() {
	inputPath := flag.String("input", "output.parquet", "input parquet file")
	parallel := flag.Int64("parallel", 4, "parquet read parallelism")
	flag.Parse()

	records, err := readParquet(*inputPath, *parallel)
	if err != nil {
		fatal(err)
	}
	if len(records) == 0 {
		fatal(fmt.Errorf("no records in %s", *inputPath))
	}

	totalPlies := 0
	pliesWithHanging := 0
	hangingDist := make(map[int]int)
	withHanging := &swingStats{}
	withoutHanging := &swingStats{}

	for _, rec := range records {
		evals := rec.MoveEvals
		for i, eval := range evals {
			totalPlies++
			hangingDist[int(eval.Hanging)]++
			if eval.Hanging > 0 {
				pliesWithHanging++
			}
			if i+1 >= len(evals) {
				continue
			}
			next := evals[i+1]
			if eval.ScoreType != "cp" || next.ScoreType != "cp" {
				continue
			}
			delta := int(next.ScoreValue - eval.ScoreValue)
			if eval.Hanging > 0 {
				withHanging.add(delta)
			} else {
				withoutHanging.add(delta)
			}
		}
	}

	fmt.Printf("input parquet: %s\n", *inputPath)
	fmt.Printf("games: %d\n", len(records))
	fmt.Printf("plies: %d (with hanging pieces: %d)\n", totalPlies, pliesWithHanging)
	fmt.Printf("eval swing after ply, mean cp: hanging=%d clean=%d\n",
		withHanging.mean(), withoutHanging.mean())
	fmt.Printf("eval swing after ply, max cp: hanging=%d clean=%d\n",
		withHanging.max, withoutHanging.max)
	fmt.Println("hanging count distribution:")
	keys := make([]int, 0, len(hangingDist))
	for key := range hangingDist {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	for _, key := range keys {
		fmt.Printf("%d,%d\n", key, hangingDist[key])
	}
}

func readParquet(path string, parallel int64) ([]record.GameRecord, error) {
	absPath := path
	if !filepath.IsAbs(path) {
		if resolved, err := filepath.Abs(path); err == nil {
			absPath = resolved
		}
	}
	fileReader, err := local.NewLocalFileReader(absPath)
	if err != nil {
		return nil, err
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(record.GameRecord), parallel)
	if err != nil {
		return nil, err
	}
	defer parquetReader.ReadStop()

	num := int(parquetReader.GetNumRows())
	records := make([]record.GameRecord, 0, num)
	batchSize := 1024
	for offset := 0; offset < num; offset += batchSize {
		remain := num - offset
		if remain < batchSize {
			batchSize = remain
		}
		batch := make([]record.GameRecord, batchSize)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	return records, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
