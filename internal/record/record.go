// Package record writes analyzed game records to parquet for offline
// study tooling.
package record

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

// MoveEval is one evaluated ply: engine score, best move, and the
// number of hanging pieces the side to move had before the move.
type MoveEval struct {
	Ply        int32  `parquet:"name=ply, type=INT32"`
	ScoreType  string `parquet:"name=score_type, type=BYTE_ARRAY, convertedtype=UTF8"`
	ScoreValue int32  `parquet:"name=score_value, type=INT32"`
	BestMove   string `parquet:"name=best_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	Hanging    int32  `parquet:"name=hanging, type=INT32"`
}

// GameRecord is one fully annotated game.
type GameRecord struct {
	GameID      string     `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	SenteName   string     `parquet:"name=sente_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	SenteRating int32      `parquet:"name=sente_rating, type=INT32"`
	GoteName    string     `parquet:"name=gote_name, type=BYTE_ARRAY, convertedtype=UTF8"`
	GoteRating  int32      `parquet:"name=gote_rating, type=INT32"`
	Result      string     `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	WinReason   string     `parquet:"name=win_reason, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount   int32      `parquet:"name=move_count, type=INT32"`
	MoveEvals   []MoveEval `parquet:"name=move_evals, type=LIST"`
}

type schemaFile struct {
	Name   string        `json:"name"`
	Fields []schemaField `json:"fields"`
}

type schemaField struct {
	Name     string      `json:"name"`
	Type     interface{} `json:"type"`
	Nullable bool        `json:"nullable"`
}

const schemaPath = "schema/parquet_schema.json"

// Write streams records into a snappy-compressed parquet file. The
// record struct is validated against the checked-in schema first so
// downstream readers notice drift at write time, not read time.
func Write(path string, records <-chan GameRecord, parallel int64) error {
	schema, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}
	if err := validateSchema(schema, GameRecord{}); err != nil {
		return err
	}

	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return err
	}
	defer fileWriter.Close()

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRecord), parallel)
	if err != nil {
		return err
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for record := range records {
		if err := parquetWriter.Write(record); err != nil {
			return err
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		return err
	}
	return fileWriter.Close()
}

func loadSchema(path string) (schemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schemaFile{}, err
	}
	var schema schemaFile
	if err := json.Unmarshal(data, &schema); err != nil {
		return schemaFile{}, err
	}
	return schema, nil
}

func validateSchema(schema schemaFile, sample any) error {
	declared := make(map[string]struct{}, len(schema.Fields))
	for _, field := range schema.Fields {
		declared[field.Name] = struct{}{}
	}
	actual := structFieldNames(sample)
	missing := diffKeys(declared, actual)
	extra := diffKeys(actual, declared)
	if len(missing) > 0 || len(extra) > 0 {
		return fmt.Errorf("parquet schema mismatch: missing=%v extra=%v", missing, extra)
	}
	return nil
}

func structFieldNames(sample any) map[string]struct{} {
	fields := map[string]struct{}{}
	t := reflect.TypeOf(sample)
	for i := 0; i < t.NumField(); i++ {
		if name := tagName(t.Field(i).Tag.Get("parquet")); name != "" {
			fields[name] = struct{}{}
		}
	}
	return fields
}

func tagName(tag string) string {
	for _, part := range strings.Split(tag, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) == 2 && kv[0] == "name" {
			return kv[1]
		}
	}
	return ""
}

func diffKeys(a, b map[string]struct{}) []string {
	var diff []string
	for key := range a {
		if _, ok := b[key]; !ok {
			diff = append(diff, key)
		}
	}
	return diff
}
