package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"pairchat/internal"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record prefixes a user can ask for; index keys are shown raw.
var knownPrefixes = []string{"user:", "username:", "conv:", "pair:", "member:", "msg:", "msgref:"}

func main() {
	_ = godotenv.Load()
	var config internal.Config
	_, _ = env.UnmarshalFromEnviron(&config)

	dbPath := flag.String("db", config.BadgerFilepath, "Path to badger DB")
	prefix := flag.String("prefix", "conv:", "Prefix to scan ("+strings.Join(knownPrefixes, " ")+")")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("No database path: set BADGER_FILEPATH or pass -db")
	}

	// BypassLockGuard allows opening while the server holds the lock
	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Created", "Detail"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				created, detail := describe(v)
				table.Append([]string{key, created, detail})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	color.Cyan.Printf("%d record(s) under %q in %s\n\n", count, *prefix, *dbPath)
	table.Render()
}

// describe renders a stored value. Password hashes are never printed.
func describe(v []byte) (string, string) {
	if len(v) == 0 {
		return "-", "(index)"
	}
	if !bytes.HasPrefix(v, []byte("{")) {
		return "-", string(v)
	}

	var record map[string]any
	if err := json.Unmarshal(v, &record); err != nil {
		return "-", color.Red.Sprintf("unreadable: %v", err)
	}

	created := "-"
	for _, field := range []string{"created_at", "at"} {
		if n, ok := record[field].(float64); ok {
			created = time.Unix(0, int64(n)).UTC().Format(time.RFC3339)
			delete(record, field)
		}
	}
	delete(record, "password_hash")

	parts := make([]string, 0, len(record))
	for k, val := range record {
		parts = append(parts, fmt.Sprintf("%s=%v", k, val))
	}
	return created, strings.Join(parts, " ")
}
