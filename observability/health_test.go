package observability

import (
	"os"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestHealthReporter_Report(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)

	reporter, err := NewHealthReporter(db)
	req.NoError(err)

	report, err := reporter.Report()
	req.NoError(err)
	req.Equal("ok", report.Status)
	req.Equal(int32(os.Getpid()), report.PID)
	req.NotZero(report.RSSBytes)
	req.Positive(report.Goroutines)

	req.NoError(db.Close())
	_, err = reporter.Report()
	req.Error(err)
}
