package metrics

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

type DecisionRecord struct {
	Decision int
	Player   int
	Action   string // Empty when no action could be recommended
	SearchMetric
}

type Writer struct {
	baseDir string
}

// NewWriter creates a subfolder of dir named by the current timestamp
func NewWriter(dir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(dir, timestamp)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create directory")
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string { return w.baseDir }

func (w *Writer) WriteDecisionRecords(records []DecisionRecord) error {
	path := filepath.Join(w.baseDir, "decisions.csv")
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create decision records file")
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	header := []string{"decision", "player", "action", "start_time", "duration", "episodes", "full_playouts", "expansions", "nodes"}
	if err := writer.Write(header); err != nil {
		return errors.Wrap(err, "failed to write decision records header")
	}

	for _, record := range records {
		row := []string{
			strconv.Itoa(record.Decision),
			strconv.Itoa(record.Player),
			record.Action,
			record.StartTime.Format(time.RFC3339),
			record.Duration.String(),
			strconv.Itoa(record.Episodes),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.Expansions),
			strconv.Itoa(record.Nodes),
		}
		if err := writer.Write(row); err != nil {
			return errors.Wrap(err, "failed to write decision record row")
		}
	}

	writer.Flush()
	return errors.Wrap(writer.Error(), "failed to flush decision records")
}
