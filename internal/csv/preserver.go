package csv

import (
	"context"
	stdcsv "encoding/csv"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/scrapeworks/harvester/internal"
)

// Mode controls how a flush treats the destination file.
type Mode string

const (
	// ModeTruncate recreates the destination wholesale, header included.
	ModeTruncate Mode = "truncate"
	// ModeAppend adds rows to the destination, writing the header only when
	// the file has no existing content.
	ModeAppend Mode = "append"
)

type Option func(*Preserver)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Preserver) {
		p.logger = logger
	}
}

// Preserver writes batches of records to one CSV file. The header row is
// taken from the first record of the first batch that reaches the file;
// every later batch is written positionally against it, so the field set
// must stay identical across batches.
type Preserver struct {
	path   string
	logger *zap.Logger
}

func New(path string, opts ...Option) *Preserver {
	p := &Preserver{
		path:   path,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Preserver) Path() string {
	return p.path
}

// Flush writes records to the destination and returns how many were written.
// An empty batch is a no-op and leaves the file untouched.
func (p *Preserver) Flush(ctx context.Context, records []*internal.Record, mode Mode) (int, error) {
	if len(records) == 0 {
		p.logger.Warn("no records to flush", zap.String("path", p.path))
		return 0, nil
	}

	header := true
	flag := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if mode == ModeAppend {
		flag = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		header = p.needsHeader()
	}

	f, err := os.OpenFile(p.path, flag, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", p.path, err)
	}
	defer f.Close()

	w := stdcsv.NewWriter(f)
	if header {
		if err := w.Write(records[0].Fields()); err != nil {
			return 0, fmt.Errorf("writing header to %s: %w", p.path, err)
		}
	}
	for _, r := range records {
		if err := w.Write(r.Values()); err != nil {
			return 0, fmt.Errorf("writing record to %s: %w", p.path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, fmt.Errorf("flushing %s: %w", p.path, err)
	}

	p.logger.Info("records preserved",
		zap.String("path", p.path),
		zap.Int("records", len(records)),
		zap.String("mode", string(mode)),
	)
	return len(records), nil
}

// needsHeader probes whether the destination already has content. The probe
// and the subsequent write are not atomic with respect to other writers;
// persistence here is best effort, not transactional.
func (p *Preserver) needsHeader() bool {
	info, err := os.Stat(p.path)
	if err != nil {
		return true
	}
	return info.Size() == 0
}
