package results

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrBusy is returned when another writer holds the busy flag for too long.
var ErrBusy = errors.New("results: file is busy")

const busySuffix = ".bsy"

// Store saves simulation counters into one result file. Concurrent writers,
// possibly in other processes, are serialized by a "<path>.bsy" flag file.
type Store struct {
	Path string
	// BusyWait bounds the wait for a foreign busy flag; BusyPoll is the
	// interval between checks.
	BusyWait time.Duration
	BusyPoll time.Duration
}

func NewStore(path string) *Store {
	return &Store{Path: path, BusyWait: 30 * time.Second, BusyPoll: time.Second}
}

func (s *Store) busyPath() string { return s.Path + busySuffix }

func (s *Store) lock() error {
	deadline := time.Now().Add(s.BusyWait)
	for {
		f, err := os.OpenFile(s.busyPath(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			_, err = f.WriteString("Busy")
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			return err
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("results: create busy flag: %w", err)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %s", ErrBusy, s.busyPath())
		}
		time.Sleep(s.BusyPoll)
	}
}

func (s *Store) unlock() { _ = os.Remove(s.busyPath()) }

// Save adds deltas to the stored counters and rewrites the file. Rows with no
// new trials are skipped. The code parameters n and k replace the stored ones.
func (s *Store) Save(n, k int, deltas []Row) (*File, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.unlock()

	f, err := Read(s.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = &File{}
	case err != nil:
		return nil, err
	}
	f.N, f.K = n, k
	for _, d := range deltas {
		if d.Trials == 0 {
			continue
		}
		f.Merge(d.SNR, d.Point)
	}
	var b bytes.Buffer
	if _, err := f.WriteTo(&b); err != nil {
		return nil, err
	}
	if err := os.WriteFile(s.Path, b.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return f, nil
}
