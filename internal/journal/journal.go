// Package journal is the dead-letter file for audit entries that could not be
// committed to the store. Each entry is one JSON line compressed as its own
// zstd frame and appended to the file, so a crash mid-write loses at most the
// entry being written and the file stays readable as one zstd stream.
//
// The file is shared between processes: `peekd serve` appends while
// `peekd reconcile` replays. Appends and the replay claim are serialized with
// an advisory lock on a sibling ".lock" file.
package journal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
	"github.com/gofrs/flock"
	"github.com/klauspost/compress/zstd"

	"github.com/duynhne/peek-service/internal/core/domain"
)

const (
	maxLineSize = 1 << 20

	lockSuffix       = ".lock"
	replayLockSuffix = ".replay.lock"
	replayingSuffix  = ".replaying"
)

// ErrReplayInProgress is returned by Replay when another replay holds the journal.
var ErrReplayInProgress = errors.New("journal replay already in progress")

// Journal appends and replays dead-lettered peek records.
type Journal struct {
	mu         sync.Mutex
	path       string
	fileLock   *flock.Flock
	replayLock *flock.Flock
	enc        *zstd.Encoder
}

// Open prepares a journal at path. The file is created on first append.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	return &Journal{
		path:       path,
		fileLock:   flock.New(path + lockSuffix),
		replayLock: flock.New(path + replayLockSuffix),
		enc:        enc,
	}, nil
}

// Path returns the journal file location.
func (j *Journal) Path() string { return j.path }

func (j *Journal) replayingPath() string { return j.path + replayingSuffix }

// locked runs fn while holding both the in-process mutex and the file lock.
func (j *Journal) locked(fn func() error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.fileLock.Lock(); err != nil {
		return fmt.Errorf("lock journal: %w", err)
	}
	defer func() { _ = j.fileLock.Unlock() }()
	return fn()
}

func (j *Journal) encode(recs ...*domain.PeekRecord) ([]byte, error) {
	var out []byte
	for _, rec := range recs {
		line, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record: %w", err)
		}
		out = j.enc.EncodeAll(append(line, '\n'), out)
	}
	return out, nil
}

// Append durably writes rec to the end of the journal.
func (j *Journal) Append(rec *domain.PeekRecord) error {
	frame, err := j.encode(rec)
	if err != nil {
		return err
	}
	return j.locked(func() error { return appendFrames(j.path, frame) })
}

func appendFrames(path string, frames []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	if _, err := f.Write(frames); err != nil {
		f.Close()
		return fmt.Errorf("write journal: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync journal: %w", err)
	}
	return f.Close()
}

// ReadAll returns every pending record, oldest first: those claimed by an
// unfinished replay, then the live journal. A missing file is an empty journal.
func (j *Journal) ReadAll() ([]domain.PeekRecord, error) {
	var out []domain.PeekRecord
	err := j.locked(func() error {
		for _, p := range []string{j.replayingPath(), j.path} {
			recs, err := readFile(p)
			if err != nil {
				return err
			}
			out = append(out, recs...)
		}
		return nil
	})
	return out, err
}

func readFile(path string) ([]domain.PeekRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	var out []domain.PeekRecord
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		var rec domain.PeekRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return out, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}

// Replay feeds every record to fn. Records fn accepts are dropped; the rest
// are appended back to the live journal so a later replay can retry them.
// It returns the number of records accepted.
//
// The live file is claimed by renaming it aside under the file lock, so
// records appended by other processes during the replay land in a fresh
// journal and are never touched by this run. A claimed file left behind by an
// interrupted replay is drained first.
func (j *Journal) Replay(ctx context.Context, fn func(context.Context, *domain.PeekRecord) error) (int, error) {
	ok, err := j.replayLock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("lock journal replay: %w", err)
	}
	if !ok {
		return 0, ErrReplayInProgress
	}
	defer func() { _ = j.replayLock.Unlock() }()

	side := j.replayingPath()
	var replayed int
	if _, err := os.Stat(side); err == nil {
		n, err := j.drain(ctx, side, fn)
		replayed += n
		if err != nil {
			return replayed, err
		}
	}

	claimed := false
	err = j.locked(func() error {
		err := os.Rename(j.path, side)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("claim journal: %w", err)
		}
		claimed = true
		return nil
	})
	if err != nil || !claimed {
		return replayed, err
	}

	n, err := j.drain(ctx, side, fn)
	return replayed + n, err
}

// drain replays the claimed file at side, requeues failures onto the live
// journal and removes side. On a requeue error side is kept for the next run.
func (j *Journal) drain(ctx context.Context, side string, fn func(context.Context, *domain.PeekRecord) error) (int, error) {
	recs, err := readFile(side)
	if err != nil {
		return 0, err
	}

	var (
		replayed int
		failed   []*domain.PeekRecord
		errs     []error
	)
	for i := range recs {
		if ctx.Err() != nil {
			for k := i; k < len(recs); k++ {
				failed = append(failed, &recs[k])
			}
			errs = append(errs, ctx.Err())
			break
		}
		if err := fn(ctx, &recs[i]); err != nil {
			failed = append(failed, &recs[i])
			errs = append(errs, fmt.Errorf("record %s: %w", recs[i].ID, err))
			continue
		}
		replayed++
	}

	if len(failed) > 0 {
		frames, err := j.encode(failed...)
		if err != nil {
			return replayed, err
		}
		if err := j.locked(func() error { return appendFrames(j.path, frames) }); err != nil {
			return replayed, fmt.Errorf("requeue failed records: %w", err)
		}
	}
	if err := os.Remove(side); err != nil && !errors.Is(err, os.ErrNotExist) {
		return replayed, fmt.Errorf("remove replayed journal: %w", err)
	}
	return replayed, errors.Join(errs...)
}

// Close releases the encoder and lock handles.
func (j *Journal) Close() error {
	return errors.Join(j.enc.Close(), j.fileLock.Close(), j.replayLock.Close())
}
