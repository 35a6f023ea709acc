package results

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
	"time"
)

const (
	// LatestName is overwritten by every successful run.
	LatestName = "news_results_latest.json"

	filePrefix      = "news_results_"
	timestampLayout = "20060102_150405"
	maxCollisions   = 1000
)

var timestampedName = regexp.MustCompile(`^news_results_\d{8}_\d{6}(_\d{3})?\.json$`)

// ErrNotFound is returned when a requested result file does not exist or is
// not part of the output contract.
var ErrNotFound = errors.New("result file not found")

// Paths are the two files written by one successful save.
type Paths struct {
	Latest      string
	Timestamped string
}

// Entry describes one timestamped result file.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// Store persists raw response bodies as flat JSON files in one directory.
type Store struct {
	dir string
}

// NewStore creates the output directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the output directory.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes body verbatim to a new timestamped file and then replaces the
// latest file. Either both files reflect body afterwards, or neither was
// touched.
func (s *Store) Save(body []byte, now time.Time) (Paths, error) {
	stamped, err := s.writeTimestamped(body, now)
	if err != nil {
		return Paths{}, err
	}

	latest := filepath.Join(s.dir, LatestName)
	if err := writeFileAtomic(latest, body, 0o644); err != nil {
		_ = os.Remove(stamped)
		return Paths{}, fmt.Errorf("write %s: %w", LatestName, err)
	}

	return Paths{Latest: latest, Timestamped: stamped}, nil
}

// writeTimestamped links a fully written temp file under the first free
// timestamped name, so an existing file is never overwritten.
func (s *Store) writeTimestamped(body []byte, now time.Time) (string, error) {
	tmpName, err := writeTemp(s.dir, filePrefix, body, 0o644)
	if err != nil {
		return "", fmt.Errorf("write temp result: %w", err)
	}
	defer os.Remove(tmpName)

	for seq := 0; seq < maxCollisions; seq++ {
		path := filepath.Join(s.dir, TimestampedName(now, seq))
		err := os.Link(tmpName, path)
		if err == nil {
			return path, fsyncDir(s.dir)
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("link result file: %w", err)
		}
	}
	return "", fmt.Errorf("no free result name for %s", now.Format(timestampLayout))
}

// TimestampedName returns the history file name for a run at now. A non-zero
// seq disambiguates runs that finish within the same second and keeps names
// sorting in creation order.
func TimestampedName(now time.Time, seq int) string {
	name := filePrefix + now.Format(timestampLayout)
	if seq > 0 {
		name += fmt.Sprintf("_%03d", seq)
	}
	return name + ".json"
}

// IsOutputName reports whether name belongs to the output file contract.
func IsOutputName(name string) bool {
	return name == LatestName || timestampedName.MatchString(name)
}

// List returns the timestamped files, oldest first.
func (s *Store) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() || !timestampedName.MatchString(de.Name()) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

// Open opens a result file by name. Names outside the contract are reported
// as ErrNotFound.
func (s *Store) Open(name string) (*os.File, error) {
	if !IsOutputName(name) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmpName, err := writeTemp(dir, filepath.Base(path), data, perm)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return fsyncDir(dir)
}

func writeTemp(dir, base string, data []byte, perm os.FileMode) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+base+".tmp.*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return "", err
	}
	if err := tmp.Chmod(perm); err != nil {
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	committed = true
	return tmpName, nil
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
