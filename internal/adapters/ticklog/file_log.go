package ticklog

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"tickdash/internal/core/port"
)

var _ port.TickLog = (*FileLog)(nil)

// FileLog is the append-only local file between the generator and the store,
// one `<id>,<price>` line per tick. A mutex serializes appends from
// concurrent dispatcher workers.
type FileLog struct {
	mu   sync.Mutex
	path string
}

func NewFileLog(path string) *FileLog {
	return &FileLog{path: path}
}

func (l *FileLog) Append(id int, price float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open tick log: %w", err)
	}
	defer f.Close()

	line := strconv.Itoa(id) + "," + strconv.FormatFloat(price, 'f', -1, 64) + "\n"
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append tick: %w", err)
	}

	return nil
}

// Drain reads the whole log, hands it to process and truncates it, all
// under the append mutex. Holding the lock across the sequence means a
// record appended by a dispatcher worker mid-drain lands after the truncate
// instead of being wiped without ever reaching process. A log that was never
// written or is empty is not processed.
func (l *FileLog) Drain(process func(content string)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read tick log: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	process(string(data))

	if err := os.Truncate(l.path, 0); err != nil {
		return fmt.Errorf("truncate tick log: %w", err)
	}

	return nil
}

// ReadAll returns the whole log. A log that was never written reads as
// empty.
func (l *FileLog) ReadAll() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}

	return string(data), nil
}
