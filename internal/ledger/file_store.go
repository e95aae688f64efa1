package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/melodyhei/handwriten2md/internal/common"
)

// ledgerSchema constrains the persisted document to a flat object of
// string timestamps. Anything else is treated as corruption, not as
// an empty ledger.
var ledgerSchema = jsonschema.MustCompileString("ledger.schema.json", `{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`)

// FileStore persists a ledger as a pretty-printed UTF-8 JSON object.
// Record rewrites the whole document through a temp file + rename so
// a crash mid-write never leaves a truncated ledger behind.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the location of the persisted ledger document.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (Ledger, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Ledger{}, nil
		}
		return nil, fmt.Errorf("read ledger %s: %w", s.path, err)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, common.NewAppError("LEDGER_CORRUPT",
			fmt.Sprintf("ledger %s is not valid JSON", s.path),
			common.ErrCorruptLedger)
	}
	if err := ledgerSchema.Validate(doc); err != nil {
		return nil, common.NewAppError("LEDGER_CORRUPT",
			fmt.Sprintf("ledger %s failed schema validation: %v", s.path, err),
			common.ErrCorruptLedger)
	}

	var l Ledger
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, common.NewAppError("LEDGER_CORRUPT",
			fmt.Sprintf("ledger %s: %v", s.path, err),
			common.ErrCorruptLedger)
	}
	return l, nil
}

func (s *FileStore) Record(id string, at time.Time) error {
	l, err := s.Load()
	if err != nil {
		return err
	}
	l.Set(id, at)
	return s.write(l)
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear ledger %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) write(l Ledger) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace ledger %s: %w", s.path, err)
	}
	return nil
}
