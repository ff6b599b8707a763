package ledger

import (
	"bytes"
	"encoding/json"
	"sync"

	"github.com/davidahmann/provenant/pkg/types"
)

// SnapshotStore is the durable key-value persistence capability. The store
// persists its full state as a single blob under a stable key.
type SnapshotStore interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, body []byte) error
}

// snapshot is the persisted wire form: all timestamps stay RFC 3339 strings.
type snapshot struct {
	Sequence  int64                  `json:"sequence"`
	Entries   []types.LedgerEntry    `json:"entries"`
	Decisions []types.DecisionRecord `json:"decisions"`
}

func encodeSnapshot(s snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// decodeSnapshot rehydrates a snapshot. Numbers inside entry data payloads
// decode as json.Number so recomputed entry hashes match the originals.
func decodeSnapshot(body []byte) (snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var s snapshot
	if err := dec.Decode(&s); err != nil {
		return snapshot{}, err
	}
	return s, nil
}

// MemorySnapshots is the in-process SnapshotStore used by tests and by
// deployments that accept losing the ledger on restart.
type MemorySnapshots struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{blobs: make(map[string][]byte)}
}

func (m *MemorySnapshots) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.blobs[key]
	return body, ok, nil
}

func (m *MemorySnapshots) Save(key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]byte, len(body))
	copy(copied, body)
	m.blobs[key] = copied
	return nil
}
