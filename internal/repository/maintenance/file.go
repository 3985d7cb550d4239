package maintenance

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/vessel-alarm/internal/config"
	"github.com/oshokin/vessel-alarm/internal/domain/alarm"
	"github.com/oshokin/vessel-alarm/internal/wire"
)

// Repository defines persistence operations for the maintenance state.
type Repository interface {
	Load(ctx context.Context) (*alarm.MaintenanceState, error)
	Save(ctx context.Context, state *alarm.MaintenanceState) error
}

// ErrNotFound is returned when no state has been saved yet.
var ErrNotFound = errors.New("maintenance state not found")

// FileRepository persists the maintenance state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu serialises access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads and writes JSON at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the state file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*alarm.MaintenanceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var message structpb.Struct
	if err = protojson.Unmarshal(contents, &message); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	state, err := wire.MaintenanceFromProto(&message)
	if err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return state, nil
}

// Save writes the state atomically through a temporary file in the same directory.
func (r *FileRepository) Save(_ context.Context, state *alarm.MaintenanceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(wire.MaintenanceToProto(state))
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}

// MemoryRepository keeps the state in memory.
type MemoryRepository struct {
	mu    sync.Mutex
	state *alarm.MaintenanceState
	saves int
}

// NewMemoryRepository creates a repository, optionally seeded with a state.
func NewMemoryRepository(initial *alarm.MaintenanceState) *MemoryRepository {
	return &MemoryRepository{state: initial.Clone()}
}

// Load returns a copy of the stored state or ErrNotFound.
func (r *MemoryRepository) Load(context.Context) (*alarm.MaintenanceState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == nil {
		return nil, ErrNotFound
	}

	return r.state.Clone(), nil
}

// Save stores a copy of state.
func (r *MemoryRepository) Save(_ context.Context, state *alarm.MaintenanceState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = state.Clone()
	r.saves++

	return nil
}

// Saves returns how many times Save was called.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saves
}
