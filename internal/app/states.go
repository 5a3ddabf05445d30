package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"

	"gameboii/internal/bus"
)

// saveStateVersion is bumped whenever bus.State changes shape
const saveStateVersion = "1"

// ErrNoSaveState is returned when a slot is empty
var ErrNoSaveState = errors.New("no save state")

// StateManager manages save states
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// SaveState is a saved machine together with its metadata
type SaveState struct {
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	ROMTitle    string    `json:"rom_title"`
	ROMChecksum string    `json:"rom_checksum"`
	SlotNumber  int       `json:"slot_number"`
	Description string    `json:"description"`
	FrameCount  uint64    `json:"frame_count"`

	Machine bus.State `json:"machine"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber  int       `json:"slot_number"`
	Used        bool      `json:"used"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
}

// NewStateManager creates a state manager storing slots in saveDirectory
func NewStateManager(saveDirectory string, slots int) *StateManager {
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      slots,
	}
	if manager.maxSlots <= 0 {
		manager.maxSlots = 4
	}

	if err := manager.initialize(); err != nil {
		glog.Warningf("states: initialization failed: %v", err)
	}
	return manager
}

func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create save directory: %w", err)
	}
	sm.initialized = true
	return nil
}

func (sm *StateManager) checkSlot(slot int) error {
	if !sm.initialized {
		return fmt.Errorf("state manager not initialized")
	}
	if slot < 0 || slot >= sm.maxSlots {
		return fmt.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}
	return nil
}

// SaveState writes the machine to a slot
func (sm *StateManager) SaveState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	now := time.Now()
	state := &SaveState{
		Version:     saveStateVersion,
		Timestamp:   now,
		ROMTitle:    b.Cartridge.Header().Title,
		ROMChecksum: romChecksum(b),
		SlotNumber:  slot,
		Description: fmt.Sprintf("Slot %d %s", slot+1, now.Format("2006-01-02 15:04:05")),
		FrameCount:  b.FrameCount(),
		Machine:     b.State(),
	}

	path := sm.getSlotFilePath(slot, romPath)
	if err := sm.saveToFile(state, path); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	glog.Infof("states: slot %d saved to %s", slot, path)
	return nil
}

// LoadState restores the machine from a slot
func (sm *StateManager) LoadState(b *bus.Bus, slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("bus cannot be nil")
	}

	path := sm.getSlotFilePath(slot, romPath)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("slot %d: %w", slot, ErrNoSaveState)
	}

	state, err := sm.loadFromFile(path)
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if err := sm.validateSaveState(state, b); err != nil {
		return fmt.Errorf("invalid save state: %w", err)
	}
	if err := b.Restore(state.Machine); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}

	glog.Infof("states: slot %d loaded from %s", slot, path)
	return nil
}

func (sm *StateManager) saveToFile(state *SaveState, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// write then rename so a failed save keeps the previous one
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return os.Rename(tmp, path)
}

func (sm *StateManager) loadFromFile(path string) (*SaveState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state: %w", err)
	}
	return &state, nil
}

func (sm *StateManager) validateSaveState(state *SaveState, b *bus.Bus) error {
	if state.Version != saveStateVersion {
		return fmt.Errorf("unsupported version %q", state.Version)
	}
	if state.ROMChecksum != romChecksum(b) {
		return fmt.Errorf("save state is for a different ROM (%s)", state.ROMTitle)
	}
	return nil
}

// getSlotFilePath names the slot file after the ROM file
func (sm *StateManager) getSlotFilePath(slot int, romPath string) string {
	name := strings.TrimSuffix(filepath.Base(romPath), filepath.Ext(romPath))
	return filepath.Join(sm.saveDirectory, fmt.Sprintf("%s_slot_%d.json", name, slot))
}

// romChecksum identifies the cartridge image
func romChecksum(b *bus.Bus) string {
	sum := sha256.Sum256(b.Cartridge.ROM())
	return hex.EncodeToString(sum[:])
}

// GetSlotInfo returns information about all save slots
func (sm *StateManager) GetSlotInfo(romPath string) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)
	for i := range slots {
		slots[i].SlotNumber = i

		path := sm.getSlotFilePath(i, romPath)
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}
		slots[i].Used = true
		slots[i].FilePath = path
		slots[i].FileSize = stat.Size()
		slots[i].Timestamp = stat.ModTime()

		if state, err := sm.loadFromFile(path); err == nil {
			slots[i].Description = state.Description
			slots[i].Timestamp = state.Timestamp
		}
	}
	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, romPath string) error {
	if err := sm.checkSlot(slot); err != nil {
		return err
	}

	path := sm.getSlotFilePath(slot, romPath)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("slot %d: %w", slot, ErrNoSaveState)
		}
		return fmt.Errorf("failed to delete save state: %w", err)
	}
	return nil
}

// HasSaveState checks if a save state exists in a slot
func (sm *StateManager) HasSaveState(slot int, romPath string) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}
	_, err := os.Stat(sm.getSlotFilePath(slot, romPath))
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}
