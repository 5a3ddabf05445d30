// Package app provides the application layer of the emulator: configuration,
// the emulation loop, save states and screenshots.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gameboii/internal/bus"
	"gameboii/internal/ppu"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Resizable  bool `json:"resizable"`
	Scale      int  `json:"scale"` // screen resolution multiplier
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync   bool   `json:"vsync"`
	Filter  string `json:"filter"`  // "nearest", "linear"
	Backend string `json:"backend"` // "ebitengine", "headless", "terminal"
}

// InputConfig contains input configuration
type InputConfig struct {
	Keys KeyMapping `json:"keys"`
}

// KeyMapping maps joypad buttons to keyboard key names
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	BootROM        string  `json:"boot_rom"`     // optional 256-byte image
	SkipBoot       bool    `json:"skip_boot"`    // start in the post-boot state even if a boot ROM is set
	StrictIO       bool    `json:"strict_io"`    // fail on reads of unmodeled registers
	ExitOnStop     bool    `json:"exit_on_stop"` // STOP ends the run
	FrameRate      float64 `json:"frame_rate"`
	FrameLimit     int     `json:"frame_limit"` // 0 runs until closed
	SaveStateSlots int     `json:"save_state_slots"`
	SerialStdout   bool    `json:"serial_stdout"` // echo serial output to stdout
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS    bool   `json:"show_fps"`
	TraceFile  string `json:"trace_file"` // PC-indexed disassembly file
	TraceLog   bool   `json:"trace_log"`  // disassembly through the log
	StatsView  bool   `json:"stats_view"`
	StateGraph string `json:"state_graph"` // Graphviz dump written on exit
	RAMDump    string `json:"ram_dump"`    // hex dump written on exit
	InputDebug bool   `json:"input_debug"`
	DumpFrames []int  `json:"dump_frames"` // headless frames written as BMP
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
	Frames      string `json:"frames"` // headless frame dumps
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      ppu.Width * 4,
			Height:     ppu.Height * 4,
			Fullscreen: false,
			Resizable:  true,
			Scale:      4,
		},
		Video: VideoConfig{
			VSync:   true,
			Filter:  "nearest",
			Backend: "ebitengine",
		},
		Input: InputConfig{
			Keys: KeyMapping{
				Up:     "ArrowUp",
				Down:   "ArrowDown",
				Left:   "ArrowLeft",
				Right:  "ArrowRight",
				A:      "X",
				B:      "Z",
				Start:  "Enter",
				Select: "Backspace",
			},
		},
		Emulation: EmulationConfig{
			StrictIO:       true,
			ExitOnStop:     false,
			FrameRate:      float64(bus.ClockRate) / float64(ppu.FrameCycles),
			SaveStateSlots: 4,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
			Frames:      "./frames",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Field: "path", Value: path, Err: err}
	}

	if err := json.Unmarshal(data, c); err != nil {
		return &ConfigError{Field: "json", Value: path, Err: err}
	}

	if err := c.validate(); err != nil {
		return err
	}

	if err := c.createDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return &ConfigError{Field: "path", Value: "", Err: fmt.Errorf("no config file path set")}
	}
	return c.SaveToFile(c.configPath)
}

// validate rejects unusable values and clamps the rest to defaults
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{
			Field: "window",
			Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height),
			Err:   fmt.Errorf("invalid window dimensions"),
		}
	}

	switch c.Video.Backend {
	case "ebitengine", "headless", "terminal":
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: fmt.Errorf("unknown backend")}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Video.Filter != "nearest" && c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}

	if c.Emulation.FrameRate <= 0 {
		c.Emulation.FrameRate = float64(bus.ClockRate) / float64(ppu.FrameCycles)
	}

	if c.Emulation.FrameLimit < 0 {
		c.Emulation.FrameLimit = 0
	}

	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 4
	}

	return nil
}

// createDirectories creates required directories
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.ROMs,
		c.Paths.SaveStates,
		c.Paths.Screenshots,
		c.Paths.Frames,
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// GetScreenResolution returns the native screen resolution
func (c *Config) GetScreenResolution() (int, int) {
	return ppu.Width, ppu.Height
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	w, h := c.GetScreenResolution()
	return w * c.Window.Scale, h * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded
	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/gameboii.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
