package debug

import (
	"fmt"
	"io"
	"os"

	"github.com/bradleyjkemp/memviz"

	"gameboii/internal/bus"
)

// WriteStateGraph writes a Graphviz description of a machine snapshot. The
// address space is left out to keep the graph readable.
func WriteStateGraph(w io.Writer, state bus.State) {
	state.Memory.Data = nil
	memviz.Map(w, &state)
}

// SaveStateGraph writes the state graph to path
func SaveStateGraph(path string, state bus.State) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create state graph: %w", err)
	}
	WriteStateGraph(file, state)
	return file.Close()
}
