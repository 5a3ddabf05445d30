package debug

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
)

const dumpRowBytes = 16

// WriteRAMDump writes ram as rows of 16 bytes prefixed with their address.
// Runs of rows identical to the one before them collapse into a single "*".
func WriteRAMDump(w io.Writer, ram []uint8) error {
	bw := bufio.NewWriter(w)
	var previous []uint8
	skipping := false

	for offset := 0; offset < len(ram); offset += dumpRowBytes {
		end := offset + dumpRowBytes
		if end > len(ram) {
			end = len(ram)
		}
		row := ram[offset:end]

		if previous != nil && bytes.Equal(row, previous) {
			if !skipping {
				fmt.Fprintln(bw, "*")
				skipping = true
			}
			continue
		}
		skipping = false
		previous = row

		fmt.Fprintf(bw, "%04X:", offset)
		for _, b := range row {
			fmt.Fprintf(bw, " %02X", b)
		}
		bw.WriteString("  |")
		for _, b := range row {
			if b < 0x20 || b > 0x7E {
				b = '.'
			}
			bw.WriteByte(b)
		}
		bw.WriteString("|\n")
	}
	return bw.Flush()
}

// SaveRAMDump writes a RAM dump to path
func SaveRAMDump(path string, ram []uint8) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create RAM dump: %w", err)
	}
	if err := WriteRAMDump(file, ram); err != nil {
		file.Close()
		return fmt.Errorf("failed to write RAM dump: %w", err)
	}
	return file.Close()
}
