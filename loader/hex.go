// Package loader provides hex memory image loading for the simulator.
//
// The image format is plain text: an `@XXXXXXXX` token sets the load
// address (hex, byte-addressed); every other token is an 8-hex-digit
// instruction or data word. Words are written in big-endian text order
// and stored little-endian, advancing the address by 4 per word.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sarchlab/rv32sim/emu"
)

// Chunk is a run of consecutive words starting at a load address.
type Chunk struct {
	// Addr is the byte address of the first word.
	Addr uint32
	// Words holds the word values in load order.
	Words []uint32
}

// Image represents a parsed memory image ready for loading.
type Image struct {
	// Chunks contains the address-tagged word runs in file order.
	Chunks []Chunk
}

// Parse reads a hex image from r. Malformed tokens are reported with
// their line number.
func Parse(r io.Reader) (*Image, error) {
	img := &Image{}
	var cur *Chunk
	addr := uint32(0)

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		for _, token := range strings.Fields(scanner.Text()) {
			if strings.HasPrefix(token, "@") {
				value, err := parseHex(token[1:], lineNo, token)
				if err != nil {
					return nil, err
				}
				addr = value
				cur = nil
				continue
			}

			if len(token) != 8 {
				return nil, fmt.Errorf("line %d: malformed word %q", lineNo, token)
			}
			value, err := parseHex(token, lineNo, token)
			if err != nil {
				return nil, err
			}

			if cur == nil {
				img.Chunks = append(img.Chunks, Chunk{Addr: addr})
				cur = &img.Chunks[len(img.Chunks)-1]
			}
			cur.Words = append(cur.Words, value)
			addr += 4
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	return img, nil
}

func parseHex(digits string, lineNo int, token string) (uint32, error) {
	if len(digits) == 0 || len(digits) > 8 {
		return 0, fmt.Errorf("line %d: malformed token %q", lineNo, token)
	}
	value, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("line %d: malformed token %q", lineNo, token)
	}
	return uint32(value), nil
}

// ApplyTo writes the image into memory. It fails when a chunk reaches
// past the end of memory.
func (img *Image) ApplyTo(mem *emu.Memory) error {
	for _, chunk := range img.Chunks {
		addr := chunk.Addr
		for _, word := range chunk.Words {
			if err := mem.CheckAccess(addr, 4); err != nil {
				return fmt.Errorf("loading image: %w", err)
			}
			mem.Write32(addr, word)
			addr += 4
		}
	}
	return nil
}
