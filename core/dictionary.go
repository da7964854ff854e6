package core

import (
	"sort"
	"strconv"
	"sync"
)

// Dictionary is the data dictionary served to the host via identify
type Dictionary struct {
	mu         sync.RWMutex
	constants  map[string]string
	commandReg *CommandRegistry
	version    string
	cached     []byte
}

// NewDictionary creates a dictionary describing cmdReg
func NewDictionary(cmdReg *CommandRegistry, version string) *Dictionary {
	return &Dictionary{
		constants:  make(map[string]string),
		commandReg: cmdReg,
		version:    version,
	}
}

// AddConstant exposes a firmware constant to the host
func (d *Dictionary) AddConstant(name string, value uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = strconv.FormatUint(uint64(value), 10)
	d.cached = nil
}

// AddStringConstant exposes a string constant to the host
func (d *Dictionary) AddStringConstant(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.constants[name] = value
	d.cached = nil
}

// Generate returns the dictionary as JSON.
// JSON is built by hand so firmware builds avoid reflection.
func (d *Dictionary) Generate() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil {
		d.cached = d.buildJSONLocked()
	}
	return d.cached
}

// GetChunk returns up to count bytes of the dictionary starting at offset
func (d *Dictionary) GetChunk(offset uint32, count uint8) []byte {
	data := d.Generate()
	if offset >= uint32(len(data)) {
		return []byte{}
	}
	end := offset + uint32(count)
	if end > uint32(len(data)) {
		end = uint32(len(data))
	}
	chunk := make([]byte, end-offset)
	copy(chunk, data[offset:end])
	return chunk
}

func (d *Dictionary) buildJSONLocked() []byte {
	result := make([]byte, 0, 512)

	result = append(result, `{"version":`...)
	result = strconv.AppendQuote(result, d.version)
	result = append(result, `,"config":{`...)

	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			result = append(result, ',')
		}
		result = strconv.AppendQuote(result, name)
		result = append(result, ':')
		result = strconv.AppendQuote(result, d.constants[name])
	}

	var commands, responses []byte
	for _, cmd := range d.commandReg.All() {
		entry := cmd.Name
		if cmd.Format != "" {
			entry += " " + cmd.Format
		}
		if cmd.IsResponse() {
			responses = appendEntry(responses, entry, cmd.ID)
		} else {
			commands = appendEntry(commands, entry, cmd.ID)
		}
	}

	result = append(result, `},"commands":{`...)
	result = append(result, commands...)
	result = append(result, `},"responses":{`...)
	result = append(result, responses...)
	result = append(result, "}}"...)
	return result
}

func appendEntry(dst []byte, format string, id uint16) []byte {
	if len(dst) > 0 {
		dst = append(dst, ',')
	}
	dst = strconv.AppendQuote(dst, format)
	dst = append(dst, ':')
	return strconv.AppendInt(dst, int64(id), 10)
}
