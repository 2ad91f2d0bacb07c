package trace

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/sbsim/timing/storebuffer"
)

// Trace text format: one command per line, `#` starts a comment, and `;`
// separates directives that share a cycle. Numbers accept decimal or 0x
// prefixes.
//
//	push <addr> <data> <mask> <size>   issue a store (size: 0-3 or
//	                                   byte/half/word/double)
//	probe <addr>                       alias participation, no store
//	commit                             confirm the oldest speculative store
//	flush                              discard speculative stores
//	load <offset>                      page-offset load query
//	idle <n>                           n empty cycles (standalone)
//	drain                              run until no store pending (standalone)

// Parse reads trace commands from r.
func Parse(r io.Reader) ([]Command, error) {
	var commands []Command

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := parseLine(line, lineNum)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return commands, nil
}

// LoadFile reads trace commands from a file.
func LoadFile(path string) ([]Command, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	commands, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return commands, nil
}

func parseLine(line string, lineNum int) (Command, error) {
	cmd := Command{Line: lineNum}

	for _, directive := range strings.Split(line, ";") {
		fields := strings.Fields(directive)
		if len(fields) == 0 {
			return cmd, fmt.Errorf("line %d: empty directive", lineNum)
		}
		if err := applyDirective(&cmd, fields); err != nil {
			return cmd, fmt.Errorf("line %d: %w", lineNum, err)
		}
	}

	if err := checkCombination(&cmd); err != nil {
		return cmd, fmt.Errorf("line %d: %w", lineNum, err)
	}
	return cmd, nil
}

func applyDirective(cmd *Command, fields []string) error {
	name := fields[0]
	args := fields[1:]

	switch name {
	case "push":
		if cmd.Push {
			return fmt.Errorf("duplicate push directive")
		}
		if len(args) != 4 {
			return fmt.Errorf("push wants <addr> <data> <mask> <size>, got %d args", len(args))
		}
		addr, err := parseNum(args[0], 64)
		if err != nil {
			return fmt.Errorf("push address: %w", err)
		}
		data, err := parseNum(args[1], 64)
		if err != nil {
			return fmt.Errorf("push data: %w", err)
		}
		mask, err := parseNum(args[2], 8)
		if err != nil {
			return fmt.Errorf("push mask: %w", err)
		}
		size, err := parseSize(args[3])
		if err != nil {
			return fmt.Errorf("push size: %w", err)
		}
		cmd.Push = true
		cmd.Address = addr
		cmd.Data = data
		cmd.ByteEnable = uint8(mask)
		cmd.Size = size

	case "probe":
		if cmd.Probe {
			return fmt.Errorf("duplicate probe directive")
		}
		if len(args) != 1 {
			return fmt.Errorf("probe wants <addr>, got %d args", len(args))
		}
		addr, err := parseNum(args[0], 64)
		if err != nil {
			return fmt.Errorf("probe address: %w", err)
		}
		cmd.Probe = true
		cmd.Address = addr

	case "commit":
		if len(args) != 0 {
			return fmt.Errorf("commit takes no arguments")
		}
		if cmd.Commit {
			return fmt.Errorf("duplicate commit directive")
		}
		cmd.Commit = true

	case "flush":
		if len(args) != 0 {
			return fmt.Errorf("flush takes no arguments")
		}
		if cmd.Flush {
			return fmt.Errorf("duplicate flush directive")
		}
		cmd.Flush = true

	case "load":
		if cmd.HasLoad {
			return fmt.Errorf("duplicate load directive")
		}
		if len(args) != 1 {
			return fmt.Errorf("load wants <offset>, got %d args", len(args))
		}
		offset, err := parseNum(args[0], 64)
		if err != nil {
			return fmt.Errorf("load offset: %w", err)
		}
		cmd.HasLoad = true
		cmd.LoadOffset = offset

	case "idle":
		if len(args) != 1 {
			return fmt.Errorf("idle wants <n>, got %d args", len(args))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("idle count: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("idle count must be > 0, got %d", n)
		}
		cmd.IdleCycles = n

	case "drain":
		if len(args) != 0 {
			return fmt.Errorf("drain takes no arguments")
		}
		cmd.Drain = true

	default:
		return fmt.Errorf("unknown directive %q", name)
	}

	return nil
}

// checkCombination rejects directive combinations the buffer contract
// forbids or the runner cannot express in one cycle.
func checkCombination(cmd *Command) error {
	if cmd.Commit && cmd.Flush {
		return fmt.Errorf("commit and flush cannot share a cycle")
	}
	if cmd.Push && cmd.Probe {
		return fmt.Errorf("push and probe cannot share a cycle")
	}
	if cmd.IdleCycles > 0 || cmd.Drain {
		other := cmd.Push || cmd.Probe || cmd.Commit || cmd.Flush || cmd.HasLoad
		if other || (cmd.IdleCycles > 0 && cmd.Drain) {
			return fmt.Errorf("idle and drain must stand alone")
		}
	}
	return nil
}

func parseNum(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}

func parseSize(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "byte":
		return storebuffer.SizeByte, nil
	case "half":
		return storebuffer.SizeHalf, nil
	case "word":
		return storebuffer.SizeWord, nil
	case "double":
		return storebuffer.SizeDouble, nil
	}
	v, err := strconv.ParseUint(s, 0, 2)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q (want 0-3 or byte/half/word/double)", s)
	}
	return uint8(v), nil
}
