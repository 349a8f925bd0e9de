// Command cpuconform checks CPU correctness two ways: replaying the
// per-opcode JSON fixture format against a bare CPU+Bus, or running a
// conformance ROM and watching its serial port for a pass/fail banner.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stretchr/testify/assert"

	"github.com/retro-handheld/dottick/internal/bus"
	"github.com/retro-handheld/dottick/internal/cpu"
)

type cliFlags struct {
	fixturesDir string
	romPath     string
	steps       int
	trace       bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.fixturesDir, "fixtures", "", "directory of opcode-fixture JSON files to replay")
	flag.StringVar(&f.romPath, "rom", "", "conformance ROM to run in serial-passthrough mode")
	flag.IntVar(&f.steps, "steps", 20_000_000, "instruction budget for serial-rom mode")
	flag.BoolVar(&f.trace, "trace", false, "log progress every 100000 instructions in serial-rom mode")
	flag.Parse()
	return f
}

func main() {
	f := parseFlags()
	switch {
	case f.fixturesDir != "":
		runFixtures(f.fixturesDir)
	case f.romPath != "":
		runSerialROM(f)
	default:
		log.Fatal("one of -fixtures or -rom is required")
	}
}

// regState is the shape spec.md §6 gives each of a fixture's "initial" and
// "final" blocks: the eight register cells, PC, SP, and a sparse RAM patch.
type regState struct {
	A, F, B, C, D, E, H, L byte
	PC, SP                 uint16
	RAM                    [][2]int
}

// fixture is one test case: a named opcode, its pre- and post-state, and
// the bus-access trace the reference implementation recorded.
type fixture struct {
	Name    string          `json:"name"`
	Initial regState        `json:"initial"`
	Final   regState        `json:"final"`
	Cycles  [][]interface{} `json:"cycles"`
}

// tReporter adapts testify's assert package, which wants a *testing.T, to
// a plain accumulator so fixtures can run from a main() instead of go test.
type tReporter struct {
	failed   bool
	messages []string
}

func (r *tReporter) Errorf(format string, args ...interface{}) {
	r.failed = true
	r.messages = append(r.messages, fmt.Sprintf(format, args...))
}

// runFixtures replays every *.json fixture file in dir against a bare
// CPU+Bus pair, asserting post-state and m-cycle count, then exits
// nonzero if any fixture failed.
func runFixtures(dir string) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		log.Fatalf("glob fixtures: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no *.json fixtures found in %s", dir)
	}

	total, failed := 0, 0
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			log.Fatalf("read %s: %v", p, err)
		}
		var cases []fixture
		if err := json.Unmarshal(raw, &cases); err != nil {
			log.Fatalf("parse %s: %v", p, err)
		}
		for _, tc := range cases {
			total++
			if msgs := runFixture(tc); len(msgs) > 0 {
				failed++
				log.Printf("FAIL %s (%s):", tc.Name, filepath.Base(p))
				for _, m := range msgs {
					log.Printf("  %s", m)
				}
			}
		}
	}

	log.Printf("fixtures: %d/%d passed", total-failed, total)
	if failed > 0 {
		os.Exit(1)
	}
}

// runFixture loads one fixture's initial state, runs exactly one
// cpu.Execute, and reports any mismatches against the final state.
func runFixture(tc fixture) []string {
	b := bus.New()
	for _, kv := range tc.Initial.RAM {
		b.Poke(uint16(kv[0]), byte(kv[1]))
	}

	c := cpu.New(b)
	loadRegState(c, tc.Initial)

	got := c.Execute()

	rep := &tReporter{}
	assert.Equal(rep, tc.Final.A, c.Reg.A, "A")
	assert.Equal(rep, tc.Final.F, c.Reg.F, "F")
	assert.Equal(rep, tc.Final.B, c.Reg.B, "B")
	assert.Equal(rep, tc.Final.C, c.Reg.C, "C")
	assert.Equal(rep, tc.Final.D, c.Reg.D, "D")
	assert.Equal(rep, tc.Final.E, c.Reg.E, "E")
	assert.Equal(rep, tc.Final.H, c.Reg.H, "H")
	assert.Equal(rep, tc.Final.L, c.Reg.L, "L")
	assert.Equal(rep, tc.Final.SP, c.Reg.SP, "SP")
	assert.Equal(rep, tc.Final.PC-1, c.Reg.PC, "PC")
	for _, kv := range tc.Final.RAM {
		assert.Equal(rep, byte(kv[1]), b.UnblockedRead(uint16(kv[0])), "ram[%#x]", kv[0])
	}
	assert.Equal(rep, len(tc.Cycles), got, "m-cycle count")

	return rep.messages
}

// loadRegState seeds a fresh CPU with a fixture's initial block. Per
// spec.md §6, the fixture format's PC is decremented by one before
// loading — a fixed convention of the fixtures themselves, independent of
// this CPU's own fetch/advance scheme. runFixture applies the same "-1"
// to the final block's PC before comparing, since the convention applies
// to both sides of the fixture alike (original_source/tests/test_cpu.rs).
func loadRegState(c *cpu.CPU, s regState) {
	c.Reg.A, c.Reg.F = s.A, s.F
	c.Reg.B, c.Reg.C = s.B, s.C
	c.Reg.D, c.Reg.E = s.D, s.E
	c.Reg.H, c.Reg.L = s.H, s.L
	c.Reg.SP = s.SP
	c.Reg.PC = s.PC - 1
}

// bannerPassed and bannerFailed match the two terminal banners Blargg-style
// conformance ROMs print over the serial port once their self-test ends.
var (
	bannerPassed = regexp.MustCompile(`Passed`)
	bannerFailed = regexp.MustCompile(`Failed(?:\s+(\d+)\s+tests?)?`)
)

// runSerialROM runs a conformance ROM headless, streaming its serial port
// to an in-memory buffer and watching for a pass/fail banner, exiting
// nonzero on a detected failure or on an inconclusive run.
func runSerialROM(f cliFlags) {
	rom, err := os.ReadFile(f.romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}

	b := bus.New()
	if err := b.LoadROM(rom); err != nil {
		log.Fatalf("load rom: %v", err)
	}
	c := cpu.New(b)
	c.Boot()

	var serial strings.Builder
	b.SetSerialWriter(&serial)

	prevLen := 0
	for i := 0; i < f.steps; i++ {
		c.Execute()
		if f.trace && i%100_000 == 0 {
			log.Printf("progress: %d/%d instructions, pc=%#04x", i, f.steps, c.Reg.PC)
		}
		if serial.Len() == prevLen {
			continue
		}
		prevLen = serial.Len()
		out := serial.String()
		if bannerPassed.MatchString(out) {
			log.Printf("PASSED after %d instructions\nserial output:\n%s", i+1, out)
			return
		}
		if m := bannerFailed.FindStringSubmatch(out); m != nil {
			log.Printf("FAILED after %d instructions\nserial output:\n%s", i+1, out)
			os.Exit(1)
		}
	}

	log.Printf("INCONCLUSIVE: no pass/fail banner after %d instructions\nserial output:\n%s", f.steps, serial.String())
	os.Exit(1)
}
