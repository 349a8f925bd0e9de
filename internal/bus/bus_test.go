package bus

import (
	"bytes"
	"testing"
)

func TestBus_ROMAndRAM(t *testing.T) {
	b := New()
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	if err := b.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("ROM read got %02x, want 42", got)
	}

	b.Write(0xC000, 0x99)
	if got := b.Read(0xC000); got != 0x99 {
		t.Fatalf("RAM read got %02x, want 99", got)
	}

	b.Write(0xFF80, 0xAB)
	if got := b.Read(0xFF80); got != 0xAB {
		t.Fatalf("HRAM read got %02x, want AB", got)
	}
}

func TestBus_ROMWritesDropped(t *testing.T) {
	b := New()
	rom := make([]byte, 0x8000)
	rom[0x0100] = 0x42
	_ = b.LoadROM(rom)

	b.Write(0x0100, 0x99)
	if got := b.Read(0x0100); got != 0x42 {
		t.Fatalf("write to ROM region mutated memory: got %02x want 42", got)
	}
}

func TestBus_LoadROMTooLarge(t *testing.T) {
	b := New()
	if err := b.LoadROM(make([]byte, 0x10001)); err == nil {
		t.Fatalf("expected error loading oversized rom")
	}
}

func TestBus_DIVResetOnWrite(t *testing.T) {
	b := New()
	b.mem[regDIV] = 0x42
	b.Write(0xFF04, 0x99)
	if got := b.Read(0xFF04); got != 0x00 {
		t.Fatalf("DIV write got %02x, want 00", got)
	}
}

func TestBus_DMATrigger(t *testing.T) {
	b := New()
	if b.DMARequested() {
		t.Fatalf("dma requested before any trigger write")
	}
	b.Write(0xFF46, 0x80)
	if !b.DMARequested() {
		t.Fatalf("dma not requested after trigger write")
	}
	if got := b.DMASourcePage(); got != 0x80 {
		t.Fatalf("dma source page got %02x, want 80", got)
	}
	b.ClearDMARequest()
	if b.DMARequested() {
		t.Fatalf("dma still requested after ClearDMARequest")
	}
}

func TestBus_PendingInterruptPriority(t *testing.T) {
	b := New()
	b.Write(0xFFFF, 0x1F)
	b.RequestInterrupt(Timer)
	b.RequestInterrupt(VBlank)

	i, ok := b.PendingInterrupt()
	if !ok || i != VBlank {
		t.Fatalf("PendingInterrupt got (%v,%v), want (VBlank,true)", i, ok)
	}

	b.ClearInterrupt(VBlank)
	i, ok = b.PendingInterrupt()
	if !ok || i != Timer {
		t.Fatalf("PendingInterrupt after clearing VBlank got (%v,%v), want (Timer,true)", i, ok)
	}
}

func TestBus_PendingInterruptRequiresEnable(t *testing.T) {
	b := New()
	b.RequestInterrupt(VBlank)
	if _, ok := b.PendingInterrupt(); ok {
		t.Fatalf("interrupt pending without IE bit set")
	}
}

func TestBus_SerialPassthroughOnTransferStart(t *testing.T) {
	b := New()
	var out bytes.Buffer
	b.SetSerialWriter(&out)

	b.Write(0xFF01, 'P')
	b.Write(0xFF02, 0x81) // transfer-start bit set

	if out.String() != "P" {
		t.Fatalf("serial output got %q, want %q", out.String(), "P")
	}
}

func TestBus_SerialSilentWithoutTransferStart(t *testing.T) {
	b := New()
	var out bytes.Buffer
	b.SetSerialWriter(&out)

	b.Write(0xFF01, 'Q')
	b.Write(0xFF02, 0x01) // transfer-start bit clear

	if out.Len() != 0 {
		t.Fatalf("serial output got %q, want empty", out.String())
	}
}

func TestBus_HandlerAddresses(t *testing.T) {
	cases := map[Interrupt]uint16{
		VBlank: 0x40,
		STAT:   0x48,
		Timer:  0x50,
		Serial: 0x58,
		Joypad: 0x60,
	}
	for i, want := range cases {
		if got := i.HandlerAddress(); got != want {
			t.Fatalf("HandlerAddress(%v) got %#x, want %#x", i, got, want)
		}
	}
}
