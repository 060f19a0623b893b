package cecore

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/valerio/go-cecore/cecore/asic"
	"github.com/valerio/go-cecore/cecore/cert"
	"github.com/valerio/go-cecore/cecore/memory"
)

// ImageVersion is the magic number that starts every snapshot image.
// Images written with any other version are rejected.
const ImageVersion uint32 = 0xCECE0012

var (
	// ErrROMTooLarge is returned for ROM files bigger than the flash.
	ErrROMTooLarge = errors.New("ROM image larger than flash")
	// ErrImageVersion is returned for snapshot images with a wrong magic.
	ErrImageVersion = errors.New("unsupported image version")
)

// SaveROM writes the whole flash.
func (e *Emu) SaveROM(w io.Writer) error {
	if !e.Loaded() {
		return ErrNotLoaded
	}
	if _, err := w.Write(e.asic.Mem.Flash); err != nil {
		return fmt.Errorf("failed to write ROM: %w", err)
	}
	return nil
}

// SaveImage writes a snapshot of the complete device state.
func (e *Emu) SaveImage(w io.Writer) error {
	if !e.Loaded() {
		return ErrNotLoaded
	}
	if err := binary.Write(w, binary.LittleEndian, ImageVersion); err != nil {
		return fmt.Errorf("failed to write image version: %w", err)
	}
	if err := e.asic.Save(w); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

// LoadImage replaces the device state with a snapshot. On any failure the
// device state is released.
func (e *Emu) LoadImage(r io.Reader) error {
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		e.asic.Free()
		return fmt.Errorf("failed to read image version: %w", err)
	}
	if version != ImageVersion {
		e.asic.Free()
		return fmt.Errorf("%w: 0x%08X, want 0x%08X", ErrImageVersion, version, ImageVersion)
	}

	e.initDevice()
	e.asic.Reset()
	if err := e.asic.Restore(r); err != nil {
		e.asic.Free()
		return fmt.Errorf("failed to restore image: %w", err)
	}

	slog.Info("Loaded image", "device", e.asic.Device())
	return nil
}

// LoadROM loads a raw flash dump and identifies the device from its
// certificate. Oversized input is rejected before device state is touched.
func (e *Emu) LoadROM(r io.Reader) error {
	data, err := io.ReadAll(io.LimitReader(r, memory.SizeFlash+1))
	if err != nil {
		return fmt.Errorf("failed to read ROM: %w", err)
	}
	if len(data) > memory.SizeFlash {
		return fmt.Errorf("%w: more than %d bytes", ErrROMTooLarge, memory.SizeFlash)
	}

	e.initDevice()
	copy(e.asic.Mem.Flash, data)

	variant, err := cert.DetectDevice(e.asic.Mem.Flash)
	if err != nil {
		slog.Warn("Could not determine device type", "error", err)
		e.asic.SetDevice(asic.TI84PCE)
	} else {
		e.asic.SetDevice(asic.Device(variant))
	}

	slog.Info("Loaded ROM", "bytes", len(data), "device", e.asic.Device())
	return nil
}

// SaveROMFile writes the flash to path.
func (e *Emu) SaveROMFile(path string) error {
	return writeFile(path, e.SaveROM)
}

// SaveImageFile writes a snapshot to path.
func (e *Emu) SaveImageFile(path string) error {
	return writeFile(path, e.SaveImage)
}

// LoadImageFile loads a snapshot from path.
func (e *Emu) LoadImageFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return e.LoadImage(bufio.NewReader(f))
}

// LoadROMFile loads a flash dump from path.
func (e *Emu) LoadROMFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open ROM: %w", err)
	}
	defer f.Close()
	return e.LoadROM(f)
}

// Load loads an image if one is given, otherwise a ROM.
func (e *Emu) Load(romPath, imagePath string) error {
	switch {
	case imagePath != "":
		return e.LoadImageFile(imagePath)
	case romPath != "":
		return e.LoadROMFile(romPath)
	default:
		return errors.New("no ROM or image path given")
	}
}

func writeFile(path string, save func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := save(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
