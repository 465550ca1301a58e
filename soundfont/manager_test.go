package soundfont

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/janvanwassenhove/mITyGuitar/synth"
)

func writeFont(t *testing.T, dir, name string, size int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, bytes.Repeat([]byte{0x55}, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScanFiltersAndNames(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "Lead_Guitar.sf2", 2048)
	writeFont(t, dir, "Piano.SF2", 512)
	writeFont(t, dir, "notes.txt", 16)
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFont(t, nested, "inner.sf2", 64)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	fonts := m.SoundFonts()
	if len(fonts) != 2 {
		t.Fatalf("got %d soundfonts, want 2: %+v", len(fonts), fonts)
	}
	if fonts[0].Name != "Lead_Guitar" || fonts[1].Name != "Piano" {
		t.Errorf("names = %q, %q, want Lead_Guitar, Piano", fonts[0].Name, fonts[1].Name)
	}
	if fonts[0].SizeBytes != 2048 || fonts[1].SizeBytes != 512 {
		t.Errorf("sizes = %d, %d, want 2048, 512", fonts[0].SizeBytes, fonts[1].SizeBytes)
	}
	if fonts[0].Path != filepath.Join(dir, "Lead_Guitar.sf2") {
		t.Errorf("path = %s", fonts[0].Path)
	}
}

func TestScanMissingDirKeepsVirtuals(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if got := m.SoundFonts(); len(got) != 0 {
		t.Errorf("got %d soundfonts, want 0", len(got))
	}
	if got, want := len(m.Instruments()), len(synth.Instruments()); got != want {
		t.Errorf("got %d instruments, want %d virtual presets", got, want)
	}
}

func TestInstrumentsMergedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "Rock_Kit.sf2", 128)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	instruments := m.Instruments()
	if got, want := len(instruments), 1+len(synth.Instruments()); got != want {
		t.Fatalf("got %d instruments, want %d", got, want)
	}
	first := instruments[0]
	if first.Name != "Rock_Kit" || first.Type != TypeSoundFont || first.Path == "" {
		t.Errorf("first instrument = %+v, want the scanned soundfont", first)
	}
	virtual := instruments[1]
	if virtual.Name != synth.CleanElectricGuitar.String() || virtual.Type != TypeVirtual {
		t.Errorf("first virtual = %+v, want Clean Electric Guitar", virtual)
	}
	if virtual.Path != "" || virtual.SizeBytes != 0 {
		t.Errorf("virtual preset carries file fields: %+v", virtual)
	}
}

func TestAdditionalDirs(t *testing.T) {
	primary := t.TempDir()
	extra := t.TempDir()
	writeFont(t, primary, "Main.sf2", 32)
	writeFont(t, extra, "Extra.sf2", 32)

	m, err := NewManager(primary, extra, filepath.Join(extra, "missing"))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	fonts := m.SoundFonts()
	if len(fonts) != 2 {
		t.Fatalf("got %d soundfonts, want 2", len(fonts))
	}
	if fonts[0].Name != "Main" || fonts[1].Name != "Extra" {
		t.Errorf("names = %q, %q, want primary dir first", fonts[0].Name, fonts[1].Name)
	}
}

func TestGetByName(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "Jazz_Guitar.sf2", 64)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if sf, ok := m.GetByName("Jazz_Guitar"); !ok || sf.SizeBytes != 64 {
		t.Errorf("GetByName(Jazz_Guitar) = %+v, %v", sf, ok)
	}
	if _, ok := m.GetByName("jazz_guitar"); ok {
		t.Error("GetByName should match exact names only")
	}
	if inst, ok := m.GetInstrumentByName("Piano"); !ok || inst.Type != TypeVirtual {
		t.Errorf("GetInstrumentByName(Piano) = %+v, %v, want virtual preset", inst, ok)
	}
}

func TestDefaultGuitar(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		wantName string
		wantOK   bool
	}{
		{"prefers guitar in name", []string{"Piano.sf2", "Rhythm_Guitar.sf2"}, "Rhythm_Guitar", true},
		{"case-insensitive match", []string{"Piano.sf2", "GUITAR_Pack.sf2"}, "GUITAR_Pack", true},
		{"first font when no guitar", []string{"Piano.sf2", "Strings.sf2"}, "Piano", true},
		{"none available", nil, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				writeFont(t, dir, f, 16)
			}
			m, err := NewManager(dir)
			if err != nil {
				t.Fatalf("NewManager: %v", err)
			}
			sf, ok := m.DefaultGuitar()
			if ok != tt.wantOK || sf.Name != tt.wantName {
				t.Errorf("DefaultGuitar() = %q, %v, want %q, %v", sf.Name, ok, tt.wantName, tt.wantOK)
			}
		})
	}
}

func TestDefaultGuitarInstrumentFallsBackToVirtual(t *testing.T) {
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	inst, ok := m.DefaultGuitarInstrument()
	if !ok {
		t.Fatal("DefaultGuitarInstrument found nothing")
	}
	if inst.Name != synth.CleanElectricGuitar.String() || inst.Type != TypeVirtual {
		t.Errorf("got %+v, want the built-in clean guitar", inst)
	}
}

func TestRescanPicksUpNewFiles(t *testing.T) {
	dir := t.TempDir()
	writeFont(t, dir, "First.sf2", 16)

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	writeFont(t, dir, "Second.sf2", 16)
	if err := m.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	fonts := m.SoundFonts()
	if len(fonts) != 2 {
		t.Fatalf("got %d soundfonts after re-scan, want 2", len(fonts))
	}
	// Re-scans keep the merged list stable: soundfonts first, virtuals after.
	instruments := m.Instruments()
	if instruments[0].Type != TypeSoundFont || instruments[len(instruments)-1].Type != TypeVirtual {
		t.Errorf("merged list order changed after re-scan")
	}
}

func TestSynthInstrument(t *testing.T) {
	virtual := InstrumentInfo{Name: "Distorted Guitar", Type: TypeVirtual}
	inst, ok := virtual.SynthInstrument()
	if !ok || inst != synth.DistortedGuitar {
		t.Errorf("SynthInstrument() = %v, %v, want DistortedGuitar", inst, ok)
	}
	disk := InstrumentInfo{Name: "Distorted Guitar", Type: TypeSoundFont}
	if _, ok := disk.SynthInstrument(); ok {
		t.Error("soundfont entries must not resolve to a virtual preset")
	}
	bogus := InstrumentInfo{Name: "Theremin", Type: TypeVirtual}
	if _, ok := bogus.SynthInstrument(); ok {
		t.Error("unknown preset names must not resolve")
	}
}
