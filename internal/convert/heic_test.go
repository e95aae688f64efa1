package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner simulates the converter binary: it records invocations
// and writes the expected output file unless told to fail.
type fakeRunner struct {
	calls    [][]string
	failFor  map[string]bool // input path -> fail
	noOutput bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))

	in, out := args[0], args[len(args)-1]
	if name == "sips" {
		in = args[3]
	}
	if f.failFor[filepath.Base(in)] {
		return nil, []byte("conversion error"), errors.New("exit status 1")
	}
	if !f.noOutput {
		if err := os.WriteFile(out, []byte("png bytes"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestConvertDir_ConvertsSortedHEICFiles(t *testing.T) {
	inDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "png")
	for _, name := range []string{"b.HEIC", "a.heic", "note.txt", "c.png"} {
		require.NoError(t, os.WriteFile(filepath.Join(inDir, name), []byte("x"), 0o644))
	}

	runner := &fakeRunner{}
	conv := NewConverter(runner, "magick", nil)

	stats, err := conv.ConvertDir(context.Background(), inDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, DirStats{Found: 2, Converted: 2, Failed: 0}, stats)

	// Sorted by name, non-HEIC files ignored.
	require.Len(t, runner.calls, 2)
	assert.Contains(t, runner.calls[0][1], "a.heic")
	assert.Contains(t, runner.calls[1][1], "b.HEIC")

	_, err = os.Stat(filepath.Join(outDir, "a.png"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "b.png"))
	assert.NoError(t, err)
}

func TestConvertDir_FailingFileIsSkippedNotFatal(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	for _, name := range []string{"a.heic", "b.heic"} {
		require.NoError(t, os.WriteFile(filepath.Join(inDir, name), []byte("x"), 0o644))
	}

	runner := &fakeRunner{failFor: map[string]bool{"a.heic": true}}
	conv := NewConverter(runner, "heif-convert", nil)

	stats, err := conv.ConvertDir(context.Background(), inDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, DirStats{Found: 2, Converted: 1, Failed: 1}, stats)
}

func TestConvertFile_NoOutputIsError(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.heic")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	conv := NewConverter(&fakeRunner{noOutput: true}, "magick", nil)
	err := conv.ConvertFile(context.Background(), in, filepath.Join(dir, "a.png"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produced no output")
}

func TestConvertFile_UnknownTool(t *testing.T) {
	conv := NewConverter(&fakeRunner{}, "paintbrush", nil)
	err := conv.ConvertFile(context.Background(), "in.heic", "out.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEIC_CONVERTER")
}

func TestConvertDir_MissingInputDirIsFatal(t *testing.T) {
	conv := NewConverter(&fakeRunner{}, "magick", nil)
	_, err := conv.ConvertDir(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
}
