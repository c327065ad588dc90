package engine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/engine"
)

// runJob writes src to a temp job.tex, runs it from there, and returns
// the resulting job.dvi bytes.
func runJob(t *testing.T, src string) []byte {
	t.Helper()
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "job.tex")
	require.NoError(t, os.WriteFile(inputPath, []byte(src), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	e := engine.New(engine.DefaultConfig(), engine.BatchMode, true)
	require.NoError(t, e.Run(inputPath))

	out, err := os.ReadFile(filepath.Join(dir, "job.dvi"))
	require.NoError(t, err)
	return out
}

// containsCharsInOrder reports whether each byte in want appears in dvi,
// in order, as the set_char opcodes they become (spec.md §4.12: a
// character code below 128 is emitted as its own opcode byte). Motion
// opcodes between characters never collide with printable ASCII here
// since every test font-less run packs zero widths/kerns, so the
// literal motion bytes stay in the DVI control-code range.
func containsCharsInOrder(dvi []byte, want []byte) bool {
	i := 0
	for _, b := range dvi {
		if i < len(want) && b == want[i] {
			i++
		}
	}
	return i == len(want)
}

func TestNewEngineStartsInVerticalMode(t *testing.T) {
	e := engine.New(engine.DefaultConfig(), engine.ErrorStopMode, true)
	require.Equal(t, engine.VerticalMode, e.Mode)
}

func TestDumpOutsideIniModeIsRejected(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "job.tex")
	require.NoError(t, os.WriteFile(inputPath, []byte("hello\\dump\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	e := engine.New(engine.DefaultConfig(), engine.ErrorStopMode, false)
	err = e.Run(inputPath)
	require.Error(t, err)
}

func TestRunProducesDviFile(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "job.tex")
	require.NoError(t, os.WriteFile(inputPath, []byte("hello world\\par\n\\end\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	e := engine.New(engine.DefaultConfig(), engine.BatchMode, true)
	require.NoError(t, e.Run(inputPath))

	out, err := os.ReadFile(filepath.Join(dir, "job.dvi"))
	require.NoError(t, err)
	require.NotEmpty(t, out)
	require.EqualValues(t, 247, out[0]) // DVI preamble opcode
}

func TestRunWritesFormatFileInIniModeOnDump(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "job.tex")
	require.NoError(t, os.WriteFile(inputPath, []byte("\\dump\n"), 0644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	e := engine.New(engine.DefaultConfig(), engine.BatchMode, true)
	require.NoError(t, e.Run(inputPath))

	_, err = os.Stat(filepath.Join(dir, "job.fmt"))
	require.NoError(t, err)
}

// TestHboxBuildsAndShipsABox covers the first end-to-end scenario: \hbox
// in vertical mode builds its contents and contributes a real box to
// the page instead of silently dropping them.
func TestHboxBuildsAndShipsABox(t *testing.T) {
	out := runJob(t, "\\hbox{ab}\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("ab")))
}

// TestVboxBuildsAndShipsABox is \hbox's vertical counterpart.
func TestVboxBuildsAndShipsABox(t *testing.T) {
	out := runJob(t, "\\vbox{\\hbox{cd}}\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("cd")))
}

// TestMacroCallSubstitutesArgument covers scenario 2: \def followed by
// a call expands its body with the argument substituted in place.
func TestMacroCallSubstitutesArgument(t *testing.T) {
	out := runJob(t, "\\def\\x#1{[#1]}\\x{hi}\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("[hi]")))
}

// TestCountAssignAndAdvance covers scenario 3: \count/\advance drive
// the scanner, and \the reads the register back out as digit tokens.
func TestCountAssignAndAdvance(t *testing.T) {
	out := runJob(t, "\\count0=10 \\advance\\count0 by 5 \\the\\count0\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("15")))
}

// TestIfNumTakesTrueBranch and TestIfNumTakesFalseBranch cover scenario
// 4: \ifnum picks exactly one branch.
func TestIfNumTakesTrueBranch(t *testing.T) {
	out := runJob(t, "\\ifnum 3>2 A\\else B\\fi\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("A")))
	require.False(t, containsCharsInOrder(out, []byte("B")))
}

func TestIfNumTakesFalseBranch(t *testing.T) {
	out := runJob(t, "\\ifnum 1>2 A\\else B\\fi\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("B")))
	require.False(t, containsCharsInOrder(out, []byte("A")))
}

// TestHalignBuildsAlignedRows covers scenario 6: a repeating-column
// preamble lays out two rows against shared column widths via the
// align package, driven for the first time from real input.
func TestHalignBuildsAlignedRows(t *testing.T) {
	out := runJob(t, "\\halign{#\\cr a&b\\cr cc&dd\\cr}\n\\end\n")
	require.True(t, containsCharsInOrder(out, []byte("ab")))
	require.True(t, containsCharsInOrder(out, []byte("ccdd")))
}
