// Package testfs provides an in-memory filesystem for tests that load
// golden-line fixtures (recorded event wire lines used to assert producer
// output against), so fixtures never touch the real filesystem.
package testfs

import (
	"bufio"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// Fixtures is an in-memory filesystem preloaded with golden-line files.
type Fixtures struct {
	FS afero.Fs
}

// New returns an empty in-memory fixture filesystem.
func New() *Fixtures {
	return &Fixtures{FS: afero.NewMemMapFs()}
}

// WriteGolden writes lines, one per record, to path as CRLF-terminated
// lines — the same shape a recorded control-protocol session would have.
func (f *Fixtures) WriteGolden(t testing.TB, path string, lines ...string) {
	t.Helper()
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteString("\r\n")
	}
	require.NoError(t, afero.WriteFile(f.FS, path, []byte(sb.String()), 0o644))
}

// ReadGolden reads path back as a slice of lines with their CRLF
// terminators stripped.
func (f *Fixtures) ReadGolden(t testing.TB, path string) []string {
	t.Helper()
	file, err := f.FS.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	require.NoError(t, scanner.Err())
	return lines
}
