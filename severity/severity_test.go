package severity

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestRangeWiden(t *testing.T) {
	t.Parallel()
	r := Range{Lo: Warn, Hi: Warn}
	widened := r.Widen(NoticeToErr)
	assert.Equal(t, Range{Lo: Notice, Hi: Err}, widened)
}

func TestRangeWidenEmpty(t *testing.T) {
	t.Parallel()
	var empty Range
	empty.Lo, empty.Hi = Err, Debug // Lo > Hi => empty
	assert.True(t, empty.Empty())

	widened := empty.Widen(Range{Lo: Warn, Hi: Warn})
	assert.Equal(t, Range{Lo: Warn, Hi: Warn}, widened)
}

func TestRangeContains(t *testing.T) {
	t.Parallel()
	r := Range{Lo: Notice, Hi: Err}
	assert.False(t, r.Contains(Debug))
	assert.False(t, r.Contains(Info))
	assert.True(t, r.Contains(Notice))
	assert.True(t, r.Contains(Warn))
	assert.True(t, r.Contains(Err))
}

func TestFromEntry(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Debug, FromEntry(&logrus.Entry{Level: logrus.DebugLevel}))
	assert.Equal(t, Info, FromEntry(&logrus.Entry{Level: logrus.InfoLevel}))
	assert.Equal(t, Notice, FromEntry(&logrus.Entry{
		Level: logrus.InfoLevel,
		Data:  logrus.Fields{"notice": true},
	}))
	assert.Equal(t, Warn, FromEntry(&logrus.Entry{Level: logrus.WarnLevel}))
	assert.Equal(t, Err, FromEntry(&logrus.Entry{Level: logrus.ErrorLevel}))
}
