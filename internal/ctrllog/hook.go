package ctrllog

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/tlyu/ctrlevent/severity"
)

// SeverityHook is the log subsystem the interest registry's log-severity
// adjustment installs a window on. It buffers every entry whose severity
// falls inside the installed range; the dispatcher's Flush drains it at
// the start of every flush before handing each buffered entry to
// producer.PublishLogEvent.
type SeverityHook struct {
	mu  sync.Mutex
	rng severity.Range
	buf []*logrus.Entry
}

// NewSeverityHook returns a hook installed at the narrowest possible
// window (ERR only), an effectively-disabled default until something
// widens it.
func NewSeverityHook() *SeverityHook {
	return &SeverityHook{rng: severity.ErrOnly}
}

// SetSeverityRange installs a new severity window. Satisfies
// interest.LogSubsystem.
func (h *SeverityHook) SetSeverityRange(r severity.Range) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rng = r
}

// Levels reports that this hook wants to inspect every logrus level; the
// severity window itself is applied in Fire, not via logrus's own level
// filter, since NOTICE has no native logrus level (see FromEntry).
func (h *SeverityHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire buffers entry if its severity falls within the installed window.
func (h *SeverityHook) Fire(entry *logrus.Entry) error {
	sev := severity.FromEntry(entry)
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.rng.Contains(sev) {
		return nil
	}
	h.buf = append(h.buf, entry)
	return nil
}

// Drain returns every entry buffered since the last Drain and clears the
// buffer. Intended to be called once per dispatcher flush.
func (h *SeverityHook) Drain() []*logrus.Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.buf
	h.buf = nil
	return out
}
