package navigator

import "time"

// DateKeyLayout is the layout of ScrollMemory keys and API dates.
const DateKeyLayout = "2006-01-02"

// DateKey formats t's civil date in its own location.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ScrollMemory remembers the last vertical offset per date so paging back
// to a day restores where the user left it.
type ScrollMemory map[string]float64

func (m ScrollMemory) Get(key string) (float64, bool) {
	y, ok := m[key]
	return y, ok
}

func (m ScrollMemory) Set(key string, y float64) {
	m[key] = y
}

// Forget drops a remembered offset, so the next visit re-centres.
func (m ScrollMemory) Forget(key string) {
	delete(m, key)
}
