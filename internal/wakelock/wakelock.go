// Package wakelock keeps the host from suspending while a sync runs.
package wakelock

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const DefaultSysfsDir = "/sys/power"

// Locker hands out leases. Calling release more than once is harmless.
type Locker interface {
	Acquire() (release func())
}

// SysfsLocker takes a kernel wakelock through /sys/power/wake_lock. Without
// those files (no CONFIG_PM_WAKELOCKS, no permission) it does nothing.
type SysfsLocker struct {
	Name string
	Dir  string // DefaultSysfsDir when empty
}

func (l *SysfsLocker) path(file string) string {
	dir := l.Dir
	if dir == "" {
		dir = DefaultSysfsDir
	}
	return filepath.Join(dir, file)
}

func (l *SysfsLocker) write(file string) error {
	f, err := os.OpenFile(l.path(file), os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(l.Name)
	return err
}

func (l *SysfsLocker) Acquire() func() {
	if err := l.write("wake_lock"); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			debug("wake_lock:", err)
		}
		return func() {}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if err := l.write("wake_unlock"); err != nil {
				log.Println("wake_unlock:", err)
			}
		})
	}
}

// Counter is an in-memory Locker that records how many leases were taken
// and released.
type Counter struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (c *Counter) Acquire() func() {
	c.mu.Lock()
	c.acquired++
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.released++
			c.mu.Unlock()
		})
	}
}

func (c *Counter) Acquired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired
}

func (c *Counter) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Held is the number of outstanding leases.
func (c *Counter) Held() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquired - c.released
}
