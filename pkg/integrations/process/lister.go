package process

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/v3/process"
)

// Snapshot is the list of running process names captured at one tick.
// Duplicates are kept: two processes with the same name appear twice.
type Snapshot []string

// Contains reports whether any process name contains target, ignoring case.
func (s Snapshot) Contains(target string) bool {
	needle := strings.ToLower(target)
	for _, name := range s {
		if strings.Contains(strings.ToLower(name), needle) {
			return true
		}
	}
	return false
}

// Filter returns the names containing term, ignoring case, in snapshot order.
func (s Snapshot) Filter(term string) []string {
	needle := strings.ToLower(term)
	filtered := make([]string, 0, len(s))
	for _, name := range s {
		if strings.Contains(strings.ToLower(name), needle) {
			filtered = append(filtered, name)
		}
	}
	return filtered
}

// Lister lists running processes through gopsutil
type Lister struct{}

func NewLister() *Lister {
	return &Lister{}
}

// List returns the name of every running process. Processes that exit or
// deny access while being read are skipped.
func (l *Lister) List() (Snapshot, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get process list")
	}

	names := make(Snapshot, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		names = append(names, name)
	}

	return names, nil
}

// NameOf returns the process name for a PID.
func (l *Lister) NameOf(pid int32) (string, error) {
	p, err := process.NewProcess(pid)
	if err != nil {
		return "", errors.Wrapf(err, "failed to find process %d", pid)
	}
	name, err := p.Name()
	if err != nil {
		return "", errors.Wrapf(err, "failed to read name of process %d", pid)
	}
	return name, nil
}

func (l *Lister) IsAvailable() bool {
	_, err := os.Stat("/proc")
	return err == nil
}
