package processor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moby/sys/mountinfo"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/vidstream/kvsmkv/fragment"
)

// Recorder archives fragments across a set of candidate mount points,
// writing each to the least-used mounted target. Files land under
// <mount>/<dir> as <fragment-number>.mkv, or <sequence>.mkv when the
// stream carries no fragment-number tag. Writes go to a temp file first
// and are renamed into place once complete.
type Recorder struct {
	mpoint []string
	dir    string
}

func NewRecorder(mpoint []string, dir string) *Recorder {
	return &Recorder{mpoint: mpoint, dir: dir}
}

func (r *Recorder) Record(f *fragment.Fragment) (string, error) {
	dir, err := r.target()
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	tmp := filepath.Join(dir, fmt.Sprintf("tmp_%s_%d.mkv", uuid.New(), time.Now().Unix()))
	if err = os.WriteFile(tmp, f.Raw, 0644); err != nil {
		return "", fmt.Errorf("processor: record fragment %d: %w", f.Seq, err)
	}

	name := fmt.Sprintf("%012d.mkv", f.Seq)
	if md, err := KVSMetadata(f); err == nil && md.FragmentNumber != "" {
		name = md.FragmentNumber + ".mkv"
	}
	final := filepath.Join(dir, name)
	if err = os.Rename(tmp, final); err != nil {
		return "", fmt.Errorf("processor: record fragment %d: %w", f.Seq, err)
	}
	return final, nil
}

// target picks the mounted candidate with the lowest disk usage.
func (r *Recorder) target() (string, error) {
	var (
		mu = float64(100)
		ui = -1
	)
	for i, p := range r.mpoint {
		if ok, err := mountinfo.Mounted(p); err == nil && ok {
			if d, err := disk.Usage(p); err == nil && d.UsedPercent < mu {
				ui = i
				mu = d.UsedPercent
			}
		}
	}
	if ui == -1 {
		return "", errors.New("processor: not mount ready")
	}
	return filepath.Join(r.mpoint[ui], r.dir), nil
}
