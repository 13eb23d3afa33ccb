/* ============================================================= *\
   stage.go

   Transient CSV staging directory used to hand bulk rows to a
   database loader. Grounded on the original BaseGraph::save_stubs_to_db
   / save_supernodes_to_db (write CSV, COPY FROM, remove file) and the
   teacher's own exec.Command("bash", "-c", "mkdir -p "+...) idiom in
   rib.go's parse_ribs.
\* ============================================================= */

package stage

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
)

// DefaultDir matches spec.md §6/§9's /dev/shm/bgp-style default: a
// tmpfs-backed location so the bulk load never touches a spinning
// disk, overridable by the caller (the root CLI exposes this as a
// flag).
const DefaultDir = "/dev/shm/bgp"

// Dir is a staging directory: one CSV file per table, removed once
// the caller confirms the bulk load completed.
type Dir struct {
	path    string
	files   map[string]*os.File
	writers map[string]*bufio.Writer
}

// New creates path (mkdir -p, exactly as BaseGraph::save_stubs_to_db
// does) and returns a Dir bound to it. Per spec.md §7, a directory
// that cannot be created is fatal.
func New(path string) (*Dir, error) {
	if path == "" {
		path = DefaultDir
	}
	if out, err := exec.Command("bash", "-c", "mkdir -p "+path).CombinedOutput(); err != nil {
		return nil, fmt.Errorf("[stage.New]: mkdir -p %s: %w: %s", path, err, out)
	}
	return &Dir{
		path:    path,
		files:   make(map[string]*os.File),
		writers: make(map[string]*bufio.Writer),
	}, nil
}

// Path returns the staging directory's filesystem path.
func (d *Dir) Path() string {
	return d.path
}

// tableWriter returns the buffered writer backing table, creating its
// file on first use. The writer is kept for the Dir's lifetime so
// WriteRow calls accumulate into one buffer instead of each being
// flushed (or silently dropped) independently.
func (d *Dir) tableWriter(table string) (*bufio.Writer, error) {
	if w, ok := d.writers[table]; ok {
		return w, nil
	}
	f, err := os.Create(filepath.Join(d.path, table+".csv"))
	if err != nil {
		return nil, fmt.Errorf("[stage.tableWriter]: %w", err)
	}
	d.files[table] = f
	w := bufio.NewWriter(f)
	d.writers[table] = w
	return w, nil
}

// WriteRow appends one CSV line (already-formatted fields, caller
// joins with commas) to table's staging file.
func (d *Dir) WriteRow(table string, line string) error {
	w, err := d.tableWriter(table)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, line)
	return err
}

// Close flushes and closes every open staging file.
func (d *Dir) Close() error {
	var firstErr error
	for table, w := range d.writers {
		if err := w.Flush(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("[stage.Close]: flush %s: %w", table, err)
		}
	}
	for _, f := range d.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Cleanup removes the staging directory entirely, mirroring the
// original's post-COPY file removal. Call only after a confirmed
// successful bulk load.
func (d *Dir) Cleanup() {
	if err := os.RemoveAll(d.path); err != nil {
		log.Print("[stage.Cleanup]: " + err.Error())
	}
}
