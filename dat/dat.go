// Package dat stores simulations as one comma-separated table per step.
//
// Each step is written to a file named after its index, e.g. 00042.dat,
// with one row per particle holding its x, y and direction.
// Runs are grouped by date, lobe separation and noise:
//
//	<root>/<yyyymmdd>/<separation:03d>/<noise*100:03d>/<step:05d>.dat
package dat

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PrincetonUniversity/vicsek"
)

// Ext is the extension of step files.
const Ext = ".dat"

// Dir returns the directory of a run started at date with configuration c.
func Dir(root string, date time.Time, c vicsek.Config) string {
	return filepath.Join(root,
		date.Format("20060102"),
		fmt.Sprintf("%03d", int(c.Domain.Separation)),
		fmt.Sprintf("%03d", int(math.Round(c.Noise*100))))
}

// StepFile returns the name of the file of a step.
func StepFile(step int) string {
	return fmt.Sprintf("%05d%s", step, Ext)
}

// A Sink writes every recorded step to its own file in Dir.
type Sink struct {
	Dir string
}

// Record writes the swarm to Dir/StepFile(step), creating Dir if needed.
func (s *Sink) Record(step int, swarm []vicsek.Particle) (err error) {
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(s.Dir, StepFile(step)))
	if err != nil {
		return err
	}
	defer checkClose(&err, f)
	return Write(f, swarm)
}

// Write writes a swarm as comma-separated rows.
func Write(w io.Writer, swarm []vicsek.Particle) error {
	cw := csv.NewWriter(w)
	row := make([]string, 3)
	for _, p := range swarm {
		row[0] = strconv.FormatFloat(p.X, 'e', 18, 64)
		row[1] = strconv.FormatFloat(p.Y, 'e', 18, 64)
		row[2] = strconv.FormatFloat(p.Theta, 'e', 18, 64)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read reads a swarm written by Write.
func Read(r io.Reader) ([]vicsek.Particle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.ReuseRecord = true
	var swarm []vicsek.Particle
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return swarm, nil
		}
		if err != nil {
			return nil, err
		}
		var v [3]float64
		for i, s := range rec {
			if v[i], err = strconv.ParseFloat(s, 64); err != nil {
				return nil, fmt.Errorf("dat: line %d: %w", line, err)
			}
		}
		swarm = append(swarm, vicsek.Particle{X: v[0], Y: v[1], Theta: v[2]})
	}
}

// Load reads the step file at path.
func Load(path string) ([]vicsek.Particle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	swarm, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return swarm, nil
}

// List returns the step files of dir in step order.
// Files whose name is not a step index are ignored.
func List(dir string) ([]string, error) {
	files, err := list(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}

// A stepFile is a step file and the index parsed from its name.
type stepFile struct {
	step int
	path string
}

func list(dir string) ([]stepFile, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, err
	}
	files := make([]stepFile, 0, len(paths))
	for _, p := range paths {
		step, err := strconv.Atoi(strings.TrimSuffix(filepath.Base(p), Ext))
		if err != nil || step < 0 {
			continue
		}
		files = append(files, stepFile{step, p})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].step < files[j].step })
	return files, nil
}

// A Reader sequentially loads the step files of a directory
// and cycles when every step has already been loaded.
type Reader struct {
	i     int
	files []stepFile
}

// NewReader lists the step files of dir.
func NewReader(dir string) (*Reader, error) {
	files, err := list(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("dat: no %s files in %s", Ext, dir)
	}
	return &Reader{files: files}, nil
}

// Steps returns the number of step files.
func (r *Reader) Steps() int {
	return len(r.files)
}

// Load loads the next step into swarm and returns its index.
func (r *Reader) Load(swarm *[]vicsek.Particle) (int, error) {
	f := r.files[r.i]
	p, err := Load(f.path)
	if err != nil {
		return 0, err
	}
	r.i = (r.i + 1) % len(r.files)
	*swarm = p
	return f.step, nil
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
