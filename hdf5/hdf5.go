// Package hdf5 stores simulations in HDF5 files.
//
// A file holds a "particles" dataset of dimensions [steps, swarm size]
// whose elements are compound {X, Y, Theta} values, and a "config"
// dataset with a null dataspace whose attributes hold the configuration.
package hdf5

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/PrincetonUniversity/vicsek"
	"gonum.org/v1/hdf5"
)

// Dataset is the name of the particles dataset.
const Dataset = "particles"

// A Sink records every step of a run to an HDF5 file.
type Sink struct {
	steps int // total number of steps

	file   *hdf5.File
	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// Create creates (truncating) the HDF5 file at path, sized for a run with configuration c.
func Create(path string, c vicsek.Config) (s *Sink, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	s = &Sink{steps: c.Steps}
	s.file, err = hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, err
	}
	if err := saveConfig(s.file, c); err != nil {
		checkClose(&err, s.file)
		return nil, err
	}
	if err := s.init(c); err != nil {
		checkClose(&err, s.file)
		return nil, err
	}
	return s, nil
}

// init creates the particles dataset.
func (s *Sink) init(c vicsek.Config) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(vicsek.Particle{})
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	T, N := uint(c.Steps), uint(c.SwarmSize)
	s.fspace, err = hdf5.CreateSimpleDataspace([]uint{T, N}, nil)
	if err != nil {
		return err
	}
	if err := s.fspace.SelectHyperslab([]uint{0, 0}, nil, []uint{1, N}, nil); err != nil {
		checkClose(&err, s.fspace)
		return err
	}

	s.mspace, err = hdf5.CreateSimpleDataspace([]uint{N}, nil)
	if err != nil {
		checkClose(&err, s.fspace)
		return err
	}

	s.dset, err = s.file.CreateDataset(Dataset, dtype, s.fspace)
	if err != nil {
		checkClose(&err, s.fspace)
		checkClose(&err, s.mspace)
	}
	return err
}

// Record writes the swarm as row step of the particles dataset.
func (s *Sink) Record(step int, swarm []vicsek.Particle) error {
	if step < 0 || step >= s.steps {
		return fmt.Errorf("hdf5: step %d out of range [0, %d)", step, s.steps)
	}
	if err := s.fspace.SetOffset([]uint{uint(step), 0}); err != nil {
		return err
	}
	return s.dset.WriteSubset(&swarm, s.mspace, s.fspace)
}

// Close closes the dataset, the dataspaces and the file.
func (s *Sink) Close() (err error) {
	defer checkClose(&err, s.file)
	defer checkClose(&err, s.fspace)
	defer checkClose(&err, s.mspace)
	return s.dset.Close()
}

// saveConfig creates a "config" dataset with a null dataspace whose attributes
// reflect the whole configuration plus some other appropriate metadata.
func saveConfig(file *hdf5.File, c vicsek.Config) (err error) {
	null, err := hdf5.CreateDataspace(hdf5.S_NULL)
	if err != nil {
		return err
	}
	defer checkClose(&err, null)

	anytype, err := hdf5.NewDatatypeFromValue(0)
	if err != nil {
		return err
	}
	defer checkClose(&err, anytype)

	dset, err := file.CreateDataset("config", anytype, null)
	if err != nil {
		return err
	}
	defer checkClose(&err, dset)

	scalar, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return err
	}
	defer checkClose(&err, scalar)

	attrs := []struct {
		name string
		val  interface{}
	}{
		{"Time", time.Now().String()},
		{"SwarmSize", c.SwarmSize},
		{"Speed", c.Speed},
		{"SearchRadius", c.SearchRadius},
		{"Noise", c.Noise},
		{"Radius", c.Domain.Radius},
		{"Separation", c.Domain.Separation},
		{"Steps", c.Steps},
		{"Seed", c.Seed},
	}
	for _, a := range attrs {
		if err := writeAttr(dset, scalar, a.name, a.val); err != nil {
			return fmt.Errorf("hdf5: attribute %s: %w", a.name, err)
		}
	}
	return nil
}

// writeAttr writes a scalar attribute.
func writeAttr(dset *hdf5.Dataset, scalar *hdf5.Dataspace, name string, v interface{}) (err error) {
	dtype, err := hdf5.NewDatatypeFromValue(v)
	if err != nil {
		return err
	}
	defer checkClose(&err, dtype)

	attr, err := dset.CreateAttribute(name, dtype, scalar)
	if err != nil {
		return err
	}
	defer checkClose(&err, attr)

	switch v := v.(type) {
	case string:
		return attr.Write(&v, dtype)
	case int:
		return attr.Write(&v, dtype)
	case uint64:
		return attr.Write(&v, dtype)
	case float64:
		return attr.Write(&v, dtype)
	}
	return fmt.Errorf("unsupported type %T", v)
}

// checkClose checks for errors in deferred calls.
func checkClose(err *error, c io.Closer) {
	if cerr := c.Close(); *err == nil {
		*err = cerr
	}
}
