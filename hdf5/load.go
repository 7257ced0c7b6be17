package hdf5

import (
	"fmt"

	"github.com/PrincetonUniversity/vicsek"
	"gonum.org/v1/hdf5"
)

// A Loader sequentially loads the steps of a particles dataset.
type Loader struct {
	i uint // index of current step
	n uint // total number of steps
	m int  // swarm size

	file   *hdf5.File
	dset   *hdf5.Dataset
	fspace *hdf5.Dataspace
	mspace *hdf5.Dataspace
}

// NewLoader opens a dataset in an HDF5 file and returns an initialized loader.
func NewLoader(filepath, dataset string) (*Loader, error) {
	l := new(Loader)
	var err error
	l.file, err = hdf5.OpenFile(filepath, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, err
	}
	l.dset, err = l.file.OpenDataset(dataset)
	if err != nil {
		checkClose(&err, l.file)
		return nil, err
	}
	l.fspace = l.dset.Space()
	dims, _, err := l.fspace.SimpleExtentDims()
	if err == nil && len(dims) != 2 {
		err = fmt.Errorf("hdf5: expected 2 dimensions, got %d", len(dims))
	}
	if err != nil {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}
	l.n = dims[0]
	l.m = int(dims[1])

	l.mspace, err = hdf5.CreateSimpleDataspace(dims[1:], nil)
	if err != nil {
		checkClose(&err, l.fspace)
		checkClose(&err, l.dset)
		checkClose(&err, l.file)
		return nil, err
	}

	start := []uint{0, 0}
	count := []uint{1, dims[1]}
	if err := l.fspace.SelectHyperslab(start, nil, count, nil); err != nil {
		checkClose(&err, l)
		return nil, err
	}
	return l, nil
}

// Steps returns the number of steps in the dataset.
func (l *Loader) Steps() int {
	return int(l.n)
}

// Load loads the next step into swarm, resizing it as needed,
// and cycles when every step has already been loaded.
// It returns the index of the step loaded.
func (l *Loader) Load(swarm *[]vicsek.Particle) (int, error) {
	step := l.i
	if err := l.fspace.SetOffset([]uint{step, 0}); err != nil {
		return 0, err
	}
	l.i = (l.i + 1) % l.n

	if cap(*swarm) < l.m {
		*swarm = make([]vicsek.Particle, l.m)
	}
	*swarm = (*swarm)[:l.m]
	if err := l.dset.ReadSubset(swarm, l.mspace, l.fspace); err != nil {
		return 0, err
	}
	return int(step), nil
}

// Close releases the file and its resources.
func (l *Loader) Close() (err error) {
	defer checkClose(&err, l.file)
	defer checkClose(&err, l.dset)
	defer checkClose(&err, l.fspace)
	return l.mspace.Close()
}
