// Package opengl displays a running simulation in an OpenGL window.
package opengl

import "github.com/PrincetonUniversity/vicsek"

// Config holds the parameters of the OpenGL driver.
type Config struct {
	Size       float64     // length of a particle triangle
	ForcePause bool        // step manually only?
	Sink       vicsek.Sink // records each step before it runs, may be nil

	// bounds of default viewport
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}
