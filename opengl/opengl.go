//go:build !nogl

package opengl

import (
	"embed"
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/PrincetonUniversity/vicsek"
	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW event handling must run on the main OS thread.
	runtime.LockOSThread()
}

//go:embed shaders
var shaderFS embed.FS

// Run runs an interactive simulation in an OpenGL window.
// Space pauses, the right arrow runs a single step, R resets the viewport,
// the mouse wheel zooms and Esc quits.
func Run(s *vicsek.Simulation, conf *Config) error {
	// init GLFW and OpenGL
	if err := glfw.Init(); err != nil {
		return err
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Samples, 4)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	// create OpenGL window
	const (
		title  = "Vicsek"
		width  = 800
		height = 800
	)
	w, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return err
	}
	w.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return err
	}

	// set background color and enable alpha blending
	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	w.SwapBuffers()

	// initialize OpenGL objects
	c := s.Config()
	d, err := newDisplay(c.SwarmSize, c.Domain)
	if err != nil {
		return err
	}
	d.setSize(float32(conf.Size))

	// handle scrolling zoom
	reset := func() viewport {
		return viewport{{float32(conf.Xmin), float32(conf.Ymin)}, {float32(conf.Xmax), float32(conf.Ymax)}}
	}
	vp := reset()
	w.SetScrollCallback(func(w *glfw.Window, xo, yo float64) {
		xc, yc := w.GetCursorPos()
		xs, ys := w.GetSize()
		x, y := float32(xc)/float32(xs), (float32(ys)-float32(yc))/float32(ys)
		dx, dy := vp[1].X-vp[0].X, vp[1].Y-vp[0].Y
		z := 0.05 * float32(yo)
		vp[0].X += z * -(x * dx)
		vp[0].Y += z * -(y * dy)
		vp[1].X += z * (1 - x) * dx
		vp[1].Y += z * (1 - y) * dy
	})

	var quit, step bool
	pause := conf.ForcePause
	w.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		switch {
		case key == glfw.KeyEscape && action == glfw.Press:
			quit = true
		case key == glfw.KeySpace && action == glfw.Press && !conf.ForcePause:
			pause = !pause
		case key == glfw.KeyRight && (action == glfw.Press || action == glfw.Repeat):
			if pause {
				step = true
			}
		case key == glfw.KeyR && action == glfw.Press:
			vp = reset()
		}
	})

	sink := conf.Sink
	if sink == nil {
		sink = vicsek.Discard
	}
	for !(quit || w.ShouldClose()) {
		if (step || !pause) && s.State() == vicsek.Running {
			if err := sink.Record(s.Time(), s.Swarm()); err != nil {
				return fmt.Errorf("opengl: recording step %d: %w", s.Time(), err)
			}
			if err := s.Step(); err != nil {
				return err
			}
		}
		step = false
		d.draw(s.Swarm(), vp)
		w.SwapBuffers()
		glfw.PollEvents()
	}
	return nil
}

// A viewport is a rectangle delimiting the area of simulation space shown on screen.
// The first point is the bottom left corner, the second point is the top right corner.
type viewport [2]struct{ X, Y float32 }

// display contains all the OpenGL objects required to display the simulation.
type display struct {
	vao struct {
		particle uint32
		domain   uint32
	}
	prog struct {
		particle uint32
		domain   uint32
	}
	attr struct {
		pos   uint32
		theta uint32
		wall  uint32
	}
	buf struct {
		particle uint32 // particle states
		domain   uint32 // wall segments
	}
	uni struct {
		vp     int32 // viewport of particle program
		size   int32 // particle size
		wallvp int32 // viewport of domain program
	}
	walls int32 // number of wall vertices
}

// draw updates the OpenGL buffers and draws the domain and the particles on screen.
func (d *display) draw(p []vicsek.Particle, vp viewport) {
	d.updateViewport(vp)
	d.updateParticles(p)

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
	d.drawDomain()
	d.drawParticles(p)
}

// updateViewport sends the new viewport to OpenGL.
func (d *display) updateViewport(vp viewport) {
	gl.UseProgram(d.prog.particle)
	gl.Uniform2fv(d.uni.vp, 2, &vp[0].X)
	gl.UseProgram(d.prog.domain)
	gl.Uniform2fv(d.uni.wallvp, 2, &vp[0].X)
}

// setSize sets the length of the particle triangles.
func (d *display) setSize(size float32) {
	gl.UseProgram(d.prog.particle)
	gl.Uniform1f(d.uni.size, size)
}

// updateParticles updates the OpenGL buffer containing particle states.
func (d *display) updateParticles(p []vicsek.Particle) {
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.particle)
	const n = unsafe.Sizeof(vicsek.Particle{})
	q := (uintptr)(gl.MapBuffer(gl.ARRAY_BUFFER, gl.WRITE_ONLY))
	if q != 0 {
		for i, v := range p {
			*(*vicsek.Particle)(unsafe.Pointer(q + uintptr(i)*n)) = v
		}
		gl.UnmapBuffer(gl.ARRAY_BUFFER)
	}
}

// drawDomain draws the walls of the domain.
func (d *display) drawDomain() {
	gl.UseProgram(d.prog.domain)
	gl.BindVertexArray(d.vao.domain)
	gl.DrawArrays(gl.LINES, 0, d.walls)
}

// drawParticles draws the particles as triangles pointing along their direction.
func (d *display) drawParticles(p []vicsek.Particle) {
	gl.UseProgram(d.prog.particle)
	gl.BindVertexArray(d.vao.particle)
	gl.DrawArrays(gl.POINTS, 0, int32(len(p)))
}

// newDisplay compiles shaders and initializes a display.
func newDisplay(swarmSize int, dom vicsek.Domain) (*display, error) {
	d := new(display)

	// compile and link shaders
	var err error
	d.prog.particle, err = makeProg([]shader{
		{"Vertex", "particle.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Geometry", "particle.geom", gl.CreateShader(gl.GEOMETRY_SHADER)},
		{"Fragment", "particle.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}
	d.prog.domain, err = makeProg([]shader{
		{"Vertex", "domain.vert", gl.CreateShader(gl.VERTEX_SHADER)},
		{"Fragment", "domain.frag", gl.CreateShader(gl.FRAGMENT_SHADER)},
	})
	if err != nil {
		return nil, err
	}

	// uniform location cannot be specified in the shaders in OpenGL 3.3 core
	d.uni.vp = gl.GetUniformLocation(d.prog.particle, gl.Str("vp\x00"))
	d.uni.size = gl.GetUniformLocation(d.prog.particle, gl.Str("size\x00"))
	d.uni.wallvp = gl.GetUniformLocation(d.prog.domain, gl.Str("vp\x00"))

	// attribute locations are specified in the shaders with layout(location=n)
	d.attr.pos, d.attr.theta, d.attr.wall = 0, 1, 2

	// particles
	gl.GenVertexArrays(1, &d.vao.particle)
	gl.BindVertexArray(d.vao.particle)

	const n = int32(unsafe.Sizeof(vicsek.Particle{}))
	gl.GenBuffers(1, &d.buf.particle)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.particle)
	gl.BufferData(gl.ARRAY_BUFFER, swarmSize*int(n), nil, gl.STREAM_DRAW)

	gl.EnableVertexAttribArray(d.attr.pos)
	gl.VertexAttribPointer(d.attr.pos, 2, gl.DOUBLE, false, n, gl.PtrOffset(int(unsafe.Offsetof(vicsek.Particle{}.X))))

	gl.EnableVertexAttribArray(d.attr.theta)
	gl.VertexAttribPointer(d.attr.theta, 1, gl.DOUBLE, false, n, gl.PtrOffset(int(unsafe.Offsetof(vicsek.Particle{}.Theta))))

	// walls
	gl.GenVertexArrays(1, &d.vao.domain)
	gl.BindVertexArray(d.vao.domain)

	walls := wallSegments(dom, 256)
	d.walls = int32(len(walls) / 2)
	gl.GenBuffers(1, &d.buf.domain)
	gl.BindBuffer(gl.ARRAY_BUFFER, d.buf.domain)
	if len(walls) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, 4*len(walls), gl.Ptr(walls), gl.STATIC_DRAW)
	}

	gl.EnableVertexAttribArray(d.attr.wall)
	gl.VertexAttribPointer(d.attr.wall, 2, gl.FLOAT, false, 0, nil)

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	return d, nil
}

// wallSegments approximates the boundary of the domain with line segments,
// n per lobe, returned as pairs of x, y vertices. Segments of a lobe's circle
// lying inside the other lobe are skipped.
func wallSegments(dom vicsek.Domain, n int) []float32 {
	var v []float32
	for _, l := range [2]vicsek.Lobe{vicsek.Right, vicsek.Left} {
		other := vicsek.Left
		if l == vicsek.Left {
			other = vicsek.Right
		}
		c := dom.Center(l)
		pt := func(k int) (float64, float64, bool) {
			sin, cos := math.Sincos(2 * math.Pi * float64(k) / float64(n))
			x, y := c.X+dom.Radius*cos, c.Y+dom.Radius*sin
			p := vicsek.Particle{X: x, Y: y}
			return x, y, dom.DistToLobe(p.Pos(), other) >= dom.Radius
		}
		for k := 0; k < n; k++ {
			x0, y0, ok0 := pt(k)
			x1, y1, ok1 := pt(k + 1)
			if ok0 && ok1 {
				v = append(v, float32(x0), float32(y0), float32(x1), float32(y1))
			}
		}
	}
	return v
}

// A shader wraps an OpenGL shader.
type shader struct {
	name   string
	path   string
	shader uint32
}

// makeProg builds OpenGL programs.
func makeProg(shaders []shader) (uint32, error) {
	var fail bool
	for _, s := range shaders {
		src, err := readShader(s.path)
		if err != nil {
			return 0, err
		}
		str, free := gl.Strs(src + "\x00")
		gl.ShaderSource(s.shader, 1, str, nil)
		free()
		gl.CompileShader(s.shader)
		var status int32
		gl.GetShaderiv(s.shader, gl.COMPILE_STATUS, &status)
		if status != gl.TRUE {
			var n int32
			gl.GetShaderiv(s.shader, gl.INFO_LOG_LENGTH, &n)
			log := make([]uint8, n)
			gl.GetShaderInfoLog(s.shader, n, &n, &log[0])
			fmt.Printf("### %s shader compilation error: %s ###\n\n%s\n\n", s.name, s.path, gl.GoStr(&log[0]))
			fail = true
			gl.DeleteShader(s.shader)
		}
	}
	if fail {
		return 0, fmt.Errorf("vicsek: GLSL errors")
	}
	prog := gl.CreateProgram()
	for _, s := range shaders {
		gl.AttachShader(prog, s.shader)
	}
	gl.LinkProgram(prog)

	return prog, nil
}

// readShader returns the source of an embedded shader.
func readShader(name string) (string, error) {
	b, err := shaderFS.ReadFile("shaders/" + name)
	return string(b), err
}
