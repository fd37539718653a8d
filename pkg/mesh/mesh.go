/*
 *     Copyright 2024 The Nocsentry Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package mesh

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nocsentry/nocsentry/pkg/math"
)

var (
	// ErrOutOfBounds represents a coordinate outside of the mesh.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrInvalidName represents a malformed router or router port name.
	ErrInvalidName = errors.New("invalid name")
)

// Port is a link direction of a router.
type Port int

const (
	// North faces the router at y-1.
	North Port = iota

	// East faces the router at x+1.
	East

	// South faces the router at y+1.
	South

	// West faces the router at x-1.
	West

	// Local is the injection link from the processing element.
	Local

	// PE is the ejection link to the processing element.
	PE
)

// Ports lists all ports in the order the simulator writes them.
var Ports = []Port{North, East, South, West, Local, PE}

// Directions lists the ports that connect two routers.
var Directions = []Port{North, East, South, West}

// String returns the name of the port.
func (p Port) String() string {
	switch p {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	case Local:
		return "local"
	case PE:
		return "pe"
	}

	return fmt.Sprintf("port(%d)", int(p))
}

// Valid reports whether p is a known port.
func (p Port) Valid() bool {
	return p >= North && p <= PE
}

// Inverse returns the port on the other end of the link.
func (p Port) Inverse() Port {
	switch p {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	}

	return p
}

// Coordinate identifies a router, origin top-left.
type Coordinate struct {
	X int
	Y int
}

// String returns the router name, like 3_4.
func (c Coordinate) String() string {
	return fmt.Sprintf("%d_%d", c.X, c.Y)
}

// ParseCoordinate parses a router name created by Coordinate.String.
func ParseCoordinate(s string) (Coordinate, error) {
	xs, ys, ok := strings.Cut(s, "_")
	if !ok {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	x, err := strconv.Atoi(xs)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	y, err := strconv.Atoi(ys)
	if err != nil {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	return Coordinate{X: x, Y: y}, nil
}

// RouterPort is the unit of feature collection.
type RouterPort struct {
	Router Coordinate
	Port   Port
}

// String returns the router port name, like 3_4.2.
func (rp RouterPort) String() string {
	return fmt.Sprintf("%s.%d", rp.Router, int(rp.Port))
}

// ParseRouterPort parses a router port name created by RouterPort.String.
func ParseRouterPort(s string) (RouterPort, error) {
	rs, ps, ok := strings.Cut(s, ".")
	if !ok {
		return RouterPort{}, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	c, err := ParseCoordinate(rs)
	if err != nil {
		return RouterPort{}, err
	}

	p, err := strconv.Atoi(ps)
	if err != nil || !Port(p).Valid() {
		return RouterPort{}, fmt.Errorf("%w: %q", ErrInvalidName, s)
	}

	return RouterPort{Router: c, Port: Port(p)}, nil
}

// Mesh is a two dimensional mesh of routers with dimension order routing.
type Mesh struct {
	dimX int
	dimY int
}

// New returns a mesh of dimX columns and dimY rows.
func New(dimX, dimY int) (*Mesh, error) {
	if dimX <= 0 || dimY <= 0 {
		return nil, fmt.Errorf("invalid mesh dimension %dx%d", dimX, dimY)
	}

	return &Mesh{dimX: dimX, dimY: dimY}, nil
}

// DimX returns the number of columns.
func (m *Mesh) DimX() int {
	return m.dimX
}

// DimY returns the number of rows.
func (m *Mesh) DimY() int {
	return m.dimY
}

// Contains reports whether c lies inside the mesh.
func (m *Mesh) Contains(c Coordinate) bool {
	return c.X >= 0 && c.X < m.dimX && c.Y >= 0 && c.Y < m.dimY
}

// RouterID returns the global id the simulator assigns to c.
func (m *Mesh) RouterID(c Coordinate) int {
	return c.Y*m.dimX + c.X
}

// Coordinate returns the router of the given global id.
func (m *Mesh) Coordinate(id int) (Coordinate, error) {
	if id < 0 || id >= m.dimX*m.dimY {
		return Coordinate{}, fmt.Errorf("router id %d: %w", id, ErrOutOfBounds)
	}

	return Coordinate{X: id % m.dimX, Y: id / m.dimX}, nil
}

// Routers returns all routers ordered by global id.
func (m *Mesh) Routers() []Coordinate {
	routers := make([]Coordinate, 0, m.dimX*m.dimY)
	for y := 0; y < m.dimY; y++ {
		for x := 0; x < m.dimX; x++ {
			routers = append(routers, Coordinate{X: x, Y: y})
		}
	}

	return routers
}

// HasPort reports whether the router port exists, boundary routers
// have no port facing outside the mesh.
func (m *Mesh) HasPort(rp RouterPort) bool {
	if !m.Contains(rp.Router) || !rp.Port.Valid() {
		return false
	}

	_, err := m.Neighbor(rp)
	return err == nil
}

// Neighbor returns the router port on the other end of the physical link.
func (m *Mesh) Neighbor(rp RouterPort) (RouterPort, error) {
	if !m.Contains(rp.Router) {
		return RouterPort{}, fmt.Errorf("router %s: %w", rp.Router, ErrOutOfBounds)
	}

	c := rp.Router
	switch rp.Port {
	case North:
		c.Y--
	case South:
		c.Y++
	case East:
		c.X++
	case West:
		c.X--
	case Local, PE:
	default:
		return RouterPort{}, fmt.Errorf("%w: port %d", ErrInvalidName, int(rp.Port))
	}

	if !m.Contains(c) {
		return RouterPort{}, fmt.Errorf("neighbor of %s: %w", rp, ErrOutOfBounds)
	}

	return RouterPort{Router: c, Port: rp.Port.Inverse()}, nil
}

// Path returns the receive side router ports traversed by XY routing from
// a to b. It begins with the local port of a and ends with the PE port of b.
func (m *Mesh) Path(a, b Coordinate) ([]RouterPort, error) {
	if !m.Contains(a) {
		return nil, fmt.Errorf("router %s: %w", a, ErrOutOfBounds)
	}

	if !m.Contains(b) {
		return nil, fmt.Errorf("router %s: %w", b, ErrOutOfBounds)
	}

	path := make([]RouterPort, 0, math.Abs(b.X-a.X)+math.Abs(b.Y-a.Y)+2)
	path = append(path, RouterPort{Router: a, Port: Local})

	cur := a
	for cur.X != b.X {
		if b.X > cur.X {
			cur.X++
			path = append(path, RouterPort{Router: cur, Port: West})
		} else {
			cur.X--
			path = append(path, RouterPort{Router: cur, Port: East})
		}
	}

	for cur.Y != b.Y {
		if b.Y > cur.Y {
			cur.Y++
			path = append(path, RouterPort{Router: cur, Port: North})
		} else {
			cur.Y--
			path = append(path, RouterPort{Router: cur, Port: South})
		}
	}

	return append(path, RouterPort{Router: b, Port: PE}), nil
}

// InputPorts returns the router ports whose receive buffers feed c.
func (m *Mesh) InputPorts(c Coordinate) []RouterPort {
	var ports []RouterPort
	for _, p := range []Port{North, East, South, West, Local} {
		rp := RouterPort{Router: c, Port: p}
		if m.HasPort(rp) {
			ports = append(ports, rp)
		}
	}

	return ports
}

// OutputPorts returns the router ports c feeds into, its own PE port
// followed by the reciprocal ports of its neighbors.
func (m *Mesh) OutputPorts(c Coordinate) []RouterPort {
	if !m.Contains(c) {
		return nil
	}

	ports := []RouterPort{{Router: c, Port: PE}}
	for _, p := range Directions {
		if rp, err := m.Neighbor(RouterPort{Router: c, Port: p}); err == nil {
			ports = append(ports, rp)
		}
	}

	return ports
}

// RouterPorts returns every existing router port ordered by router id.
func (m *Mesh) RouterPorts() []RouterPort {
	var ports []RouterPort
	for _, c := range m.Routers() {
		for _, p := range Ports {
			rp := RouterPort{Router: c, Port: p}
			if m.HasPort(rp) {
				ports = append(ports, rp)
			}
		}
	}

	return ports
}
