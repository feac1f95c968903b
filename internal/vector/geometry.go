/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry for the placement engine. Float values use float64 to
// match the serialized parameter model; stored coordinates are normalized
// fractions of canvas width/height so they replay at any render resolution.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float64 }

// Size is a width/height pair.
type Size struct{ W, H float64 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

func (r Rect) Min() Pt { return Pt{r.X, r.Y} }
func (r Rect) Max() Pt { return Pt{r.X + r.W, r.Y + r.H} }

// Center returns the rectangle midpoint.
func (r Rect) Center() Pt { return Pt{r.X + r.W/2, r.Y + r.H/2} }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

// Canvas is the live manipulation surface rectangle in device pixels.
// A zero canvas means geometry is not ready yet and gestures must not start.
type Canvas struct {
	W, H float64
}

// Ready reports whether the canvas has a usable extent.
func (c Canvas) Ready() bool { return c.W > 0 && c.H > 0 }

// Normalize converts a device-pixel delta into normalized canvas units.
func (c Canvas) Normalize(dx, dy float64) (nx, ny float64) {
	return dx / c.W, dy / c.H
}

// Denormalize converts a normalized delta back into device pixels.
func (c Canvas) Denormalize(nx, ny float64) (dx, dy float64) {
	return nx * c.W, ny * c.H
}

// ToDevice maps a normalized point onto the canvas in device pixels.
func (c Canvas) ToDevice(p Pt) Pt { return Pt{p.X * c.W, p.Y * c.H} }

// ToNorm maps a device-pixel point into normalized canvas units.
func (c Canvas) ToNorm(p Pt) Pt { return Pt{p.X / c.W, p.Y / c.H} }

// Dist returns the Euclidean distance between two points.
func Dist(a, b Pt) float64 { return math.Hypot(b.X-a.X, b.Y-a.Y) }

// AngleDeg returns the angle of the vector from origin o to p, in degrees.
func AngleDeg(o, p Pt) float64 {
	return math.Atan2(p.Y-o.Y, p.X-o.X) * 180 / math.Pi
}

// RotateDelta rotates a delta vector by deg degrees.
func RotateDelta(dx, dy, deg float64) (rx, ry float64) {
	rad := deg * math.Pi / 180
	c, s := math.Cos(rad), math.Sin(rad)
	return dx*c - dy*s, dx*s + dy*c
}

// ToLocal rotates a screen-space delta into the local (un-rotated) axis
// system of an entity rotated by deg degrees.
func ToLocal(dx, dy, deg float64) (lx, ly float64) { return RotateDelta(dx, dy, -deg) }

// ToScreen rotates a local-axis delta back into screen space.
func ToScreen(lx, ly, deg float64) (dx, dy float64) { return RotateDelta(lx, ly, deg) }

// FloatRound rounds v to n decimal places deterministically.
func FloatRound(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
