package utils

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestDecompose(t *testing.T) {
	rot := mgl32.QuatRotate(mgl32.DegToRad(30), mgl32.Vec3{0, 0, 1})
	m := mgl32.Translate3D(1, 2, 3).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(2, 2, 2))

	tr, r, s := Decompose(m)
	if !tr.ApproxEqual(mgl32.Vec3{1, 2, 3}) {
		t.Errorf("translation %v", tr)
	}
	if !s.ApproxEqualThreshold(mgl32.Vec3{2, 2, 2}, 1e-5) {
		t.Errorf("scale %v", s)
	}
	if !r.ApproxEqualThreshold(rot, 1e-5) && !r.Scale(-1).ApproxEqualThreshold(rot, 1e-5) {
		t.Errorf("rotation %v, want %v", r, rot)
	}
}

func TestEulerDegrees(t *testing.T) {
	e := EulerDegrees(mgl32.HomogRotate3DZ(mgl32.DegToRad(90)))
	if !e.ApproxEqualThreshold(mgl32.Vec3{0, 0, 90}, 1e-3) {
		t.Errorf("euler %v, want [0 0 90]", e)
	}
}
