package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mogaika/rigsplit/config"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/scene/yamlscene"
	"github.com/mogaika/rigsplit/status"
)

const robotDocument = `
root: [Robot]
collections:
  - name: Robot
    objects: [Armature, SK_Robot]
objects:
  - name: Armature
    kind: armature
    skeleton:
      - {name: Root}
      - {name: Arm, parent: Root, matrix: [1,0,0,0, 0,1,0,0, 0,0,1,0, 0,1,0,1]}
  - name: SK_Robot
    kind: mesh
    armature: Armature
    mesh:
      groups: [Root, Arm]
      materials: [M_Body]
      vertices:
        - {co: [0, 0, 0], weights: {Root: 1}}
        - {co: [1, 0, 0], weights: {Root: 1}}
        - {co: [0, 0, 1], weights: {Root: 1}}
        - {co: [0, 1, 0], weights: {Arm: 1}}
        - {co: [1, 1, 0], weights: {Arm: 1}}
        - {co: [0, 1, 1], weights: {Arm: 1}}
      faces:
        - {verts: [0, 1, 2]}
        - {verts: [3, 4, 5]}
`

type countingExporter struct {
	static, skeletal []string
}

func (e *countingExporter) ExportStaticMesh(src scene.Source, path string) error {
	e.static = append(e.static, filepath.Base(path))
	return nil
}

func (e *countingExporter) ExportSkeletal(c *scene.Collection, path string, armRoot bool) error {
	e.skeletal = append(e.skeletal, filepath.Base(path))
	return nil
}

type fixture struct {
	t   *testing.T
	ctx *scene.Context
	exp *countingExporter
	h   http.Handler
}

func newFixture(t *testing.T) *fixture {
	ctx, err := yamlscene.Load(strings.NewReader(robotDocument))
	if err != nil {
		t.Fatal(err)
	}
	ctx.DocumentPath = filepath.Join(t.TempDir(), "robot.yaml")
	cfg := config.Default()
	exp := &countingExporter{}
	srv := NewServer(ctx, cfg, exp, status.NewHub())
	return &fixture{t: t, ctx: ctx, exp: exp, h: srv.Handler("")}
}

func (f *fixture) do(method, url, body string, out interface{}) *httptest.ResponseRecorder {
	f.t.Helper()
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, httptest.NewRequest(method, url, strings.NewReader(body)))
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			f.t.Fatalf("%s %s: %v (%q)", method, url, err, rec.Body.String())
		}
	}
	return rec
}

func TestSceneJson(t *testing.T) {
	f := newFixture(t)
	var v SceneView
	if rec := f.do("GET", "/json/scene", "", &v); rec.Code != http.StatusOK {
		t.Fatalf("code %d", rec.Code)
	}
	if len(v.Root.Children) != 1 || v.Root.Children[0].Name != "Robot" {
		t.Errorf("root children %+v", v.Root.Children)
	}
	if len(v.Objects) != 2 || v.Objects[1].Armature != "Armature" || len(v.Objects[0].Bones) != 2 {
		t.Errorf("objects %+v", v.Objects)
	}

	var ov ObjectView
	f.do("GET", "/json/object/SK_Robot", "", &ov)
	if ov.Vertices != 6 || ov.Faces != 2 || len(ov.Groups) != 2 {
		t.Errorf("object view %+v", ov)
	}
	if rec := f.do("GET", "/json/object/Missing", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing object code %d", rec.Code)
	}
}

func TestSplitAndExport(t *testing.T) {
	f := newFixture(t)

	var sv SplitView
	if rec := f.do("POST", "/action/split/SK_Robot", "", &sv); rec.Code != http.StatusOK {
		t.Fatalf("split code %d: %s", rec.Code, rec.Body.String())
	}
	if len(sv.Fragments) != 2 || sv.Placeholder == "" || sv.Transaction == "" {
		t.Errorf("split view %+v", sv)
	}
	if !f.ctx.Scene.Object("SK_Robot").Split {
		t.Error("source not flagged as split")
	}
	if rec := f.do("POST", "/action/split/SK_Robot", "", nil); rec.Code != http.StatusConflict {
		t.Errorf("second split code %d", rec.Code)
	}
	if rec := f.do("GET", "/action/split/SK_Robot", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET split code %d", rec.Code)
	}

	var cv ClassifyView
	f.do("GET", "/json/classify", "", &cv)
	if cv.Counts["SKELETAL_MESH"] != 1 || cv.Counts["RIG"] != 1 {
		t.Errorf("counts after split %v", cv.Counts)
	}

	var ev ExportView
	if rec := f.do("POST", "/action/export", "", &ev); rec.Code != http.StatusOK {
		t.Fatalf("export code %d: %s", rec.Code, rec.Body.String())
	}
	if ev.State != "done" || len(ev.Exported) != 3 {
		t.Errorf("export view %+v", ev)
	}
	if len(f.exp.static) != 2 || len(f.exp.skeletal) != 1 || f.exp.skeletal[0] != "SK_Robot.fbx" {
		t.Errorf("exporter calls static %v skeletal %v", f.exp.static, f.exp.skeletal)
	}
}

func TestExportWithoutTargets(t *testing.T) {
	f := newFixture(t)
	var ev ExportView
	if rec := f.do("POST", "/action/export", "", &ev); rec.Code != http.StatusBadRequest {
		t.Errorf("code %d", rec.Code)
	}
	if ev.State != "aborted" || ev.Error == "" {
		t.Errorf("export view %+v", ev)
	}
}

func TestTag(t *testing.T) {
	f := newFixture(t)
	var cv CollectionView
	if rec := f.do("POST", "/action/tag/Robot/prop", "", &cv); rec.Code != http.StatusOK || cv.Type != "PROP" {
		t.Fatalf("tag code %d view %+v", rec.Code, cv)
	}
	if rec := f.do("POST", "/action/tag/Robot/STATIC_MESH", "", nil); rec.Code != http.StatusConflict {
		t.Errorf("retag without flag code %d", rec.Code)
	}
	if rec := f.do("POST", "/action/tag/Robot/STATIC_MESH", `{"retag": true}`, &cv); rec.Code != http.StatusOK || cv.Type != "STATIC_MESH" {
		t.Errorf("retag code %d view %+v", rec.Code, cv)
	}
	if rec := f.do("POST", "/action/tag/Robot/LOD", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown type code %d", rec.Code)
	}
	if rec := f.do("POST", "/action/tag/Nope/PROP", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown collection code %d", rec.Code)
	}
}

func TestSaveAndDump(t *testing.T) {
	f := newFixture(t)
	if rec := f.do("POST", "/action/save", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("save code %d: %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(f.ctx.DocumentPath); err != nil {
		t.Error(err)
	}

	rec := f.do("GET", "/dump/scene", "", nil)
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "robot.yaml") {
		t.Errorf("disposition %q", got)
	}
	if !strings.Contains(rec.Body.String(), "SK_Robot") {
		t.Error("dump misses the mesh")
	}

	rec = f.do("GET", "/dump/object/Armature", "", nil)
	if !strings.Contains(rec.Body.String(), "Arm") {
		t.Errorf("object dump %q", rec.Body.String())
	}

	f.ctx.DocumentPath = ""
	if rec := f.do("POST", "/action/save", "", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("unsaved document save code %d", rec.Code)
	}
}
