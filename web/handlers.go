package web

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/ops/classify"
	"github.com/mogaika/rigsplit/ops/decompose"
	"github.com/mogaika/rigsplit/ops/export"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/scene/yamlscene"
	"github.com/mogaika/rigsplit/utils"
	"github.com/mogaika/rigsplit/webutils"
)

var errNotFound = errors.New("not found")

func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Cause(err) == errNotFound:
		code = http.StatusNotFound
	case scene.IsValidation(err):
		code = http.StatusBadRequest
	case scene.IsState(err), scene.IsNamingCollision(err):
		code = http.StatusConflict
	}
	webutils.WriteErrorStatus(w, code, err)
}

type CollectionView struct {
	Name     string            `json:"name"`
	Type     string            `json:"type"`
	Hidden   bool              `json:"hidden,omitempty"`
	Objects  []string          `json:"objects"`
	Children []*CollectionView `json:"children,omitempty"`
}

type ObjectView struct {
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Role       string   `json:"role"`
	Collection string   `json:"collection,omitempty"`
	Parent     string   `json:"parent,omitempty"`
	Armature   string   `json:"armature,omitempty"`
	Hidden     bool     `json:"hidden,omitempty"`
	Split      bool     `json:"split,omitempty"`
	Vertices   int      `json:"vertices,omitempty"`
	Faces      int      `json:"faces,omitempty"`
	Groups     []string `json:"groups,omitempty"`
	Materials  []string `json:"materials,omitempty"`
	Bones      []string `json:"bones,omitempty"`
}

type SceneView struct {
	Document string          `json:"document"`
	Root     *CollectionView `json:"root"`
	Library  []string        `json:"library"`
	Objects  []ObjectView    `json:"objects"`
	Stats    scene.Stats     `json:"stats"`
}

func collectionView(c *scene.Collection) *CollectionView {
	cv := &CollectionView{Name: c.Name, Type: c.Type.String(), Hidden: c.Hidden, Objects: []string{}}
	for _, o := range c.Objects {
		cv.Objects = append(cv.Objects, o.Name)
	}
	for _, ch := range c.Children {
		cv.Children = append(cv.Children, collectionView(ch))
	}
	return cv
}

func objectView(o *scene.Object) ObjectView {
	ov := ObjectView{
		Name:   o.Name,
		Kind:   o.Kind.String(),
		Role:   o.Role.String(),
		Hidden: o.Hidden,
		Split:  o.Split,
	}
	if c := o.Collection(); c != nil {
		ov.Collection = c.Name
	}
	if o.Parent != nil {
		ov.Parent = o.Parent.Name
	}
	if arm := o.SkinArmature(); arm != nil {
		ov.Armature = arm.Name
	}
	if o.Mesh != nil {
		ov.Vertices = o.Mesh.VertexCount()
		ov.Faces = o.Mesh.FaceCount()
		for _, g := range o.Mesh.Groups {
			ov.Groups = append(ov.Groups, g.Name)
		}
		for _, m := range o.Mesh.Materials {
			ov.Materials = append(ov.Materials, m.Name)
		}
	}
	if o.Skeleton != nil {
		for _, b := range o.Skeleton.Bones {
			ov.Bones = append(ov.Bones, b.Name)
		}
	}
	return ov
}

func (s *Server) sceneView() *SceneView {
	sc := s.ctx.Scene
	v := &SceneView{
		Document: s.ctx.DocumentPath,
		Root:     collectionView(sc.Root),
		Library:  []string{},
		Objects:  []ObjectView{},
		Stats:    sc.Stats(),
	}
	for _, c := range sc.Collections() {
		if !sc.Linked(c) && c.Parent() == nil {
			v.Library = append(v.Library, c.Name)
		}
	}
	for _, o := range sc.Objects() {
		v.Objects = append(v.Objects, objectView(o))
	}
	return v
}

func (s *Server) HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	webutils.WriteJson(w, s.sceneView())
}

func (s *Server) object(r *http.Request) (*scene.Object, error) {
	name := mux.Vars(r)["object"]
	o := s.ctx.Scene.Object(name)
	if o == nil {
		return nil, errors.Wrapf(errNotFound, "object %q", name)
	}
	return o, nil
}

func (s *Server) HandlerAjaxObject(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()
	o, err := s.object(r)
	if err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, objectView(o))
}

type ClassifyView struct {
	Counts map[string]int      `json:"counts"`
	Bake   map[string][]string `json:"bake_roots"`
	Order  []string            `json:"order"`
}

func (s *Server) HandlerAjaxClassify(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	cls := classify.Classify(s.ctx.Scene, r.URL.Query().Get("hidden") != "")
	v := &ClassifyView{Counts: cls.Counts(), Bake: map[string][]string{}, Order: []string{}}
	for _, t := range []scene.CollectionType{scene.BakeLow, scene.BakeHigh} {
		names := []string{}
		for _, c := range cls.BakeRoots(t) {
			names = append(names, c.Name)
		}
		v.Bake[t.String()] = names
	}
	for _, c := range cls.Order {
		v.Order = append(v.Order, c.Name)
	}
	webutils.WriteJson(w, v)
}

type SplitView struct {
	Transaction string            `json:"transaction"`
	Collection  string            `json:"collection"`
	Fragments   []string          `json:"fragments"`
	Decals      []string          `json:"decals"`
	Placeholder string            `json:"placeholder"`
	Aligned     map[string]string `json:"aligned"`
}

func (s *Server) HandlerActionSplit(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	o, err := s.object(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := decompose.OptionsFromConfig(s.cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Progress = s.hub.StageProgress

	res, err := decompose.Split(s.ctx, o, opts)
	if err != nil {
		s.hub.Error("split of %q failed: %v", o.Name, err)
		writeError(w, err)
		return
	}
	v := &SplitView{
		Transaction: res.TxID.String(),
		Collection:  res.Collection.Name,
		Fragments:   []string{},
		Decals:      []string{},
		Placeholder: res.Placeholder.Name,
		Aligned:     res.Aligned,
	}
	for _, f := range res.Fragments {
		v.Fragments = append(v.Fragments, f.Name)
	}
	for _, d := range res.Decals {
		v.Decals = append(v.Decals, d.Name)
	}
	s.hub.Info("split %q into %d fragments", o.Name, len(res.Fragments))
	webutils.WriteJson(w, v)
}

type tagRequest struct {
	Retag bool `json:"retag"`
}

func (s *Server) HandlerActionTag(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var req tagRequest
	if err := webutils.ReadJson(r, &req); err != nil {
		writeError(w, scene.Validationf("tag collection", "%v", err))
		return
	}
	name := mux.Vars(r)["collection"]
	c := s.ctx.Scene.Collection(name)
	if c == nil {
		writeError(w, errors.Wrapf(errNotFound, "collection %q", name))
		return
	}
	t, err := scene.ParseCollectionType(mux.Vars(r)["type"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := classify.Tag(c, t, req.Retag); err != nil {
		writeError(w, err)
		return
	}
	webutils.WriteJson(w, collectionView(c))
}

type FailureView struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

type ExportView struct {
	Run         string        `json:"run"`
	State       string        `json:"state"`
	Transitions []string      `json:"transitions"`
	Dir         string        `json:"dir"`
	Exported    []string      `json:"exported"`
	Failures    []FailureView `json:"failures"`
	Excluded    []string      `json:"excluded"`
	Error       string        `json:"error,omitempty"`
}

func exportView(rep *export.Report, err error) *ExportView {
	v := &ExportView{
		Run:         rep.RunID.String(),
		State:       rep.State.String(),
		Transitions: []string{},
		Dir:         rep.Dir,
		Exported:    []string{},
		Failures:    []FailureView{},
		Excluded:    append([]string{}, rep.Excluded...),
	}
	for _, st := range rep.Transitions {
		v.Transitions = append(v.Transitions, st.String())
	}
	for _, t := range rep.Exported {
		v.Exported = append(v.Exported, t.Name)
	}
	for _, f := range rep.Failures {
		v.Failures = append(v.Failures, FailureView{Target: f.Target.String(), Error: f.Err.Error()})
	}
	if err != nil {
		v.Error = err.Error()
	}
	return v
}

func (s *Server) HandlerActionExport(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	opts := export.OptionsFromConfig(s.cfg)
	opts.OnState = func(st export.State) {
		s.hub.Info("export %v", st)
	}
	opts.OnProgress = func(done, total int, t *export.Target) {
		var p float32
		if total > 0 {
			p = float32(done) / float32(total)
		}
		s.hub.Progress(p, "exporting %s", t.Name)
	}

	rep, err := export.NewResolver(s.exporter, opts).Run(s.ctx)
	if rep == nil {
		writeError(w, err)
		return
	}
	v := exportView(rep, err)
	if err != nil {
		s.hub.Error("export aborted: %v", err)
		code := http.StatusInternalServerError
		if scene.IsValidation(err) {
			code = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
	}
	webutils.WriteJson(w, v)
}

func (s *Server) HandlerActionSave(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.ctx.DocumentPath == "" {
		writeError(w, scene.Validationf("save", "document has no path"))
		return
	}
	if err := yamlscene.SaveFile(s.ctx.DocumentPath, s.ctx); err != nil {
		writeError(w, err)
		return
	}
	logger.Named("web").Info("saved scene", zap.String("path", s.ctx.DocumentPath))
	webutils.WriteJson(w, map[string]string{"saved": s.ctx.DocumentPath})
}

func (s *Server) HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	var buf bytes.Buffer
	if err := yamlscene.Save(&buf, s.ctx); err != nil {
		writeError(w, err)
		return
	}
	name := "scene.yaml"
	if s.ctx.DocumentPath != "" {
		name = strings.TrimSuffix(filepath.Base(s.ctx.DocumentPath), filepath.Ext(s.ctx.DocumentPath)) + ".yaml"
	}
	webutils.WriteFile(w, &buf, name)
}

func (s *Server) HandlerDumpObject(w http.ResponseWriter, r *http.Request) {
	s.lock.Lock()
	defer s.lock.Unlock()

	o, err := s.object(r)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	webutils.WriteResult(w, []byte(utils.SDump(objectView(o), o.Local)))
}

func (s *Server) HandlerStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Named("web").Warn("status upgrade failed", zap.Error(err))
		return
	}
	s.hub.ServeClient(conn)
}
