package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mogaika/rigsplit/config"
	"github.com/mogaika/rigsplit/exporters"
	"github.com/mogaika/rigsplit/importers/gltfimport"
	"github.com/mogaika/rigsplit/logger"
	"github.com/mogaika/rigsplit/ops/classify"
	"github.com/mogaika/rigsplit/ops/decompose"
	"github.com/mogaika/rigsplit/ops/export"
	"github.com/mogaika/rigsplit/scene"
	"github.com/mogaika/rigsplit/scene/yamlscene"
	"github.com/mogaika/rigsplit/status"
	"github.com/mogaika/rigsplit/utils"
	"github.com/mogaika/rigsplit/web"
)

const usage = `usage: rigsplit [flags] <command> <scene.yaml> [args]

commands:
  classify <scene>               list collections by type
  split <scene> <object>         split a skinned mesh into static fragments
  tag <scene> <collection> <type> [retag]
                                 set the type of a collection
  export <scene>                 write every classified collection
  import <scene> <file.glb>      import a glTF file, the scene is created if missing
  dump <scene> [object]          print the scene document or one object
  serve <scene>                  start the control server
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("rigsplit", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage, "\nflags:\n")
		fs.PrintDefaults()
	}
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	defer logger.Sync()

	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		return errors.New("missing command or scene")
	}
	cmd, scenePath, rest := rest[0], rest[1], rest[2:]

	if cmd == "import" {
		return cmdImport(scenePath, rest, stdout)
	}

	ctx, err := yamlscene.LoadFile(scenePath)
	if err != nil {
		return err
	}
	logger.Log.Debug("scene loaded", zap.String("path", scenePath), zap.Stringer("stats", ctx.Scene.Stats()))

	switch cmd {
	case "classify":
		return cmdClassify(ctx, stdout)
	case "split":
		return cmdSplit(ctx, cfg, scenePath, rest, stdout)
	case "tag":
		return cmdTag(ctx, scenePath, rest, stdout)
	case "export":
		return cmdExport(ctx, cfg, stdout)
	case "dump":
		return cmdDump(ctx, rest, stdout)
	case "serve":
		exp, err := exporters.ForFormat(cfg.Export.Format)
		if err != nil {
			return err
		}
		return web.NewServer(ctx, cfg, exp, status.Default).ListenAndServe(cfg.Web.Listen, "")
	}
	fs.Usage()
	return errors.Errorf("unknown command %q", cmd)
}

func cmdClassify(ctx *scene.Context, stdout io.Writer) error {
	cls := classify.Classify(ctx.Scene, false)
	counts := cls.Counts()
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(stdout, "%-14s %d\n", name, counts[name])
	}
	for _, c := range cls.Order {
		fmt.Fprintf(stdout, "  %s [%v]\n", c.Name, c.Type)
	}
	return nil
}

func cmdSplit(ctx *scene.Context, cfg *config.Config, scenePath string, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("split needs an object name")
	}
	o := ctx.Scene.Object(args[0])
	if o == nil {
		return scene.Validationf("split", "object %q not found", args[0])
	}
	opts, err := decompose.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	res, err := decompose.Split(ctx, o, opts)
	if err != nil {
		return err
	}
	for _, f := range res.Fragments {
		fmt.Fprintf(stdout, "fragment %s pivot %s\n", f.Name, res.Aligned[f.Name])
	}
	for _, d := range res.Decals {
		fmt.Fprintf(stdout, "decal %s\n", d.Name)
	}
	fmt.Fprintf(stdout, "placeholder %s\n", res.Placeholder.Name)
	return yamlscene.SaveFile(scenePath, ctx)
}

func cmdTag(ctx *scene.Context, scenePath string, args []string, stdout io.Writer) error {
	if len(args) < 2 {
		return errors.New("tag needs a collection and a type")
	}
	c := ctx.Scene.Collection(args[0])
	if c == nil {
		return scene.Validationf("tag", "collection %q not found", args[0])
	}
	t, err := scene.ParseCollectionType(args[1])
	if err != nil {
		return err
	}
	retag := len(args) > 2 && args[2] == "retag"
	if err := classify.Tag(c, t, retag); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s [%v]\n", c.Name, c.Type)
	return yamlscene.SaveFile(scenePath, ctx)
}

func cmdExport(ctx *scene.Context, cfg *config.Config, stdout io.Writer) error {
	exp, err := exporters.ForFormat(cfg.Export.Format)
	if err != nil {
		return err
	}
	rep, err := export.NewResolver(exp, export.OptionsFromConfig(cfg)).Run(ctx)
	for _, t := range rep.Exported {
		fmt.Fprintf(stdout, "exported %s\n", t.Path)
	}
	for _, f := range rep.Failures {
		fmt.Fprintf(stdout, "failed %v: %v\n", f.Target, f.Err)
	}
	for _, name := range rep.Excluded {
		fmt.Fprintf(stdout, "excluded %s\n", name)
	}
	return err
}

func cmdImport(scenePath string, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("import needs a glTF file")
	}
	var ctx *scene.Context
	if _, err := os.Stat(scenePath); err == nil {
		if ctx, err = yamlscene.LoadFile(scenePath); err != nil {
			return err
		}
	} else if os.IsNotExist(err) {
		ctx = scene.NewContext(scene.New())
		ctx.DocumentPath = scenePath
	} else {
		return err
	}

	c, err := gltfimport.ImportFile(ctx.Scene, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "imported %s: %d objects\n", c.Name, len(c.Objects))
	return yamlscene.SaveFile(scenePath, ctx)
}

func cmdDump(ctx *scene.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return yamlscene.Save(stdout, ctx)
	}
	o := ctx.Scene.Object(args[0])
	if o == nil {
		return scene.Validationf("dump", "object %q not found", args[0])
	}
	_, err := io.WriteString(stdout, utils.SDump(yamlscene.FromObject(o)))
	return err
}
