package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/internal/assets"
	"github.com/Faultbox/supermesh/internal/config"
	"github.com/Faultbox/supermesh/internal/export"
	"github.com/Faultbox/supermesh/internal/importer"
	"github.com/Faultbox/supermesh/internal/logger"
	"github.com/Faultbox/supermesh/internal/server"
	"github.com/Faultbox/supermesh/internal/supermesh"
	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/math"
)

// newPipeline wires a supermesh, a glTF collector and an importer reading
// through a caching manager.
func newPipeline(cfg *config.Config, sources ...transport.Fetcher) (*importer.Importer, *export.GLTF) {
	sm := supermesh.New(nil)
	out := export.NewGLTF()
	sm.AddSink(out)
	sm.Diffuse().AddSink(out)

	manager := assets.NewManager(sources...)
	manager.Cacheable = assets.CacheAssets

	im := importer.New(manager, sm, importer.Options{
		Concurrency:  cfg.Import.Concurrency,
		StrictMeshes: cfg.Import.StrictMeshes,
	}, logger.Named("importer"))
	return im, out
}

func writeOutput(cfg *config.Config, im *importer.Importer, out *export.GLTF) {
	sm := im.Supermesh()
	sm.UpdateParameterMaps(true)

	written, err := out.WriteFiles(cfg.Output.Dir, cfg.Output.GLTFName, cfg.Output.IDMapName, sm.Scale())
	if err != nil {
		fatal("%v", err)
	}

	stats := im.Stats()
	fmt.Printf("Meshes:     %d\n", stats.Meshes)
	fmt.Printf("Triangles:  %d\n", stats.Triangles)
	fmt.Printf("Vertices:   %d\n", stats.Vertices)
	fmt.Printf("Objects:    %d\n", stats.Objects)
	fmt.Printf("Downloaded: %.2f MB\n", float64(stats.DownloadedBytes)/(1024*1024))
	for _, path := range written {
		fmt.Printf("Wrote %s\n", path)
	}
}

func cmdExport(args []string) {
	cfg, fs := setup("export", args, nil)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srctool export <asset> [out-dir]")
		os.Exit(1)
	}
	if fs.NArg() > 1 {
		cfg.Output.Dir = fs.Arg(1)
	}

	base := fs.Arg(0)
	base = strings.TrimSuffix(strings.TrimSuffix(base, transport.SRCSuffix), transport.MappingSuffix)

	im, out := newPipeline(cfg, transport.DirFetcher{Root: filepath.Dir(base)})
	res, err := im.ImportAsset(context.Background(), filepath.Base(base), math.Vec3{})
	if err != nil {
		fatal("%v", err)
	}
	for _, w := range res.Warnings {
		logger.Warn("import warning", zap.Error(w))
	}

	writeOutput(cfg, im, out)
}

func cmdImport(args []string) {
	cfg, _ := setup("import", args, nil)
	defer logger.Sync()

	if cfg.API.Host == "" || cfg.Model.Teamspace == "" || cfg.Model.Model == "" {
		fmt.Fprintln(os.Stderr, "Usage: srctool import -host <host> -teamspace <ts> -model <model> [-revision <rev>] [-key <key>]")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := transport.NewHTTPFetcher(cfg.API.Scheme, cfg.API.Host, cfg.API.APIKey, cfg.API.Timeout)
	im, out := newPipeline(cfg, fetcher)

	res, err := im.ImportRevision(ctx, cfg.Model.Teamspace, cfg.Model.Model, cfg.Model.Revision, func(r *importer.AssetResult) {
		if r.Err == nil {
			logger.Info("asset done", zap.String("asset", r.URI), zap.Int("triangles", r.Triangles))
		}
	})
	if err != nil && len(res.Assets) == 0 {
		fatal("import failed: %v", err)
	}
	if err != nil {
		logger.Warn("some assets failed", zap.String("job", res.JobID), zap.Error(err))
	}

	writeOutput(cfg, im, out)
}

func cmdServe(args []string) {
	var upstream *bool
	cfg, fs := setup("serve", args, func(fs *flag.FlagSet) {
		upstream = fs.Bool("proxy", false, "Proxy the configured API host instead of serving a directory")
	})
	defer logger.Sync()

	if fs.NArg() > 0 {
		cfg.Server.Root = fs.Arg(0)
	}

	var source transport.Fetcher = transport.DirFetcher{Root: cfg.Server.Root}
	if *upstream {
		if cfg.API.Host == "" {
			fatal("-proxy needs an API host")
		}
		source = transport.NewHTTPFetcher(cfg.API.Scheme, cfg.API.Host, cfg.API.APIKey, cfg.API.Timeout)
	}
	manager := assets.NewManager(source)
	manager.Cacheable = assets.CacheAssets

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Options{Addr: cfg.Server.Addr, APIKey: cfg.API.APIKey}, manager, logger.Named("server"))

	// With a model configured, import it from the served source and stream
	// its id-map to websocket clients.
	if cfg.Model.Teamspace != "" && cfg.Model.Model != "" {
		sm := supermesh.New(nil)
		sm.Diffuse().AddSink(srv.Hub())
		im := importer.New(manager, sm, importer.Options{
			Concurrency:  cfg.Import.Concurrency,
			StrictMeshes: cfg.Import.StrictMeshes,
		}, logger.Named("importer"))

		go func() {
			res, err := im.ImportRevision(ctx, cfg.Model.Teamspace, cfg.Model.Model, cfg.Model.Revision, nil)
			if err != nil {
				logger.Warn("background import finished with errors", zap.Error(err))
			}
			if res != nil {
				logger.Info("background import done", zap.String("job", res.JobID), zap.Int("assets", len(res.Assets)))
			}
		}()
	}

	if err := srv.ListenAndServe(ctx); err != nil {
		fatal("%v", err)
	}
}
