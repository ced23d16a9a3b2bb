package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/Faultbox/supermesh/internal/logger"
	"github.com/Faultbox/supermesh/internal/transport"
	"github.com/Faultbox/supermesh/pkg/mapping"
	"github.com/Faultbox/supermesh/pkg/src"
)

func cmdInfo(args []string) {
	cfg, fs := setup("info", args, nil)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srctool info <file.src.mpc>")
		os.Exit(1)
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fatal("%v", err)
	}

	asset, err := src.Decode(data,
		src.WithLogger(logger.Named("src")),
		src.WithStrictMeshes(cfg.Import.StrictMeshes))
	if err != nil {
		fatal("%v", err)
	}

	compression := "none"
	if asset.Preamble.Compressed() {
		compression = "zlib"
	}

	fmt.Printf("File:         %s\n", fs.Arg(0))
	fmt.Printf("Size:         %d bytes\n", len(data))
	fmt.Printf("Version:      %d\n", asset.Preamble.Version)
	fmt.Printf("Compression:  %s\n", compression)
	fmt.Printf("Header:       %d bytes\n", asset.Preamble.HeaderLength)
	fmt.Printf("Payload:      %d bytes\n", asset.UncompressedSize)
	fmt.Printf("Meshes:       %d\n", len(asset.Meshes))
	fmt.Printf("Triangles:    %d\n", asset.Triangles())
	fmt.Printf("Vertices:     %d\n", asset.Vertices())
	fmt.Println()

	for _, m := range asset.Meshes {
		var channels []string
		if m.Normals != nil {
			channels = append(channels, "normal")
		}
		if m.TexCoords != nil {
			channels = append(channels, "uv0")
		}
		if m.IDs != nil {
			channels = append(channels, "id")
		}
		fmt.Printf("  %-40s %8d tris %8d verts  [%s]\n",
			m.Name, m.TriangleCount(), len(m.Positions), strings.Join(channels, " "))
		for _, e := range m.Errors {
			fmt.Printf("    ! %v\n", e)
		}
	}
	for _, name := range asset.Dropped {
		fmt.Printf("  %-40s dropped\n", name)
	}
}

func cmdDump(args []string) {
	_, fs := setup("dump", args, nil)
	defer logger.Sync()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: srctool dump <file.src.mpc|file.json.mpc>")
		os.Exit(1)
	}

	path := fs.Arg(0)
	data, err := os.ReadFile(path)
	if err != nil {
		fatal("%v", err)
	}

	dumper := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}

	if strings.HasSuffix(path, transport.MappingSuffix) || strings.HasSuffix(path, ".json") {
		m, err := mapping.Parse(data)
		if err != nil {
			fatal("%v", err)
		}
		dumper.Dump(m)
		return
	}

	f, err := src.Parse(data)
	if err != nil {
		fatal("%v", err)
	}
	dumper.Dump(f.Preamble, f.Header)
}
