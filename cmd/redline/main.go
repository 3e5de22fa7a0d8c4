/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"redline/internal/backend"
	"redline/internal/config"
	"redline/internal/crash"
	"redline/internal/export"
	applog "redline/internal/log"
	"redline/internal/storage"
	"redline/internal/telemetry"
	"redline/internal/version"
)

func usage() {
	fmt.Println("Redline — drawing annotation toolkit")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  redline version|-v|--version               Show version")
	fmt.Println("  redline validate <sidecar.json>             Check a sidecar file against the annotation schema")
	fmt.Println("  redline info <document>                     Open the document's annotation set and print a summary")
	fmt.Println("  redline export-pdf <document> <out.pdf>     Flatten annotations into an overlay PDF")
	fmt.Println("  redline export-png <document> <out-dir>     Rasterize annotated pages to PNG files")
	fmt.Println("  redline detect <document.pdf> <model>...    Run symbol detection and merge results as external markups")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.SetHandle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Redline — drawing annotation toolkit")
			fmt.Println(version.String())
			return
		case "validate":
			if len(args) < 3 {
				fmt.Println("validate requires <sidecar.json>")
				usage()
				os.Exit(2)
			}
			path := args[2]
			data, err := os.ReadFile(path)
			if err != nil {
				l.Error("read sidecar failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if err := storage.ValidateSetJSON(data); err != nil {
				fmt.Println("Invalid:", err)
				os.Exit(1)
			}
			fmt.Println("OK:", path)
			return
		case "info":
			if len(args) < 3 {
				fmt.Println("info requires <document>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open annotation set", slog.String("document", abs))
			sh, err := storage.OpenSet(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = sh
			printInfo(h)
			return
		case "export-pdf":
			if len(args) < 4 {
				fmt.Println("export-pdf requires <document> and <out.pdf>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			out := args[3]
			sh, err := storage.OpenSet(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = sh
			l.Info("export pdf", slog.String("document", abs), slog.String("out", out))
			if err := export.ExportPDF(h, out, export.PDFOptions{}); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			telemetry.Event("export_done", map[string]any{"format": "pdf"})
			fmt.Println("Wrote", out)
			return
		case "export-png":
			if len(args) < 4 {
				fmt.Println("export-png requires <document> and <out-dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			outDir := args[3]
			sh, err := storage.OpenSet(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = sh
			l.Info("export png", slog.String("document", abs), slog.String("dir", outDir))
			if err := export.ExportPNGPages(h, outDir, export.PNGOptions{}); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			telemetry.Event("export_done", map[string]any{"format": "png"})
			fmt.Println("Wrote page rasters to", outDir)
			return
		case "detect":
			if len(args) < 4 {
				fmt.Println("detect requires <document.pdf> and at least one <model>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			models := args[3:]
			runDetect(l, abs, models, &h)
			return
		}
	}

	usage()
}

func printInfo(h *storage.SetHandle) {
	fmt.Println("Document:", h.DocumentPath)
	fmt.Println("Sidecar:", h.SidecarPath)
	fmt.Println("Markups:", len(h.Set.Markups))
	perPage := map[int]int{}
	external := 0
	for _, m := range h.Set.Markups {
		perPage[m.PageIndex]++
		if m.External {
			external++
		}
	}
	for page, n := range perPage {
		fmt.Printf("  page %d: %d\n", page+1, n)
	}
	if external > 0 {
		fmt.Printf("External (unadopted): %d\n", external)
	}
	if !h.Set.UpdatedAt.IsZero() {
		fmt.Println("Last saved:", h.Set.UpdatedAt.Format(time.RFC3339))
	}
}

func runDetect(l *slog.Logger, document string, models []string, out **storage.SetHandle) {
	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}

	sh, err := storage.OpenSet(document)
	if err != nil {
		// a document with no sidecar yet is still detectable
		sh, err = storage.InitSet(document)
		if err != nil {
			l.Error("init annotation set failed", slog.Any("err", err))
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}
	*out = sh

	cli := backend.NewClient(cfg.Detector.BaseURL, token)
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Detector.TimeoutMs)*time.Millisecond)
	defer cancel()

	l.Info("detect", slog.String("document", document), slog.Any("models", models))
	resp, err := cli.DetectSymbols(ctx, backend.DetectRequest{
		PDFPath:  document,
		ModelIDs: models,
		Filename: filepath.Base(document),
	})
	if err != nil {
		l.Error("detect failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	imported := backend.DetectionsToMarkups(resp.Detections, document)
	before := len(sh.Set.Markups)
	sh.Set.Markups = storage.Reconcile(sh.Set.Markups, imported)
	added := len(sh.Set.Markups) - before
	if err := storage.SaveSet(sh); err != nil {
		l.Error("save failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	fmt.Printf("Detected %d symbols, merged %d new markups into %s\n", resp.Count, added, sh.SidecarPath)
}
