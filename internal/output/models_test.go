package output

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taintgraph/droidtaint/internal/classhierarchy"
	"github.com/taintgraph/droidtaint/internal/domain"
	"github.com/taintgraph/droidtaint/internal/feature"
	"github.com/taintgraph/droidtaint/internal/ir"
	"github.com/taintgraph/droidtaint/internal/kind"
	"github.com/taintgraph/droidtaint/internal/model"
	"github.com/taintgraph/droidtaint/internal/path"
	"github.com/taintgraph/droidtaint/internal/position"
	"github.com/taintgraph/droidtaint/internal/registry"
)

func sourceModelForProjection(f *kind.Factory, method string) model.Model {
	m := model.New(method)
	taint := domain.NewTaint().WithLocal(
		domain.NewLocalTaint(domain.CallInfo{Tag: domain.Origin, Position: position.Unknown}).
			AddFrame(classhierarchy.Top, domain.Frame{
				Kind:           f.Named("UserInput"),
				Distance:       0,
				UserFeatures:   feature.NewSet(),
				CanonicalNames: []string{"android.content.Intent"},
			}))
	m.WriteGeneration(path.Return(), path.Path{}, taint, domain.Weak)
	return m
}

func TestProjectModelGenerationsRoundTrip(t *testing.T) {
	f := kind.NewFactory()
	m := sourceModelForProjection(f, "LSource;.getInput()Ljava/lang/String;")
	doc := ProjectModel("LSource;.getInput()Ljava/lang/String;", m)

	if doc.Method != "LSource;.getInput()Ljava/lang/String;" {
		t.Fatalf("got method %q", doc.Method)
	}
	if len(doc.Generations) != 1 {
		t.Fatalf("expected exactly one generation entry, got %d: %+v", len(doc.Generations), doc.Generations)
	}
	cfg := doc.Generations[0]
	if cfg.Kind != "UserInput" {
		t.Fatalf("got kind %q", cfg.Kind)
	}
	if cfg.Port != "Return" {
		t.Fatalf("got port %q", cfg.Port)
	}
	if len(cfg.CanonicalNames) != 1 || cfg.CanonicalNames[0] != "android.content.Intent" {
		t.Fatalf("got canonical names %+v", cfg.CanonicalNames)
	}
}

func TestProjectModelEmptyTreeYieldsNoEntries(t *testing.T) {
	m := model.New("LEmpty;.noop()V")
	doc := ProjectModel("LEmpty;.noop()V", m)
	if len(doc.Generations) != 0 || len(doc.Sinks) != 0 || len(doc.Propagation) != 0 {
		t.Fatalf("expected no entries for a fresh model, got %+v", doc)
	}
}

func TestWriteModelShardsDistributesAcrossFiles(t *testing.T) {
	f := kind.NewFactory()
	reg := registry.New()
	for i := 0; i < 20; i++ {
		id := ir.MethodID{Class: "LFoo;", Name: "m", Signature: "(I)V"}
		id.Name = id.Name + string(rune('a'+i))
		reg.Set(id, sourceModelForProjection(f, id.String()))
	}

	dir := t.TempDir()
	if err := WriteModelShards(dir, reg, 4); err != nil {
		t.Fatalf("WriteModelShards: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("expected 4 shard files, got %d", len(entries))
	}

	total := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "model@") {
			t.Fatalf("unexpected file %s", e.Name())
		}
		file, err := os.Open(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		scanner := bufio.NewScanner(file)
		lineNo := 0
		for scanner.Scan() {
			line := scanner.Text()
			if lineNo == 0 {
				if line != "// @generated" {
					t.Fatalf("expected @generated header, got %q", line)
				}
			} else {
				total++
			}
			lineNo++
		}
		file.Close()
	}
	if total != 20 {
		t.Fatalf("expected 20 total model lines across shards, got %d", total)
	}
}

func TestWriteModelShardsIsDeterministic(t *testing.T) {
	f := kind.NewFactory()
	reg := registry.New()
	for i := 0; i < 10; i++ {
		id := ir.MethodID{Class: "LBar;", Name: "m", Signature: "(I)V"}
		id.Name = id.Name + string(rune('a'+i))
		reg.Set(id, sourceModelForProjection(f, id.String()))
	}

	dir1, dir2 := t.TempDir(), t.TempDir()
	if err := WriteModelShards(dir1, reg, 3); err != nil {
		t.Fatalf("WriteModelShards: %v", err)
	}
	if err := WriteModelShards(dir2, reg, 3); err != nil {
		t.Fatalf("WriteModelShards: %v", err)
	}
	for _, name := range []string{"model@0000.json", "model@0001.json", "model@0002.json"} {
		a, err := os.ReadFile(filepath.Join(dir1, name))
		if err != nil {
			t.Fatalf("ReadFile %s: %v", name, err)
		}
		b, err := os.ReadFile(filepath.Join(dir2, name))
		if err != nil {
			t.Fatalf("ReadFile %s: %v", name, err)
		}
		if string(a) != string(b) {
			t.Fatalf("shard %s differs between runs", name)
		}
	}
}
