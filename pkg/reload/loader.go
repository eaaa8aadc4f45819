package reload

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/remoteui/internal/logging"
	"github.com/aretw0/remoteui/pkg/render"
	"github.com/aretw0/remoteui/pkg/ui"
)

// BuiltinSource names bindings produced by BuiltinLoader.
const BuiltinSource = "builtin"

// BuiltinLoader binds the compiled-in Home screen with a fresh default catalog.
type BuiltinLoader struct{}

// Load implements Loader.
func (BuiltinLoader) Load(context.Context) (*Bindings, error) {
	return &Bindings{
		Source:   BuiltinSource,
		Catalog:  ui.DefaultCatalog(),
		Renderer: render.Home{},
	}, nil
}

// ScriptLoader binds every *.js file of a directory, evaluated in lexical
// order in one fresh runtime.
type ScriptLoader struct {
	Dir string

	// Base is cloned for each generation; nil means ui.DefaultCatalog.
	Base *ui.Catalog

	// Timeout bounds evaluation and each render; zero means render.DefaultScriptTimeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// Load implements Loader.
func (l *ScriptLoader) Load(ctx context.Context) (*Bindings, error) {
	sources, err := l.sources()
	if err != nil {
		return nil, err
	}

	catalog := ui.DefaultCatalog()
	if l.Base != nil {
		catalog = l.Base.Clone()
	}

	logger := l.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	script, err := render.NewScript(ctx, catalog, sources,
		render.WithTimeout(l.Timeout),
		render.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	return &Bindings{
		Source:   l.Dir + ":" + script.Name(),
		Catalog:  catalog,
		Renderer: script,
	}, nil
}

func (l *ScriptLoader) sources() ([]render.Source, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory: %w", err)
	}

	var sources []render.Source
	for _, entry := range entries {
		if entry.IsDir() || !IsScript(entry.Name()) {
			continue
		}
		path := filepath.Join(l.Dir, entry.Name())
		code, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", entry.Name(), err)
		}
		sources = append(sources, render.Source{Name: entry.Name(), Code: string(code)})
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no .js files in %s", l.Dir)
	}
	return sources, nil
}

// IsScript reports whether name is a render module file.
func IsScript(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(base, ".js") && !strings.HasPrefix(base, ".")
}
