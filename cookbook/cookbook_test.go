package cookbook_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/recipeshift/recipeshift/attr"
	"github.com/recipeshift/recipeshift/cookbook"
)

// writeCookbook lays out a cookbook directory for tests.
func writeCookbook(t *testing.T, files map[string]string) (dir string, done func()) {
	t.Helper()
	dir, err := ioutil.TempDir("", "cookbook")
	if err != nil {
		t.Fatal(err)
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir, func() { os.RemoveAll(dir) }
}

func TestLoad(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		"metadata.rb":           "name 'mycookbook'\nversion '1.0.0'\n",
		"recipes/default.rb":    "package 'nginx'\n",
		"recipes/app.rb":        "package 'vim'\n",
		"attributes/default.rb": "default['app']['port'] = 80\n",
		"resources/app_conf.rb": "property :port, Integer\n",
		"recipes/README.md":     "not a recipe\n",
	})
	defer done()

	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cb.Name != "mycookbook" {
		t.Errorf("Name = %q, want the metadata name", cb.Name)
	}

	var recipes []string
	for _, f := range cb.Recipes {
		recipes = append(recipes, f.Name)
	}
	// Sorted by name; non-.rb files are ignored.
	want := []string{"app", "default"}
	if diff := cmp.Diff(want, recipes); diff != "" {
		t.Errorf("Recipes (-want +got)\n%s", diff)
	}

	if len(cb.Attributes) != 1 || len(cb.Resources) != 1 {
		t.Errorf("Attributes = %d, Resources = %d, want 1 each", len(cb.Attributes), len(cb.Resources))
	}
}

func TestLoad_nameFallsBackToDirectory(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		"recipes/default.rb": "package 'vim'\n",
	})
	defer done()
	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cb.Name != filepath.Base(dir) {
		t.Errorf("Name = %q, want directory name %q", cb.Name, filepath.Base(dir))
	}
}

func TestLoad_missing(t *testing.T) {
	if _, err := cookbook.Load("/nonexistent/cookbook"); err == nil {
		t.Errorf("Load() = nil error for a missing directory")
	}
}

func TestResolveAttributes_crossFileOrder(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		// Files scan in sorted order, so b.rb declares later and wins ties.
		"attributes/a.rb": "default['app']['port'] = 80\n",
		"attributes/b.rb": "default['app']['port'] = 8080\n",
	})
	defer done()
	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	table, diags := cb.ResolveAttributes()
	if len(diags) != 0 {
		t.Fatalf("ResolveAttributes() diags = %v", diags)
	}
	eff, ok := table.Lookup([]string{"app", "port"})
	if !ok {
		t.Fatalf("app.port not resolved")
	}
	if eff.Value.Source() != "8080" {
		t.Errorf("app.port = %s, want the later file's value", eff.Value.Source())
	}
	if eff.WinningPrecedence != attr.Default {
		t.Errorf("precedence = %v", eff.WinningPrecedence)
	}
}

func TestParseSchemas_nameDefaultsToFile(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		"resources/app_conf.rb": "property :port, Integer\n",
	})
	defer done()
	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	schemas, diags := cb.ParseSchemas()
	if len(diags) != 0 {
		t.Fatalf("ParseSchemas() diags = %v", diags)
	}
	if _, ok := schemas["app_conf"]; !ok {
		t.Errorf("schemas = %v, want key app_conf from the file name", schemas)
	}
}

func TestConvert(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		"metadata.rb":           "name 'web'\n",
		"attributes/default.rb": "default['web']['pkg'] = 'nginx'\n",
		"recipes/default.rb": `package node['web']['pkg']

service 'nginx' do
  action [:enable, :start]
end
`,
		"recipes/extra.rb": "package 'curl'\n",
	})
	defer done()

	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	conv, err := cb.Convert(context.Background(), nil)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}

	if len(conv.Recipes) != 2 {
		t.Fatalf("got %d recipe results, want 2", len(conv.Recipes))
	}
	// Results keep recipe file order regardless of completion order.
	if conv.Recipes[0].File.Name != "default" || conv.Recipes[1].File.Name != "extra" {
		t.Errorf("result order = %s, %s", conv.Recipes[0].File.Name, conv.Recipes[1].File.Name)
	}

	def := conv.Recipes[0].Result
	if def.Diags.HasErrors() {
		t.Fatalf("default recipe errors: %v", def.Diags)
	}
	if len(def.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(def.Tasks))
	}
	// The attribute table resolved during conversion feeds value rendering.
	if v, _ := def.Tasks[0].Param("name"); v != "nginx" {
		t.Errorf("package name = %v, want value from attributes", v)
	}

	if conv.Attributes.Len() != 1 {
		t.Errorf("Attributes.Len() = %d", conv.Attributes.Len())
	}
}

func TestConvert_cancelled(t *testing.T) {
	dir, done := writeCookbook(t, map[string]string{
		"recipes/default.rb": "package 'vim'\n",
	})
	defer done()
	cb, err := cookbook.Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cb.Convert(ctx, nil); err == nil {
		t.Errorf("Convert() = nil error with a cancelled context")
	}
}
