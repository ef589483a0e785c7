package resolver

import (
	"testing"

	"tangle/internal/scanner"
)

func fileMap(rels ...string) scanner.FileMap {
	fm := make(scanner.FileMap, len(rels))
	for _, rel := range rels {
		fm[rel] = &scanner.FileEntry{RelPath: rel}
	}
	return fm
}

func TestResolveExtensionSwap(t *testing.T) {
	// "./x" imported from a/b.ts prefers the typed sibling.
	known := fileMap("a/b.ts", "a/x.ts")
	res := Resolve("./x", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.ts" || res.Key.Kind != KindInternal {
		t.Fatalf("got %+v, want existing internal a/x.ts", res)
	}
	if !res.Typed {
		t.Error("a/x.ts should be reported as typed")
	}

	// With only the untyped sibling present the same specifier still resolves.
	known = fileMap("a/b.ts", "a/x.js")
	res = Resolve("./x", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.js" {
		t.Fatalf("got %+v, want existing internal a/x.js", res)
	}
	if res.Typed {
		t.Error("a/x.js should not be reported as typed")
	}

	// A ".js" specifier maps onto typed source authored as ".ts".
	known = fileMap("a/b.ts", "a/x.ts")
	res = Resolve("./x.js", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.ts" {
		t.Fatalf("got %+v, want a/x.ts for ./x.js", res)
	}
}

func TestResolveModuleSuffixSwap(t *testing.T) {
	// ".mjs" and ".cjs" specifiers prefer the plain typed siblings before
	// their module-flavored variants.
	known := fileMap("a/b.ts", "a/x.ts")
	res := Resolve("./x.mjs", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.ts" {
		t.Fatalf("got %+v, want a/x.ts for ./x.mjs", res)
	}

	known = fileMap("a/b.ts", "a/x.tsx")
	res = Resolve("./x.cjs", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.tsx" {
		t.Fatalf("got %+v, want a/x.tsx for ./x.cjs", res)
	}

	// The module-flavored typed variant still wins over the untyped one.
	known = fileMap("a/b.ts", "a/x.mts", "a/x.mjs")
	res = Resolve("./x.mjs", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.mts" {
		t.Fatalf("got %+v, want a/x.mts for ./x.mjs", res)
	}

	known = fileMap("a/b.ts", "a/x.cjs")
	res = Resolve("./x.cjs", "a/b.ts", known)
	if !res.Exists || res.Key.Name != "a/x.cjs" || res.Typed {
		t.Fatalf("got %+v, want untyped a/x.cjs fallback", res)
	}
}

func TestResolveIndexFallback(t *testing.T) {
	known := fileMap("src/app.ts", "src/lib/index.ts")
	res := Resolve("./lib", "src/app.ts", known)
	if !res.Exists || res.Key.Name != "src/lib/index.ts" {
		t.Fatalf("got %+v, want src/lib/index.ts", res)
	}

	// A direct file beats the directory index.
	known = fileMap("src/app.ts", "src/lib.ts", "src/lib/index.ts")
	res = Resolve("./lib", "src/app.ts", known)
	if res.Key.Name != "src/lib.ts" {
		t.Fatalf("got %+v, want src/lib.ts to win over the index", res)
	}
}

func TestResolveDottedBasename(t *testing.T) {
	// "./foo.service" has a non-script extension and resolves via the bare
	// candidate order.
	known := fileMap("src/app.ts", "src/foo.service.ts")
	res := Resolve("./foo.service", "src/app.ts", known)
	if !res.Exists || res.Key.Name != "src/foo.service.ts" {
		t.Fatalf("got %+v, want src/foo.service.ts", res)
	}
}

func TestResolveExternal(t *testing.T) {
	res := Resolve("react", "src/app.ts", fileMap("src/app.ts"))
	if res.Key.Kind != KindExternal || res.Key.Name != "react" || !res.Exists {
		t.Fatalf("got %+v, want existing external react", res)
	}

	// Scoped packages and subpath imports stay external verbatim.
	res = Resolve("@angular/core", "src/app.ts", nil)
	if res.Key.Kind != KindExternal || res.Key.Name != "@angular/core" {
		t.Fatalf("got %+v, want external @angular/core", res)
	}
}

func TestResolveMissing(t *testing.T) {
	known := fileMap("src/app.ts")
	res := Resolve("./gone", "src/app.ts", known)
	if res.Exists {
		t.Fatalf("got %+v, want non-existing resolution", res)
	}
	if res.Key.Kind != KindInternal || res.Key.Name != "src/gone" {
		t.Fatalf("got %+v, want internal src/gone", res)
	}
}

func TestResolveOptimisticWithoutFileMap(t *testing.T) {
	res := Resolve("../util/log.ts", "src/app/main.ts", nil)
	if !res.Exists || res.Key.Name != "src/util/log.ts" {
		t.Fatalf("got %+v, want optimistic src/util/log.ts", res)
	}
	if !res.Typed {
		t.Error("optimistic .ts resolution should be typed")
	}
}

func TestResolveAbsoluteSpecifier(t *testing.T) {
	known := fileMap("src/shared/env.ts")
	res := Resolve("/src/shared/env", "src/app.ts", known)
	if !res.Exists || res.Key.Name != "src/shared/env.ts" {
		t.Fatalf("got %+v, want src/shared/env.ts", res)
	}
}

func TestRelativeDepth(t *testing.T) {
	cases := []struct {
		spec string
		want int
	}{
		{"./x", 0},
		{"../x", 1},
		{"../../../shared/util", 3},
	}
	for _, tc := range cases {
		if got := RelativeDepth(tc.spec); got != tc.want {
			t.Errorf("RelativeDepth(%q) = %d, want %d", tc.spec, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"./a/b.ts", "a/b.ts"},
		{"a//b.ts", "a/b.ts"},
		{"/a/b.ts", "a/b.ts"},
		{".", ""},
	}
	for _, tc := range cases {
		if got := normalize(tc.in); got != tc.want {
			t.Errorf("normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
