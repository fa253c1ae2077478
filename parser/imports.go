package parser

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// PreprocessImports inlines `import "name";` lines. The imported file is
// looked up next to the importing one as lower-case name.cool; a leading
// `module` line in it is dropped. Imports are resolved recursively and each
// file is inlined once.
func PreprocessImports(code string, baseDir string) (string, error) {
	return preprocess(code, baseDir, map[string]bool{})
}

func preprocess(code, baseDir string, seen map[string]bool) (string, error) {
	lines := strings.Split(code, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "import ") && !strings.HasPrefix(trimmed, "import\"") {
			result = append(result, line)
			continue
		}

		filename := strings.ToLower(strings.Trim(strings.TrimPrefix(trimmed, "import"), " \";"))
		if !strings.HasSuffix(filename, ".cool") {
			filename += ".cool"
		}
		importPath := filepath.Join(baseDir, filename)
		if seen[importPath] {
			continue
		}
		seen[importPath] = true

		content, err := os.ReadFile(importPath)
		if err != nil {
			return "", errors.Wrapf(err, "failed to import %s", filename)
		}

		body := stripModuleLine(string(content))
		inlined, err := preprocess(body, filepath.Dir(importPath), seen)
		if err != nil {
			return "", errors.Wrapf(err, "in %s", filename)
		}
		result = append(result, inlined)
	}

	return strings.Join(result, "\n"), nil
}

func stripModuleLine(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "module") {
			// keep the line count stable for diagnostics
			lines[i] = ""
		}
		break
	}
	return strings.Join(lines, "\n")
}
