package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	fileAdapter "github.com/aretw0/funnel/pkg/adapters/file"
	"github.com/aretw0/funnel/internal/validator"
)

// Validate checks every definition file under path: the document against the JSON Schema,
// then the decoded definition for broken references and rules. It prints one line per issue
// and returns an error when any file has errors, or warnings in strict mode.
func Validate(path string, strict bool, out io.Writer) error {
	files, err := definitionFiles(path)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no definition files found in %s", path)
	}

	failed := 0
	for _, f := range files {
		report, err := validateFile(f)
		if err != nil {
			return err
		}
		for _, issue := range report.Issues {
			fmt.Fprintf(out, "%s: %s: %s\n", f, issue.Severity, issue)
		}
		if report.Err(strict) != nil {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d definitions are invalid", failed, len(files))
	}
	fmt.Fprintf(out, "%d definition(s) valid\n", len(files))
	return nil
}

func validateFile(path string) (*validator.Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if report := validator.Document(raw); len(report.Errors()) > 0 {
		return report, nil
	}
	def, err := fileAdapter.ReadDefinition(path)
	if err != nil {
		report := &validator.Report{}
		report.Issues = append(report.Issues, validator.Issue{Severity: validator.SeverityError, Message: err.Error()})
		return report, nil
	}
	return validator.Definition(def), nil
}

func definitionFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != path && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".yaml", ".yml", ".json":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}
