package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"gopkg.in/yaml.v3"
)

// GenerateReport writes the result in the given format. With an empty path
// the file name is timestamped. "all" writes every registered format and
// ignores path. It returns the files written.
func GenerateReport(result *domain.PlanResult, format, path string) ([]string, error) {
	if NormalizeFormatName(format) == "all" {
		stamp := time.Now().Format("20060102_150405")
		var written []string
		for _, name := range AvailableFormatterNames() {
			filename := fmt.Sprintf("income_plan_%s_%s.%s", stamp, name, Extension(name))
			if err := WriteFormattedTo(GetFormatterByName(name), result, filename); err != nil {
				return written, err
			}
			written = append(written, filename)
		}
		return written, nil
	}

	f := GetFormatterByName(format)
	if f == nil {
		// enrich error with available formatters and aliases
		return nil, fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format, strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
	}
	if path == "" {
		filename, err := WriteFormatted(f, result, Extension(f.Name()))
		if err != nil {
			return nil, err
		}
		return []string{filename}, nil
	}
	if err := WriteFormattedTo(f, result, path); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// SavePlan writes a plan request as YAML so it can be rerun with `plan -c`.
func SavePlan(req *domain.PlanRequest, filename string) error {
	b, err := yaml.Marshal(req)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, b, 0644)
}
