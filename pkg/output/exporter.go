// Package output renders scan reports. Exporters are sinks: the scan
// core hands over an ordered report and has no idea whether it ends up
// on a console, in a JSON stream or in a spreadsheet.
package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/dupescout/pkg/models"
)

// Exporter defines the interface for rendering a scan report
// Implementations include human-readable, JSON and XLSX exporters.
type Exporter interface {
	// Export writes the report to w. A report with zero duplicate
	// groups must be handled without error.
	Export(w io.Writer, report *models.ScanReport) error

	// Name returns the exporter name
	Name() string
}

// New returns the exporter registered under the given name
func New(name string) (Exporter, error) {
	switch name {
	case "human", "":
		return NewHumanExporter(), nil
	case "json":
		return NewJSONExporter(), nil
	case "xlsx":
		return NewXLSXExporter(), nil
	default:
		return nil, fmt.Errorf("unknown output format: %s (use: human, json, xlsx)", name)
	}
}
