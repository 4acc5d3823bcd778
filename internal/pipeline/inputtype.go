package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"reimburse/internal"
)

// ParseInputType maps a --type flag value to an input type. An empty value
// means "decide from the file extension".
func ParseInputType(value string) (internal.InputType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return "", nil
	case "pdf":
		return internal.InputPDF, nil
	case "xlsx", "xls":
		return internal.InputXLSX, nil
	default:
		return "", fmt.Errorf("unsupported input type: %s", value)
	}
}

func DetectInputType(path string) internal.InputType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return internal.InputXLSX
	default:
		return internal.InputPDF
	}
}
