package constants

type FileType struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var FileTypes = []FileType{
	{Value: "pdf", Label: "PDF Documents (.pdf)"},
	{Value: "xlsx", Label: "Excel Spreadsheets (.xlsx)"},
	{Value: "docx", Label: "Word Documents (.docx)"},
	{Value: "pptx", Label: "PowerPoint Presentations (.pptx)"},
	{Value: "jpg", Label: "JPEG Images (.jpg)"},
	{Value: "png", Label: "PNG Images (.png)"},
	{Value: "zip", Label: "ZIP Archives (.zip)"},
	{Value: "csv", Label: "CSV Files (.csv)"},
	{Value: "all", Label: "All File Types"},
}

func IsFileType(value string) bool {
	for _, fileType := range FileTypes {
		if fileType.Value == value {
			return true
		}
	}
	return false
}

// FileTypeLabel returns the display label of value, or value itself when it
// is not a known file type.
func FileTypeLabel(value string) string {
	for _, fileType := range FileTypes {
		if fileType.Value == value {
			return fileType.Label
		}
	}
	return value
}
