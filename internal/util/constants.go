package util

// ExportTimeFormat 导出成绩时使用的时间格式
const ExportTimeFormat = "2006-01-02 15:04"

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	MimeZip = "application/zip"
	MimePDF = "application/pdf"
	MimeCSV = "text/csv"
)

var AllowedImportExtensions = []string{".docx", ".txt", ".md"}
