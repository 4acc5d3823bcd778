package pipeline

import "errors"

var (
	ErrMissingData    = errors.New("no tables extracted")
	ErrColumnSchema   = errors.New("expected column missing")
	ErrDateParse      = errors.New("date could not be parsed")
	ErrRecordCount    = errors.New("no records to inject")
	ErrTemplateFormat = errors.New("template sheet missing")
	ErrLayout         = errors.New("date bounds unreadable")
	ErrFilenameFormat = errors.New("filename format does not match expected pattern")
)
