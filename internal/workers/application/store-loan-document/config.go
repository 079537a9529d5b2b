// internal/workers/application/store-loan-document/config.go
package storeloandocument

import "os"

type Config struct {
	Dir       string
	FieldName string
	DirMode   os.FileMode
	FileMode  os.FileMode
}

func DefaultConfig() *Config {
	return &Config{
		Dir:       "uploads",
		FieldName: "loanDocument",
		DirMode:   0o755,
		FileMode:  0o644,
	}
}
