package extractor

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// openZip 把字节切片当作 zip 包打开，OOXML 的三种格式都走这里。
func openZip(data []byte) (*zip.Reader, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid ooxml archive: %w", err)
	}
	return r, nil
}

// readZipFile 读出 zip 包内指定路径的完整内容。
func readZipFile(r *zip.Reader, name string) ([]byte, error) {
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry %s not found in archive", name)
}
