package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileSource 从文本文件读取词条：每行一个，忽略空行与 # 开头的注释行。
type FileSource struct {
	path string
}

// NewFileSource 创建文件来源。
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Path 返回文件路径。
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Terms(ctx context.Context) ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	return ReadTerms(ctx, f)
}

// ReadTerms 按行解析词条。
func ReadTerms(ctx context.Context, r io.Reader) ([]string, error) {
	var terms []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan terms: %w", err)
	}
	return terms, nil
}
