package util

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidChunkSize возвращается Chunk при размере группы меньше единицы.
var ErrInvalidChunkSize = errors.New("chunk size must be positive")

// OutputPrefix: префикс имени заполненного файла.
const OutputPrefix = "Filled_"

// ParseCodes разбивает текст на строки, обрезает пробелы и отбрасывает пустые строки.
func ParseCodes(raw string) []string {
	lines := strings.FieldsFunc(raw, isLineBreak)

	codes := make([]string, 0, len(lines))
	for _, line := range lines {
		if code := strings.TrimSpace(line); code != "" {
			codes = append(codes, code)
		}
	}
	return codes
}

// isLineBreak: все границы строк Unicode, включая \v, \f, разделители
// файлов/групп/записей (0x1C-0x1E), NEL и U+2028/U+2029.
func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', '\x1c', '\x1d', '\x1e', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

// Chunk делит коды на последовательные группы по size штук.
// Последняя группа может быть короче.
func Chunk(codes []string, size int) ([][]string, error) {
	if size < 1 {
		return nil, ErrInvalidChunkSize
	}

	chunks := make([][]string, 0, (len(codes)+size-1)/size)
	for start := 0; start < len(codes); start += size {
		end := start + size
		if end > len(codes) {
			end = len(codes)
		}
		chunks = append(chunks, codes[start:end:end])
	}
	return chunks, nil
}

// OutputName возвращает имя заполненного файла: Filled_<имя шаблона>.
// Путь, который мог прислать браузер, отбрасывается.
func OutputName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" {
		base = "presentation.pptx"
	}
	return OutputPrefix + base
}
