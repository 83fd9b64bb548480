// Package wordlist loads word lists from files or the bundled set.
package wordlist

import (
	"bufio"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

const quotesFile = "quotes"

//go:embed data/*.txt
var bundled embed.FS

// ErrUnknownLang is returned when no bundled list exists for a language.
var ErrUnknownLang = errors.New("no bundled word list")

// LoadWords reads one word per line from the provided file path.
func LoadWords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only word list.
			_ = cerr
		}
	}()
	return readLines(file)
}

// Builtin returns the bundled word list for lang.
func Builtin(lang string) ([]string, error) {
	lang = strings.ToLower(lang)
	if lang == quotesFile {
		return nil, fmt.Errorf("%w for %q", ErrUnknownLang, lang)
	}
	file, err := bundled.Open(path.Join("data", lang+".txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for %q", ErrUnknownLang, lang)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			_ = cerr
		}
	}()
	return readLines(file)
}

// Load reads words from path when set, otherwise from the bundled list for
// lang, and applies the language filter.
func Load(path, lang string) ([]string, error) {
	var words []string
	var err error
	if path != "" {
		words, err = LoadWords(path)
	} else {
		words, err = Builtin(lang)
	}
	if err != nil {
		return nil, err
	}
	filter := FilterForLang(lang)
	kept := words[:0]
	for _, w := range words {
		if filter(w) {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("word list has no usable words for %q", lang)
	}
	return kept, nil
}

// Langs lists the languages with a bundled word list.
func Langs() ([]string, error) {
	entries, err := bundled.ReadDir("data")
	if err != nil {
		return nil, err
	}
	var langs []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".txt")
		if name == quotesFile {
			continue
		}
		langs = append(langs, name)
	}
	sort.Strings(langs)
	return langs, nil
}

// Quotes returns the bundled quotes, one per entry.
func Quotes() ([]string, error) {
	file, err := bundled.Open(path.Join("data", quotesFile+".txt"))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			_ = cerr
		}
	}()
	return readLines(file)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("word list is empty")
	}
	return lines, nil
}
