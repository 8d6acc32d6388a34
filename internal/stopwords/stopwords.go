// Package stopwords loads the external stopword list that feeds the
// search backend's analyzer. The resource is a plain text file, one
// word per line or comma-separated, with # comments.
package stopwords

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Default is the built-in list used when no resource file is
// configured. It covers the most frequent Russian and English
// function words.
var Default = []string{
	"и", "в", "во", "не", "что", "он", "на", "я", "с", "со", "как",
	"а", "то", "все", "она", "так", "его", "но", "да", "ты", "к", "у",
	"же", "вы", "за", "бы", "по", "ее", "мне", "было", "вот", "от",
	"о", "из", "ему",
	"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
	"if", "in", "into", "is", "it", "no", "not", "of", "on", "or",
	"such", "that", "the", "their", "then", "there", "these", "they",
	"this", "to", "was", "will", "with",
}

// Load reads a stopword list from path. An empty path returns the
// default list.
func Load(path string) ([]string, error) {
	if path == "" {
		return Default, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopword list: %w", err)
	}
	defer f.Close()

	var words []string
	seen := make(map[string]struct{})

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		for _, field := range strings.Split(line, ",") {
			word := strings.ToLower(strings.TrimSpace(field))
			if word == "" {
				continue
			}
			if _, dup := seen[word]; dup {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stopword list: %w", err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("stopword list %s: no words found", path)
	}
	return words, nil
}
