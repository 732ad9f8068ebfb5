package app

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/hyperifyio/docscrape/internal/urllist"
)

// collectURLs merges URLs from the config with those in the input file, in
// that order, dropping repeats within the run. The file holds one URL per
// line; blank lines and lines starting with '#' are ignored. An input path
// of "-" reads stdin.
func collectURLs(cfg Config, stdin io.Reader) ([]string, error) {
	var fromFile []string
	if p := strings.TrimSpace(cfg.InputPath); p != "" {
		var r io.Reader
		if p == "-" {
			r = stdin
		} else {
			f, err := os.Open(p)
			if err != nil {
				return nil, &ConfigError{Field: "input", Err: err}
			}
			defer f.Close()
			r = f
		}
		var err error
		fromFile, err = readURLList(r)
		if err != nil {
			return nil, &ConfigError{Field: "input", Err: err}
		}
	}
	urls := urllist.Merge(cfg.URLs, fromFile)
	if len(urls) == 0 {
		return nil, configErr("urls", "no URLs given (pass them as arguments, -urls or -input)")
	}
	return urls, nil
}

func readURLList(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, scanner.Err()
}
