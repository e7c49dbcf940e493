package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Input is the content of a legacy input file: one value per line in the
// order profile URL, post count, email, password, headless (y/n).
type Input struct {
	ProfileURL string
	Posts      int
	Email      string
	Password   string
	Headless   bool
}

// ParseInputFile reads an input file. Blank lines are ignored.
func ParseInputFile(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}

	if len(lines) < 5 {
		return nil, fmt.Errorf("input file %s has %d values, need 5 (url, posts, email, password, headless)", path, len(lines))
	}

	posts, err := strconv.Atoi(lines[1])
	if err != nil || posts <= 0 {
		return nil, fmt.Errorf("invalid post count %q in input file", lines[1])
	}

	return &Input{
		ProfileURL: lines[0],
		Posts:      posts,
		Email:      lines[2],
		Password:   lines[3],
		Headless:   strings.HasPrefix(strings.ToLower(lines[4]), "y"),
	}, nil
}
