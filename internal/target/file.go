package target

import (
	"bufio"
	"os"
	"strings"

	"osint-automater/internal/models"
)

// ReadTargetFile Returns every non-empty, stripped line of a target file
func ReadTargetFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &models.InputError{Path: path, Err: err}
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &models.InputError{Path: path, Err: err}
	}
	return lines, nil
}

// Resolve Turns a CLI target argument into the literal target list.
// An argument naming an existing file is read line by line; anything else is a single
// target. Each entry is refanged and range-expanded. Duplicates are dropped so every
// target is queried once.
func Resolve(arg string) ([]string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, &models.InputError{Path: arg, Err: os.ErrNotExist}
	}

	entries := []string{arg}
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		entries, err = ReadTargetFile(arg)
		if err != nil {
			return nil, err
		}
	}

	return ExpandAll(entries), nil
}

// ExpandAll Refangs and expands each entry, dropping duplicates while keeping order
func ExpandAll(entries []string) []string {
	seen := make(map[string]bool)
	var targets []string
	for _, entry := range entries {
		entry = Refang(entry)
		if entry == "" {
			continue
		}
		for t := range Expand(entry) {
			if !seen[t] {
				seen[t] = true
				targets = append(targets, t)
			}
		}
	}
	return targets
}
