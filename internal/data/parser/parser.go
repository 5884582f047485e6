package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/penwyp/go-team-monitor/internal/util"
)

// Entry is one line of an event replay file:
//
//	{"team": "sales", "type": "lead", "payload": {"name": "acme"}}
//
// Team may be omitted to use the default team.
type Entry struct {
	Team    string          `json:"team"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`

	File string `json:"-"`
	Line int    `json:"-"`
}

// Parser reads replay files
type Parser struct {
	concurrency int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File    string
	Entries []Entry
	Skipped int
	Error   error
}

// NewParser creates a new Parser instance.
func NewParser(concurrency int) *Parser {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile reads one replay file. Blank lines are ignored; lines that are
// not JSON or carry no type are skipped and counted.
func (p *Parser) ParseFile(path string) ([]Entry, int, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open replay file: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	lineCount, skipped := 0, 0
	for scanner.Scan() {
		lineCount++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := sonic.UnmarshalString(line, &entry); err != nil {
			util.LogDebug(fmt.Sprintf("Skip invalid JSON line %s:%d - %v", path, lineCount, err))
			skipped++
			continue
		}
		if entry.Type == "" {
			util.LogDebug(fmt.Sprintf("Skip line without type %s:%d", path, lineCount))
			skipped++
			continue
		}
		entry.File = path
		entry.Line = lineCount
		entries = append(entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("failed to read replay file %s: %w", path, err)
	}
	return entries, skipped, nil
}

// ParseFiles parses files concurrently. Results come back in the order of
// files regardless of which finishes first.
func (p *Parser) ParseFiles(files []string) []ParseResult {
	start := time.Now()
	results := make([]ParseResult, len(files))
	semaphore := make(chan struct{}, p.concurrency)

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, f string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			entries, skipped, err := p.ParseFile(f)
			results[i] = ParseResult{File: f, Entries: entries, Skipped: skipped, Error: err}
		}(i, file)
	}
	wg.Wait()

	util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	return results
}
