package annotation

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"
)

// IgnoreRegexp finds the covergate ignore directive. Two kinds are
// supported:
//
//   - `//+covergate:ignore:file`
//     excludes the whole file from the analysis.
//
//   - `//+covergate:ignore:block`
//     excludes a code block. The block starts at the directive line and
//     runs until the next blank line, so a directive on a brace line
//     covers the statement it opens:
//
//     if err != nil { //+covergate:ignore:block
//         return err
//     }
var IgnoreRegexp = regexp.MustCompile(`//\+covergate:ignore:(file|block)`)

// IgnoreKind indicates the scope of an ignore profile.
type IgnoreKind string

const (
	IgnoreFile  IgnoreKind = "file"
	IgnoreBlock IgnoreKind = "block"
)

// IgnoreBlockData is one annotated code block.
type IgnoreBlockData struct {
	Directive string   // the directive line text
	Lines     []int    // line numbers covered by the directive
	Contents  []string // corresponding source lines
}

// IgnoreProfile is the ignore data of one source file. When Kind is
// IgnoreFile the whole file is excluded and Lines is empty; otherwise
// Lines holds every ignored line number.
type IgnoreProfile struct {
	Kind     IgnoreKind
	Filename string
	Lines    map[int]bool
	Blocks   []*IgnoreBlockData
}

// ParseIgnoreProfile reads the ignore directives of a source file.
func ParseIgnoreProfile(fileName string) (*IgnoreProfile, error) {
	fd, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	profile, err := parseIgnoreProfile(fd)
	if profile != nil {
		profile.Filename = fileName
	}
	return profile, err
}

func parseIgnoreProfile(rd io.Reader) (*IgnoreProfile, error) {
	profile := &IgnoreProfile{
		Kind:  IgnoreBlock,
		Lines: make(map[int]bool),
	}

	s := bufio.NewScanner(rd)
	lineNo := 0
	var block *IgnoreBlockData

	for s.Scan() {
		lineNo++
		line := s.Text()

		match := IgnoreRegexp.FindStringSubmatch(line)
		if match != nil {
			if match[1] == string(IgnoreFile) {
				profile.Kind = IgnoreFile
				profile.Lines = nil
				profile.Blocks = nil
				return profile, s.Err()
			}
			if block == nil {
				block = &IgnoreBlockData{Directive: strings.TrimSpace(line)}
				profile.Blocks = append(profile.Blocks, block)
			}
		}

		if block == nil {
			continue
		}
		if strings.TrimSpace(line) == "" {
			block = nil
			continue
		}
		block.Lines = append(block.Lines, lineNo)
		block.Contents = append(block.Contents, line)
		profile.Lines[lineNo] = true
	}

	return profile, s.Err()
}
