// Package extractor parses spreadsheet workbooks into row records and applies
// a two-phase heuristic to pull question/answer candidates out of them. A
// sheet is either "structured" (dedicated question and answer columns) or
// "heuristic" (per-cell scanning), never both.
package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

// NoAnswerFound is the synthesized answer context for a question cell with no
// adjacent non-empty cell to the right or below.
const NoAnswerFound = "No answer found"

var (
	questionHeaderWords = []string{"question", "query", "prompt"}
	answerHeaderWords   = []string{"answer", "response", "reply"}

	// Standalone word match, not substring: "questionnaire" does not qualify.
	questionWordRe = regexp.MustCompile(`(?i)\bquestion\b`)
)

// ColumnKey identifies a column either by header name or by position. It is
// resolved once per sheet during parsing, so downstream code never sniffs key
// types at runtime.
type ColumnKey struct {
	Name  string
	Index int
	Named bool
}

func NamedColumn(name string) ColumnKey {
	return ColumnKey{Name: name, Named: true}
}

func PositionalColumn(index int) ColumnKey {
	return ColumnKey{Index: index}
}

func (k ColumnKey) String() string {
	if k.Named {
		return k.Name
	}
	return strconv.Itoa(k.Index)
}

// Row maps column keys to cell values. Missing cells are normalized to the
// empty string during parsing so string operations on rows are total.
type Row map[ColumnKey]string

// Sheet is one tab of a workbook. Headers preserve declaration order, which
// fixes both the iteration order of heuristic scans and the ordinal used for
// column index resolution.
type Sheet struct {
	Name    string
	Headers []ColumnKey
	Rows    []Row
}

// Structure summarizes a sheet for persistence.
type Structure struct {
	RowCount int
	Headers  []ColumnKey
}

// QuestionCandidate is a possible question with its inferred answer context,
// prior to persistence.
type QuestionCandidate struct {
	Sheet   string
	Row     int
	Column  ColumnKey
	Text    string
	Context string
}

// Result is the full output of parsing one workbook.
type Result struct {
	Sheets    []Sheet
	Questions []QuestionCandidate
	Structure map[string]Structure
}

type Parser struct {
	options Options
}

func NewParser(opts ...Option) *Parser {
	options := NewOptions(opts...)

	return &Parser{
		options: options,
	}
}

// ExtractQuestions runs the two-phase heuristic over parsed sheets.
//
// Phase 1 looks for question/answer header pairs per sheet; if both exist,
// every row with a non-empty question cell becomes a candidate and phase 2 is
// skipped for that sheet. Phase 2 scans every cell of the remaining sheets
// for question-shaped text and infers the answer from the next column, the
// next row, or a placeholder, in that order.
func (p *Parser) ExtractQuestions(sheets []Sheet) []QuestionCandidate {
	questions := []QuestionCandidate{}
	structured := map[string]bool{}

	for _, sheet := range sheets {
		candidates := p.extractStructured(sheet)
		if len(candidates) > 0 {
			structured[sheet.Name] = true
			questions = append(questions, candidates...)
		}
	}

	for _, sheet := range sheets {
		if structured[sheet.Name] {
			continue
		}
		questions = append(questions, p.extractHeuristic(sheet)...)
	}

	return questions
}

func (p *Parser) extractStructured(sheet Sheet) []QuestionCandidate {
	if len(sheet.Rows) == 0 {
		return nil
	}

	var questionCol, answerCol *ColumnKey

	// First match wins, in header declaration order.
	for _, header := range sheet.Headers {
		name := strings.ToLower(header.String())

		if questionCol == nil && containsAny(name, questionHeaderWords) {
			h := header
			questionCol = &h
		} else if answerCol == nil && containsAny(name, answerHeaderWords) {
			h := header
			answerCol = &h
		}
	}

	if questionCol == nil || answerCol == nil {
		return nil
	}

	p.options.Logger.Info("found question-answer columns",
		"sheet", sheet.Name,
		"question_column", questionCol.String(),
		"answer_column", answerCol.String(),
	)

	var candidates []QuestionCandidate

	for rowIdx, row := range sheet.Rows {
		questionText := row[*questionCol]
		if len(questionText) == 0 {
			continue
		}

		candidates = append(candidates, QuestionCandidate{
			Sheet:   sheet.Name,
			Row:     rowIdx,
			Column:  *questionCol,
			Text:    questionText,
			Context: row[*answerCol],
		})
	}

	return candidates
}

func (p *Parser) extractHeuristic(sheet Sheet) []QuestionCandidate {
	var candidates []QuestionCandidate

	for rowIdx, row := range sheet.Rows {
		for _, key := range sheet.Headers {
			cell := row[key]

			if !isQuestionCell(cell) {
				continue
			}

			answer := ""

			// Next positional column in the same row, for horizontal layouts.
			if !key.Named {
				answer = row[PositionalColumn(key.Index+1)]
			}

			// Same column in the next row, for vertical layouts.
			if len(answer) == 0 && rowIdx+1 < len(sheet.Rows) {
				answer = sheet.Rows[rowIdx+1][key]
			}

			if len(answer) == 0 {
				answer = NoAnswerFound
			}

			candidates = append(candidates, QuestionCandidate{
				Sheet:   sheet.Name,
				Row:     rowIdx,
				Column:  key,
				Text:    cell,
				Context: answer,
			})
		}
	}

	return candidates
}

// ResolveColumnIndex maps a column key to the integer index persisted
// downstream: positional keys map to themselves, all-digit names parse as
// integers, other names resolve to their first ordinal in the header list.
// Unknown names default to 0 so one malformed column mapping cannot fail a
// whole ingestion.
func (p *Parser) ResolveColumnIndex(headers []ColumnKey, key ColumnKey) int {
	if !key.Named {
		return key.Index
	}

	if idx, err := strconv.Atoi(key.Name); err == nil {
		return idx
	}

	for i, header := range headers {
		if header == key {
			return i
		}
	}

	p.options.Logger.Warn("column not found in headers, defaulting index to 0", "column", key.String())

	return 0
}

func isQuestionCell(cell string) bool {
	if strings.HasSuffix(strings.TrimSpace(cell), "?") {
		return true
	}
	return questionWordRe.MatchString(cell)
}

func containsAny(s string, words []string) bool {
	for _, word := range words {
		if strings.Contains(s, word) {
			return true
		}
	}
	return false
}
