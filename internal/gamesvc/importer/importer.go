// Package importer parses spreadsheet question banks for bulk import.
// The expected row shape is [question, option1, option2, option3,
// correct(1-3)]; the source format is 1-based and is converted to the
// 0-based index stored on the question.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/xuri/excelize/v2"
)

const importOptions = 3

// Parse reads the first sheet of an .xlsx workbook and converts its rows.
func Parse(r io.Reader) ([]models.Question, error) {
	wb, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("importer: open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("importer: workbook has no sheets")
	}

	rows, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("importer: read sheet %s: %w", sheets[0], err)
	}

	return ConvertRows(rows), nil
}

// ConvertRows turns raw sheet rows into questions, dropping header rows and
// anything with missing cells.
func ConvertRows(rows [][]string) []models.Question {
	var questions []models.Question

	for _, row := range rows {
		if len(row) < 5 {
			continue
		}

		text := strings.TrimSpace(row[0])
		if text == "" || text == "Question" || text == "Pregunta" {
			continue
		}

		options := []string{
			strings.TrimSpace(row[1]),
			strings.TrimSpace(row[2]),
			strings.TrimSpace(row[3]),
		}

		blank := false
		for _, opt := range options {
			if opt == "" {
				blank = true
				break
			}
		}
		if blank {
			continue
		}

		questions = append(questions, models.Question{
			QuestionText:  text,
			Options:       options,
			CorrectOption: correctIndex(row[4]),
		})
	}

	return questions
}

// correctIndex converts the 1-based source column to a 0-based index,
// clamped into the option range. Unparseable values fall back to the first
// option.
func correctIndex(cell string) int {
	v, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}

	idx := v - 1
	if idx < 0 {
		return 0
	}
	if idx > importOptions-1 {
		return importOptions - 1
	}
	return idx
}
