// Package csvutil parses the study manifests a PACS exports for backfill.
//
// A row is:
//
//	study_instance_uid,accession_number,modality,study_description,patient_id,patient_name[,patient_sex,patient_age]
//
// Only study_instance_uid is required. A leading header row is detected
// and skipped.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrTooManyRows is returned when a file exceeds ParseOptions.MaxRows.
var ErrTooManyRows = errors.New("too many rows in CSV")

type ParseOptions struct {
	MaxRows int // 0: unlimited
}

// StudyRow is one validated manifest row.
type StudyRow struct {
	StudyInstanceUID string
	AccessionNumber  string
	Modality         string
	StudyDescription string
	PatientID        string
	PatientName      string
	PatientSex       string
	PatientAge       string
}

// RowError describes a rejected row. Line 0 means a file-level problem.
type RowError struct {
	Line   int      `json:"line"`
	Reason string   `json:"reason"`
	Raw    []string `json:"-"`
}

type ParsedResult struct {
	Rows   []StudyRow
	Errors []RowError
}

func (r *ParsedResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseStudiesCSV reads a manifest. Malformed CSV rejects the whole file;
// row-level problems are collected in Errors so the caller can report all
// of them at once.
func ParseStudiesCSV(r io.Reader, opts ParseOptions) (ParsedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		result      ParsedResult
		parseErrors []string
		raw         [][]string
		lines       []int
	)

	lineNum := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum++
		if err != nil {
			parseErrors = append(parseErrors, fmt.Sprintf("line %d: %s", lineNum, err.Error()))
			continue
		}
		if lineNum == 1 && len(rec) > 0 {
			rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			if isHeaderRow(rec) {
				continue
			}
		}
		if isBlank(rec) {
			continue
		}
		if opts.MaxRows > 0 && len(raw) >= opts.MaxRows {
			return result, ErrTooManyRows
		}
		raw = append(raw, rec)
		lines = append(lines, lineNum)
	}

	if len(parseErrors) > 0 {
		for _, pe := range parseErrors {
			result.Errors = append(result.Errors, RowError{Reason: pe})
		}
		return result, nil
	}

	seen := make(map[string]int)
	for i, rec := range raw {
		line := lines[i]
		row, rowErr := parseRow(rec, line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if first, dup := seen[row.StudyInstanceUID]; dup {
			result.Errors = append(result.Errors, RowError{
				Line:   line,
				Reason: fmt.Sprintf("duplicate study instance UID (first appears on line %d)", first),
				Raw:    rec,
			})
			continue
		}
		seen[row.StudyInstanceUID] = line
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func isHeaderRow(rec []string) bool {
	c0 := strings.ToLower(strings.TrimSpace(rec[0]))
	switch c0 {
	case "study_instance_uid", "studyinstanceuid", "study instance uid", "uid":
		return true
	}
	return false
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return strings.TrimSpace(rec[i])
	}
	return ""
}

func parseRow(rec []string, line int) (StudyRow, *RowError) {
	if len(rec) > 8 {
		return StudyRow{}, &RowError{Line: line, Reason: fmt.Sprintf("expected 1 to 8 fields, got %d", len(rec)), Raw: rec}
	}
	row := StudyRow{
		StudyInstanceUID: field(rec, 0),
		AccessionNumber:  field(rec, 1),
		Modality:         strings.ToUpper(field(rec, 2)),
		StudyDescription: field(rec, 3),
		PatientID:        field(rec, 4),
		PatientName:      field(rec, 5),
		PatientSex:       strings.ToUpper(field(rec, 6)),
		PatientAge:       field(rec, 7),
	}
	if row.StudyInstanceUID == "" {
		return StudyRow{}, &RowError{Line: line, Reason: "study instance UID is required", Raw: rec}
	}
	if !validUID(row.StudyInstanceUID) {
		return StudyRow{}, &RowError{Line: line, Reason: "study instance UID must be dotted digits", Raw: rec}
	}
	return row, nil
}

// validUID checks the DICOM UID shape: digit groups separated by dots, at
// most 64 characters.
func validUID(uid string) bool {
	if len(uid) > 64 || strings.HasPrefix(uid, ".") || strings.HasSuffix(uid, ".") || strings.Contains(uid, "..") {
		return false
	}
	for _, c := range uid {
		if c != '.' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
