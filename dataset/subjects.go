// Package dataset loads observed species counts from the belly-button
// study CSV format: one row per (subject, species, count), rows grouped
// by subject code.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// SpeciesCount is one observed species and the number of individuals
// counted for it.
type SpeciesCount struct {
	Name  string
	Count int
}

// Subject is one sampled population: the species observed in it and
// their counts.
type Subject struct {
	Code    string
	Species []SpeciesCount
}

// Add records one species-count pair.
func (s *Subject) Add(name string, count int) {
	s.Species = append(s.Species, SpeciesCount{Name: name, Count: count})
}

// Sort orders the species by decreasing count, the conventional
// discovery order for the estimators.
func (s *Subject) Sort() {
	sort.SliceStable(s.Species, func(i, j int) bool {
		return s.Species[i].Count > s.Species[j].Count
	})
}

// Counts returns the observed counts in the subject's current order.
func (s *Subject) Counts() []int {
	counts := make([]int, len(s.Species))
	for i, sp := range s.Species {
		counts[i] = sp.Count
	}
	return counts
}

// ReadSubjects parses a CSV file of (code, species, count) rows into
// subjects, sorted by decreasing count. The first row is a header.
func ReadSubjects(path string) ([]*Subject, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open %v: %w", path, err)
	}
	defer f.Close()
	return parseSubjects(f)
}

func parseSubjects(r io.Reader) ([]*Subject, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var subjects []*Subject
	var subject *Subject
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("dataset: line %v: %w", line, err)
		}
		line++
		if line == 1 {
			// header
			continue
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("dataset: line %v: want 3 fields, got %v", line, len(record))
		}
		code, name := record[0], record[1]
		count, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, fmt.Errorf("dataset: line %v: bad count %q: %w", line, record[2], err)
		}
		if count < 0 {
			return nil, fmt.Errorf("dataset: line %v: negative count %v", line, count)
		}

		if subject == nil || subject.Code != code {
			subject = &Subject{Code: code}
			subjects = append(subjects, subject)
		}
		subject.Add(name, count)
	}

	for _, s := range subjects {
		s.Sort()
	}
	return subjects, nil
}
