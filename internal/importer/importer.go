// Package importer parses uploaded Excel workbooks and turns them into
// events and participant records.
package importer

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/names"
)

// MaxWorkbookSize caps uploaded workbook size.
const MaxWorkbookSize = 16 * 1024 * 1024 // 16 MiB

// Workbook layout contract. Column order is free; headers must match.
var (
	requiredSheets = []string{"Participant", "Country", "Events"}

	requiredColumns = map[string][]string{
		"Participant": {"Name", "Position", "Country", "Gender", "DOB", "POB", "Birth Country", "Email", "Phone", "Event"},
		"Country":     {"Country"},
		"Events":      {"Event", "Title", "Location", "Date From", "Date To"},
	}
)

// ValidationResult reports workbook structure problems.
type ValidationResult struct {
	OK      bool     `json:"ok"`
	Missing []string `json:"missing,omitempty"`
	Sheets  []string `json:"sheets"`
}

// Validate checks that the workbook has the required sheets and columns.
func Validate(data []byte) (ValidationResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return ValidationResult{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	result := ValidationResult{Sheets: f.GetSheetList()}
	present := make(map[string]bool, len(result.Sheets))
	for _, s := range result.Sheets {
		present[s] = true
	}

	for _, sheet := range requiredSheets {
		if !present[sheet] {
			result.Missing = append(result.Missing, fmt.Sprintf("Missing required sheet: %s", sheet))
		}
	}

	for _, sheet := range requiredSheets {
		if !present[sheet] {
			continue
		}
		header, err := headerIndex(f, sheet)
		if err != nil {
			return ValidationResult{}, err
		}
		for _, col := range requiredColumns[sheet] {
			if _, ok := header[col]; !ok {
				result.Missing = append(result.Missing,
					fmt.Sprintf("Sheet '%s' missing column: '%s'", sheet, col))
			}
		}
	}

	sort.Strings(result.Missing)
	result.OK = len(result.Missing) == 0
	return result, nil
}

// headerIndex maps column header -> zero-based column index for a sheet.
func headerIndex(f *excelize.File, sheet string) (map[string]int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	header := map[string]int{}
	if len(rows) == 0 {
		return header, nil
	}
	for i, cell := range rows[0] {
		name := strings.TrimSpace(cell)
		if name != "" {
			header[name] = i
		}
	}
	return header, nil
}

func cell(row []string, header map[string]int, col string) string {
	idx, ok := header[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// participantRow is one raw row from the Participant sheet.
type participantRow struct {
	Line         int    `json:"line"`
	Name         string `json:"name"`
	Position     string `json:"position,omitempty"`
	Country      string `json:"country"`
	Gender       string `json:"gender"`
	DOB          string `json:"dob"`
	POB          string `json:"pob"`
	BirthCountry string `json:"birth_country"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Event        string `json:"event,omitempty"`
}

// eventRow is one raw row from the Events sheet.
type eventRow struct {
	Event    string `json:"event"`
	Title    string `json:"title"`
	Location string `json:"location"`
	DateFrom string `json:"date_from"`
	DateTo   string `json:"date_to"`
}

// Preview is the dry-run summary shown before a commit.
type Preview struct {
	Event        *eventRow        `json:"event,omitempty"`
	Participants []participantRow `json:"participants"`
}

// Inspect extracts the event and participant rows without touching the
// database. When several events are present, the one with the earliest
// start date is previewed.
func Inspect(data []byte) (*Preview, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	events, err := readEvents(f)
	if err != nil {
		return nil, err
	}

	preview := &Preview{}
	if len(events) > 0 {
		preview.Event = &events[0]
	}

	if preview.Participants, err = readParticipants(f); err != nil {
		return nil, err
	}
	return preview, nil
}

// readEvents returns the Events sheet rows sorted by start date.
func readEvents(f *excelize.File) ([]eventRow, error) {
	header, err := headerIndex(f, "Events")
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows("Events")
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	var events []eventRow
	for _, row := range rows[1:] {
		e := eventRow{
			Event:    cell(row, header, "Event"),
			Title:    cell(row, header, "Title"),
			Location: cell(row, header, "Location"),
			DateFrom: cell(row, header, "Date From"),
			DateTo:   cell(row, header, "Date To"),
		}
		if e.Event == "" && e.Title == "" {
			continue
		}
		events = append(events, e)
	}

	sort.SliceStable(events, func(i, j int) bool {
		di, erri := parseFlexibleDate(events[i].DateFrom)
		dj, errj := parseFlexibleDate(events[j].DateFrom)
		if erri != nil {
			return false
		}
		if errj != nil {
			return true
		}
		return di.Before(dj.Time)
	})
	return events, nil
}

func readParticipants(f *excelize.File) ([]participantRow, error) {
	header, err := headerIndex(f, "Participant")
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows("Participant")
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	var participants []participantRow
	for i, row := range rows[1:] {
		p := participantRow{
			Line:         i + 2, // 1-based, after header
			Name:         cell(row, header, "Name"),
			Position:     cell(row, header, "Position"),
			Country:      cell(row, header, "Country"),
			Gender:       cell(row, header, "Gender"),
			DOB:          cell(row, header, "DOB"),
			POB:          cell(row, header, "POB"),
			BirthCountry: cell(row, header, "Birth Country"),
			Email:        cell(row, header, "Email"),
			Phone:        cell(row, header, "Phone"),
			Event:        cell(row, header, "Event"),
		}
		if p.Name == "" {
			continue
		}
		p.Name = names.Normalize(p.Name)
		participants = append(participants, p)
	}
	return participants, nil
}

// parseFlexibleDate accepts the date spellings seen in real workbooks.
func parseFlexibleDate(s string) (domain.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Date{}, fmt.Errorf("empty date")
	}

	layouts := []string{
		"2006-01-02",
		"02.01.2006",
		"2.1.2006",
		"01/02/2006",
		"1/2/2006",
		"02-01-06",
		"Jan 2, 2006",
		"2 Jan 2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Date{Time: t}, nil
		}
	}
	return domain.Date{}, fmt.Errorf("unrecognized date %q", s)
}

// parseGender maps workbook gender spellings to the domain enum.
func parseGender(s string) (domain.Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return domain.GenderMale, nil
	case "f", "female":
		return domain.GenderFemale, nil
	default:
		return "", fmt.Errorf("unrecognized gender %q", s)
	}
}

// parseRole maps the Position column to an event role.
func parseRole(s string) domain.Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instructor", "trainer", "lecturer":
		return domain.RoleInstructor
	case "organizer":
		return domain.RoleOrganizer
	case "guest":
		return domain.RoleGuest
	case "sponsor":
		return domain.RoleSponsor
	case "observer":
		return domain.RoleObserver
	default:
		return domain.RoleParticipant
	}
}
