package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikolag/summit/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// CreateParticipant inserts a new participant. An empty PID is replaced
// with the next free one; allocation and insert happen under the write
// lock so concurrent creates cannot claim the same PID. Inserting an
// existing PID fails instead of replacing the record.
func (s *Storage) CreateParticipant(ctx context.Context, p domain.Participant) (domain.Participant, error) {
	citizenships, err := serializeList(p.Citizenships)
	if err != nil {
		return domain.Participant{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if p.PID == "" {
		if p.PID, err = s.nextPID(ctx); err != nil {
			return domain.Participant{}, err
		}
	}
	if err := p.Validate(); err != nil {
		return domain.Participant{}, err
	}

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO participants (
			pid, name, gender, grade, representing_country,
			dob, pob, birth_country, citizenships, email, phone,
			travel_doc_type, travel_doc_type_other, travel_doc_issue_date,
			travel_doc_expiry_date, travel_doc_issued_by,
			transportation, transport_other, travelling_from, returning_to,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.PID, p.Name, string(p.Gender), int(p.Grade), p.RepresentingCountry,
		p.DOB.String(), p.POB, p.BirthCountry, citizenships, p.Email, p.Phone,
		string(p.TravelDocType), p.TravelDocTypeOther, p.TravelDocIssueDate.String(),
		p.TravelDocExpiryDate.String(), p.TravelDocIssuedBy,
		string(p.Transportation), p.TransportOther, p.TravellingFrom, p.ReturningTo,
		now, now,
	)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("create participant %s: %w", p.PID, err)
	}
	return p, nil
}

// SaveParticipant inserts or replaces a participant record.
func (s *Storage) SaveParticipant(ctx context.Context, p domain.Participant) error {
	if err := p.Validate(); err != nil {
		return err
	}

	citizenships, err := serializeList(p.Citizenships)
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := time.Now().Unix()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO participants (
			pid, name, gender, grade, representing_country,
			dob, pob, birth_country, citizenships, email, phone,
			travel_doc_type, travel_doc_type_other, travel_doc_issue_date,
			travel_doc_expiry_date, travel_doc_issued_by,
			transportation, transport_other, travelling_from, returning_to,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pid) DO UPDATE SET
			name = excluded.name,
			gender = excluded.gender,
			grade = excluded.grade,
			representing_country = excluded.representing_country,
			dob = excluded.dob,
			pob = excluded.pob,
			birth_country = excluded.birth_country,
			citizenships = excluded.citizenships,
			email = excluded.email,
			phone = excluded.phone,
			travel_doc_type = excluded.travel_doc_type,
			travel_doc_type_other = excluded.travel_doc_type_other,
			travel_doc_issue_date = excluded.travel_doc_issue_date,
			travel_doc_expiry_date = excluded.travel_doc_expiry_date,
			travel_doc_issued_by = excluded.travel_doc_issued_by,
			transportation = excluded.transportation,
			transport_other = excluded.transport_other,
			travelling_from = excluded.travelling_from,
			returning_to = excluded.returning_to,
			updated_at = excluded.updated_at
	`,
		p.PID, p.Name, string(p.Gender), int(p.Grade), p.RepresentingCountry,
		p.DOB.String(), p.POB, p.BirthCountry, citizenships, p.Email, p.Phone,
		string(p.TravelDocType), p.TravelDocTypeOther, p.TravelDocIssueDate.String(),
		p.TravelDocExpiryDate.String(), p.TravelDocIssuedBy,
		string(p.Transportation), p.TransportOther, p.TravellingFrom, p.ReturningTo,
		now, now,
	)
	return err
}

const participantColumns = `
	pid, name, gender, grade, representing_country,
	dob, pob, birth_country, citizenships, email, phone,
	travel_doc_type, travel_doc_type_other, travel_doc_issue_date,
	travel_doc_expiry_date, travel_doc_issued_by,
	transportation, transport_other, travelling_from, returning_to`

func scanParticipant(row interface{ Scan(...any) error }) (domain.Participant, error) {
	var p domain.Participant
	var gender, docType, transport, citizenships string
	var grade int
	var dob, issue, expiry string

	err := row.Scan(
		&p.PID, &p.Name, &gender, &grade, &p.RepresentingCountry,
		&dob, &p.POB, &p.BirthCountry, &citizenships, &p.Email, &p.Phone,
		&docType, &p.TravelDocTypeOther, &issue,
		&expiry, &p.TravelDocIssuedBy,
		&transport, &p.TransportOther, &p.TravellingFrom, &p.ReturningTo,
	)
	if err != nil {
		return p, err
	}

	p.Gender = domain.Gender(gender)
	p.Grade = domain.Grade(grade)
	p.TravelDocType = domain.DocType(docType)
	p.Transportation = domain.Transport(transport)

	if p.Citizenships, err = deserializeList(citizenships); err != nil {
		return p, fmt.Errorf("participant %s: bad citizenships payload: %w", p.PID, err)
	}
	if p.DOB, err = domain.ParseDate(dob); err != nil {
		return p, err
	}
	if p.TravelDocIssueDate, err = domain.ParseDate(issue); err != nil {
		return p, err
	}
	if p.TravelDocExpiryDate, err = domain.ParseDate(expiry); err != nil {
		return p, err
	}

	return p, nil
}

// GetParticipant retrieves a participant by PID.
func (s *Storage) GetParticipant(ctx context.Context, pid string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE pid = ?`, pid)

	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("participant %s: %w", pid, ErrNotFound)
	}
	return p, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ParticipantPage is one page of a participant listing.
type ParticipantPage struct {
	Items []domain.Participant `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Pages int                  `json:"pages"`
}

// ListParticipants returns a page of participants, optionally filtered by
// a case-insensitive name substring.
func (s *Storage) ListParticipants(ctx context.Context, search string, page, perPage int) (ParticipantPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 25
	}

	// LIKE metacharacters in the search term must match literally.
	pattern := "%" + likeEscaper.Replace(search) + "%"

	var total int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE name LIKE ? ESCAPE '\'`, pattern,
	).Scan(&total)
	if err != nil {
		return ParticipantPage{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT`+participantColumns+` FROM participants
		 WHERE name LIKE ? ESCAPE '\'
		 ORDER BY pid LIMIT ? OFFSET ?`,
		pattern, perPage, (page-1)*perPage)
	if err != nil {
		return ParticipantPage{}, err
	}
	defer rows.Close()

	result := ParticipantPage{Page: page, Total: total}
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return ParticipantPage{}, err
		}
		result.Items = append(result.Items, p)
	}
	if err := rows.Err(); err != nil {
		return ParticipantPage{}, err
	}

	result.Pages = (total + perPage - 1) / perPage
	if result.Pages < 1 {
		result.Pages = 1
	}
	return result, nil
}

// DeleteParticipant removes a participant and, through cascade, its event
// snapshots.
func (s *Storage) DeleteParticipant(ctx context.Context, pid string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM participants WHERE pid = ?`, pid)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("participant %s: %w", pid, ErrNotFound)
	}
	return nil
}

// NextPID reports the next free participant ID in the "P0001" sequence.
// It only inspects the table; CreateParticipant allocates atomically.
func (s *Storage) NextPID(ctx context.Context) (string, error) {
	return s.nextPID(ctx)
}

func (s *Storage) nextPID(ctx context.Context) (string, error) {
	var maxPID sql.NullString
	err := s.db.QueryRowContext(ctx, `SELECT MAX(pid) FROM participants`).Scan(&maxPID)
	if err != nil {
		return "", err
	}

	next := 1
	if maxPID.Valid && len(maxPID.String) > 1 {
		var n int
		if _, err := fmt.Sscanf(maxPID.String, "P%d", &n); err == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("P%04d", next), nil
}

// PhoneNormalizationResult reports the outcome of a phone cleanup run.
type PhoneNormalizationResult struct {
	Updated int
	Skipped []string // PIDs whose phone could not be normalized
}

// NormalizeParticipantPhones rewrites every stored phone number through
// domain.NormalizePhone. Records whose phone cannot be normalized are
// left untouched and reported.
func (s *Storage) NormalizeParticipantPhones(ctx context.Context) (PhoneNormalizationResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT pid, phone FROM participants WHERE phone IS NOT NULL AND phone != ''`)
	if err != nil {
		return PhoneNormalizationResult{}, err
	}
	defer rows.Close()

	type change struct{ pid, phone string }
	var changes []change
	var result PhoneNormalizationResult

	for rows.Next() {
		var pid, phone string
		if err := rows.Scan(&pid, &phone); err != nil {
			return result, err
		}

		normalized := domain.NormalizePhone(phone)
		if normalized == "" {
			result.Skipped = append(result.Skipped, pid)
			continue
		}
		if normalized != phone {
			changes = append(changes, change{pid, normalized})
		}
	}
	if err := rows.Err(); err != nil {
		return result, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	for _, c := range changes {
		if _, err := s.db.ExecContext(ctx,
			`UPDATE participants SET phone = ?, updated_at = ? WHERE pid = ?`,
			c.phone, time.Now().Unix(), c.pid); err != nil {
			return result, err
		}
		result.Updated++
	}

	return result, nil
}
