package importer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nikolag/summit/internal/countries"
	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/names"
	"github.com/nikolag/summit/internal/storage"
)

// Importer runs validated workbooks against the database.
type Importer struct {
	store    *storage.Storage
	resolver *countries.Resolver
	log      *zap.SugaredLogger
}

func New(store *storage.Storage, resolver *countries.Resolver, log *zap.SugaredLogger) *Importer {
	return &Importer{store: store, resolver: resolver, log: log}
}

// RowError describes why one participant row was rejected.
type RowError struct {
	Line   int    `json:"line"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason"`
}

// Report summarizes an import run.
type Report struct {
	DryRun       bool       `json:"dry_run"`
	EventID      string     `json:"event_id,omitempty"`
	EventCreated bool       `json:"event_created"`
	Created      int        `json:"created"`
	Updated      int        `json:"updated"`
	Assigned     int        `json:"assigned"`
	Errors       []RowError `json:"errors,omitempty"`
}

// Run imports a workbook. With dryRun set, rows are parsed and resolved
// but nothing is written; the report shows what a commit would do.
func (imp *Importer) Run(ctx context.Context, data []byte, dryRun bool) (*Report, error) {
	validation, err := Validate(data)
	if err != nil {
		return nil, err
	}
	if !validation.OK {
		return nil, fmt.Errorf("workbook rejected: %v", validation.Missing)
	}

	preview, err := Inspect(data)
	if err != nil {
		return nil, err
	}
	if preview.Event == nil {
		return nil, fmt.Errorf("workbook has no event row")
	}

	report := &Report{DryRun: dryRun}

	event, created, err := imp.resolveEvent(ctx, *preview.Event)
	if err != nil {
		return nil, err
	}
	report.EventID = event.EID
	report.EventCreated = created

	// Locations are usually cities, so the host country often cannot be
	// resolved from the Events sheet alone. Fall back to the first
	// participant country that resolves.
	if event.HostCountry == "" {
		for _, row := range preview.Participants {
			if m, ok := imp.resolver.Resolve(row.Country); ok {
				event.HostCountry = m.Country.CID
				break
			}
		}
	}

	existing, err := imp.existingByNameKey(ctx)
	if err != nil {
		return nil, err
	}

	if !dryRun && created {
		if err := imp.store.CreateEvent(ctx, event); err != nil {
			return nil, err
		}
	}

	for _, row := range preview.Participants {
		p, err := imp.mapRow(row)
		if err != nil {
			report.Errors = append(report.Errors, RowError{Line: row.Line, Name: row.Name, Reason: err.Error()})
			continue
		}

		key := names.Key(p.Name)
		pid, known := existing[key]

		if dryRun {
			if known {
				report.Updated++
			} else {
				existing[key] = "pending"
				report.Created++
			}
			report.Assigned++
			continue
		}

		if known {
			p.PID = pid
			if err := imp.store.SaveParticipant(ctx, p); err != nil {
				report.Errors = append(report.Errors, RowError{Line: row.Line, Name: row.Name, Reason: err.Error()})
				continue
			}
			report.Updated++
		} else {
			// The store allocates the PID under its write lock, so a
			// concurrent create cannot claim the same one.
			created, err := imp.store.CreateParticipant(ctx, p)
			if err != nil {
				report.Errors = append(report.Errors, RowError{Line: row.Line, Name: row.Name, Reason: err.Error()})
				continue
			}
			p = created
			existing[key] = p.PID
			report.Created++
		}

		snapshot := domain.SnapshotFrom(event.EID, p, parseRole(row.Position))
		if err := imp.store.AssignParticipant(ctx, snapshot); err != nil {
			report.Errors = append(report.Errors, RowError{Line: row.Line, Name: row.Name, Reason: err.Error()})
			continue
		}
		report.Assigned++
	}

	imp.log.Infow("import finished",
		"event", report.EventID,
		"dry_run", dryRun,
		"created", report.Created,
		"updated", report.Updated,
		"assigned", report.Assigned,
		"errors", len(report.Errors),
	)
	return report, nil
}

// resolveEvent finds or builds the event described by the Events sheet.
// The returned bool is true when the event does not exist yet.
func (imp *Importer) resolveEvent(ctx context.Context, row eventRow) (domain.Event, bool, error) {
	if row.Event != "" {
		existing, err := imp.store.GetEvent(ctx, row.Event)
		switch {
		case err == nil:
			return existing, false, nil
		case !errors.Is(err, storage.ErrNotFound):
			return domain.Event{}, false, err
		}
	}

	dateFrom, err := parseFlexibleDate(row.DateFrom)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("event date from: %w", err)
	}
	dateTo, err := parseFlexibleDate(row.DateTo)
	if err != nil {
		return domain.Event{}, false, fmt.Errorf("event date to: %w", err)
	}

	event := domain.Event{
		EID:      row.Event,
		Title:    row.Title,
		Location: row.Location,
		DateFrom: dateFrom,
		DateTo:   dateTo,
	}
	if event.EID == "" {
		// Reimports carry no EID, so match on title and start date.
		all, err := imp.store.ListEvents(ctx)
		if err != nil {
			return domain.Event{}, false, err
		}
		for _, e := range all {
			if e.Title == event.Title && e.DateFrom.String() == event.DateFrom.String() {
				return e, false, nil
			}
		}
		if event.EID, err = imp.store.NextEID(ctx); err != nil {
			return domain.Event{}, false, err
		}
	}

	// Host country defaults to the event location when it resolves.
	if m, ok := imp.resolver.Resolve(row.Location); ok {
		event.HostCountry = m.Country.CID
	}

	return event, true, nil
}

// existingByNameKey loads all stored participants indexed by their
// canonical name key, so reimports update rather than duplicate.
func (imp *Importer) existingByNameKey(ctx context.Context) (map[string]string, error) {
	page, err := imp.store.ListParticipants(ctx, "", 1, 100000)
	if err != nil {
		return nil, err
	}
	index := make(map[string]string, len(page.Items))
	for _, p := range page.Items {
		index[names.Key(p.Name)] = p.PID
	}
	return index, nil
}

// mapRow converts a raw sheet row into a participant record. The PID is
// left empty and assigned at save time.
func (imp *Importer) mapRow(row participantRow) (domain.Participant, error) {
	gender, err := parseGender(row.Gender)
	if err != nil {
		return domain.Participant{}, err
	}

	rep, ok := imp.resolver.Resolve(row.Country)
	if !ok {
		return domain.Participant{}, fmt.Errorf("unrecognized country %q", row.Country)
	}

	birth := rep
	if row.BirthCountry != "" {
		if m, ok := imp.resolver.Resolve(row.BirthCountry); ok {
			birth = m
		} else {
			return domain.Participant{}, fmt.Errorf("unrecognized birth country %q", row.BirthCountry)
		}
	}

	p := domain.Participant{
		Name:                row.Name,
		Gender:              gender,
		Grade:               domain.GradeNormal,
		RepresentingCountry: rep.Country.CID,
		POB:                 row.POB,
		BirthCountry:        birth.Country.CID,
		Citizenships:        []string{rep.Country.CID},
		Email:               row.Email,
		Phone:               domain.NormalizePhone(row.Phone),
	}

	if row.DOB != "" {
		if p.DOB, err = parseFlexibleDate(row.DOB); err != nil {
			return domain.Participant{}, fmt.Errorf("dob: %w", err)
		}
	}

	return p, nil
}
